package channels

import (
	"context"
	"errors"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tubeline/backend/internal/logging"
	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

// NormalizeHandle trims and case-folds a channel handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// ProfileResolver builds channel profiles with subscription counters relative to a viewer.
type ProfileResolver struct {
	relationships RelationshipStore
	catalog       CatalogStore
}

// NewProfileResolver constructs a resolver over the provided stores.
func NewProfileResolver(relationships RelationshipStore, catalog CatalogStore) *ProfileResolver {
	return &ProfileResolver{relationships: relationships, catalog: catalog}
}

// Resolve loads the channel identified by handle. An empty viewerID means the
// caller is anonymous, in which case IsSubscribed is always false.
func (r *ProfileResolver) Resolve(ctx context.Context, handle, viewerID string) (models.ChannelProfile, error) {
	handle = NormalizeHandle(handle)
	if handle == "" {
		return models.ChannelProfile{}, ErrInvalidHandle
	}

	ctx, span := logging.StartSpan(ctx, "channels.resolve_profile")
	defer span.End()
	logger := logging.FromContext(ctx)

	account, err := r.catalog.FindAccountByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ChannelProfile{}, ErrChannelNotFound
		}
		return models.ChannelProfile{}, storeErr("find channel", err)
	}

	var (
		subscribers  int64
		subscribedTo int64
		isSubscribed bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.relationships.CountByChannel(gctx, account.ID)
		if err != nil {
			return storeErr("count subscribers", err)
		}
		subscribers = n
		return nil
	})
	g.Go(func() error {
		n, err := r.relationships.CountBySubscriber(gctx, account.ID)
		if err != nil {
			return storeErr("count subscriptions", err)
		}
		subscribedTo = n
		return nil
	})
	if viewerID != "" {
		g.Go(func() error {
			ids, err := r.relationships.SubscriberIDs(gctx, account.ID)
			if err != nil {
				return storeErr("list subscribers", err)
			}
			isSubscribed = slices.Contains(ids, viewerID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("resolve channel relationships", "channelId", account.ID, "error", err)
		return models.ChannelProfile{}, err
	}

	self := viewerID != "" && viewerID == account.ID
	if self && isSubscribed {
		logger.Warn("channel is subscribed to itself", "channelId", account.ID)
	}

	return projectProfile(account, subscribers, subscribedTo, isSubscribed, self), nil
}

func projectProfile(account models.Account, subscribers, subscribedTo int64, isSubscribed, self bool) models.ChannelProfile {
	profile := models.ChannelProfile{
		ID:                account.ID,
		Handle:            account.Handle,
		FullName:          account.FullName,
		Avatar:            account.AvatarURL,
		CoverImage:        account.CoverImageURL,
		SubscribersCount:  subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}
	// Email is only shown to the channel itself.
	if self {
		profile.Email = account.Email
	}
	return profile
}
