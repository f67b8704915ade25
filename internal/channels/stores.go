package channels

import (
	"context"

	"github.com/tubeline/backend/internal/models"
)

// RelationshipStore reads subscription edges. Implementations report a missing
// edge with repositories.ErrNotFound.
type RelationshipStore interface {
	FindEdge(ctx context.Context, subscriberID, channelID string) (models.SubscriptionEdge, error)
	CountByChannel(ctx context.Context, channelID string) (int64, error)
	CountBySubscriber(ctx context.Context, subscriberID string) (int64, error)
	SubscriberIDs(ctx context.Context, channelID string) ([]string, error)
}

// CatalogStore reads accounts, videos and watch histories.
//
// The batch lookups return only the records that exist, keyed by id; unknown ids
// are absent from the map rather than reported as errors.
type CatalogStore interface {
	FindAccountByHandle(ctx context.Context, handle string) (models.Account, error)
	FindAccountByID(ctx context.Context, id string) (models.Account, error)
	FindAccountsByIDs(ctx context.Context, ids []string) (map[string]models.Account, error)
	FindVideosByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
	WatchHistory(ctx context.Context, accountID string) ([]string, error)
}
