package channels

import (
	"context"
	"errors"

	"github.com/tubeline/backend/internal/logging"
	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

// HistoryExpander turns a viewer's recorded watch history into videos with their owners embedded.
type HistoryExpander struct {
	catalog CatalogStore
}

// NewHistoryExpander constructs an expander reading from catalog.
func NewHistoryExpander(catalog CatalogStore) *HistoryExpander {
	return &HistoryExpander{catalog: catalog}
}

// Expand returns the viewer's history in recorded order. Entries pointing at
// deleted videos are skipped and repeated views are kept as separate entries.
// The result is never nil.
func (e *HistoryExpander) Expand(ctx context.Context, viewerID string) ([]models.VideoWithOwner, error) {
	if viewerID == "" {
		return nil, ErrUnauthorized
	}

	ctx, span := logging.StartSpan(ctx, "channels.expand_history")
	defer span.End()
	logger := logging.FromContext(ctx)

	if _, err := e.catalog.FindAccountByID(ctx, viewerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, storeErr("find viewer", err)
	}

	history, err := e.catalog.WatchHistory(ctx, viewerID)
	if err != nil {
		return nil, storeErr("load watch history", err)
	}

	expanded := make([]models.VideoWithOwner, 0, len(history))
	if len(history) == 0 {
		return expanded, nil
	}

	videos, err := e.catalog.FindVideosByIDs(ctx, distinct(history))
	if err != nil {
		return nil, storeErr("resolve history videos", err)
	}

	ownerIDs := make([]string, 0, len(videos))
	for _, video := range videos {
		ownerIDs = append(ownerIDs, video.OwnerID)
	}

	owners := map[string]models.Account{}
	if len(ownerIDs) > 0 {
		owners, err = e.catalog.FindAccountsByIDs(ctx, distinct(ownerIDs))
		if err != nil {
			return nil, storeErr("resolve history owners", err)
		}
	}

	var skipped int
	for _, id := range history {
		video, ok := videos[id]
		if !ok {
			skipped++
			continue
		}
		owner, ok := owners[video.OwnerID]
		if !ok {
			logger.Warn("history video owner missing", "videoId", video.ID, "ownerId", video.OwnerID)
			skipped++
			continue
		}
		expanded = append(expanded, models.VideoWithOwner{Video: video, Owner: owner.Owner()})
	}

	if skipped > 0 {
		logger.Debug("skipped unresolved history entries", "viewerId", viewerID, "skipped", skipped, "total", len(history))
	}

	return expanded, nil
}

// distinct returns ids without repeats, keeping first-seen order.
func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
