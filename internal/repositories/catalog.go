package repositories

import (
	"context"

	"github.com/tubeline/backend/internal/models"
)

// Catalog joins the account, video and history repositories into the read
// surface used by channel profiles and watch history expansion.
type Catalog struct {
	accounts AccountRepository
	videos   VideoRepository
	history  WatchHistoryRepository
}

// NewCatalog constructs a Catalog over the provided repositories.
func NewCatalog(accounts AccountRepository, videos VideoRepository, history WatchHistoryRepository) *Catalog {
	return &Catalog{accounts: accounts, videos: videos, history: history}
}

// FindAccountByHandle resolves a lower-cased handle.
func (c *Catalog) FindAccountByHandle(ctx context.Context, handle string) (models.Account, error) {
	return c.accounts.FindByHandle(ctx, handle)
}

// FindAccountByID resolves an account id.
func (c *Catalog) FindAccountByID(ctx context.Context, id string) (models.Account, error) {
	return c.accounts.FindByID(ctx, id)
}

// FindAccountsByIDs resolves a batch of account ids.
func (c *Catalog) FindAccountsByIDs(ctx context.Context, ids []string) (map[string]models.Account, error) {
	return c.accounts.FindByIDs(ctx, ids)
}

// FindVideosByIDs resolves a batch of video ids; deleted videos are absent.
func (c *Catalog) FindVideosByIDs(ctx context.Context, ids []string) (map[string]models.Video, error) {
	return c.videos.FindByIDs(ctx, ids)
}

// WatchHistory returns the account's watched video ids oldest first.
func (c *Catalog) WatchHistory(ctx context.Context, accountID string) ([]string, error) {
	return c.history.List(ctx, accountID)
}
