package repositories

import (
	"context"
	"time"

	"github.com/tubeline/backend/internal/models"
)

// AccountRepository defines the data access contract for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByHandle(ctx context.Context, handle string) (models.Account, error)
	FindByHandleOrEmail(ctx context.Context, login string) (models.Account, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Account, error)
	UpdateProfile(ctx context.Context, id, fullName, email string, updatedAt time.Time) (models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	UpdateAvatar(ctx context.Context, id, url, key string, updatedAt time.Time) error
	UpdateCoverImage(ctx context.Context, id, url, key string, updatedAt time.Time) error
}
