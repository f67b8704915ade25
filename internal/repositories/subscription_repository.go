package repositories

import (
	"context"

	"github.com/tubeline/backend/internal/models"
)

// SubscriptionRepository reads and writes subscriber to channel edges.
type SubscriptionRepository interface {
	FindEdge(ctx context.Context, subscriberID, channelID string) (models.SubscriptionEdge, error)
	CountByChannel(ctx context.Context, channelID string) (int64, error)
	CountBySubscriber(ctx context.Context, subscriberID string) (int64, error)
	SubscriberIDs(ctx context.Context, channelID string) ([]string, error)
	Create(ctx context.Context, edge models.SubscriptionEdge) error
	Delete(ctx context.Context, subscriberID, channelID string) error
	ListSubscribers(ctx context.Context, channelID string) ([]models.Account, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.Account, error)
}
