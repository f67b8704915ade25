package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tubeline/backend/internal/db"
	"github.com/tubeline/backend/internal/models"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// FindEdge loads the edge between subscriber and channel.
func (r *PostgresSubscriptionRepository) FindEdge(ctx context.Context, subscriberID, channelID string) (models.SubscriptionEdge, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.SubscriptionEdge{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var edge models.SubscriptionEdge
	err = conn.QueryRow(ctx, `
        SELECT subscriber_id, channel_id, created_at
        FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID).Scan(&edge.SubscriberID, &edge.ChannelID, &edge.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SubscriptionEdge{}, ErrNotFound
		}
		return models.SubscriptionEdge{}, fmt.Errorf("select subscription: %w", err)
	}
	return edge, nil
}

// CountByChannel returns the number of subscribers of a channel.
func (r *PostgresSubscriptionRepository) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountBySubscriber returns the number of channels an account subscribes to.
func (r *PostgresSubscriptionRepository) CountBySubscriber(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (r *PostgresSubscriptionRepository) count(ctx context.Context, query, id string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int64
	if err := conn.QueryRow(ctx, query, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}

// SubscriberIDs lists the ids of every subscriber of a channel.
func (r *PostgresSubscriptionRepository) SubscriberIDs(ctx context.Context, channelID string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT subscriber_id FROM subscriptions WHERE channel_id = $1`, channelID)
	if err != nil {
		return nil, fmt.Errorf("query subscriber ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscriber id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriber ids: %w", err)
	}
	return ids, nil
}

// Create inserts an edge. An existing edge yields ErrConflict and an unknown
// account yields ErrNotFound.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, edge models.SubscriptionEdge) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        INSERT INTO subscriptions (subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3)
    `, edge.SubscriberID, edge.ChannelID, edge.CreatedAt); err != nil {
		return writeError("insert subscription", err)
	}
	return nil
}

// Delete removes the edge between subscriber and channel.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSubscribers returns the accounts subscribed to a channel, newest first.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string) ([]models.Account, error) {
	return r.listAccounts(ctx, "subscribers", `
        SELECT `+prefixed("a", accountColumns)+`
        FROM subscriptions s
        JOIN accounts a ON a.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
}

// ListSubscribedChannels returns the channels an account subscribes to, newest first.
func (r *PostgresSubscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.Account, error) {
	return r.listAccounts(ctx, "subscribed channels", `
        SELECT `+prefixed("a", accountColumns)+`
        FROM subscriptions s
        JOIN accounts a ON a.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) listAccounts(ctx context.Context, op, query, id string) ([]models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", op, err)
	}
	return collectAccounts(rows, op)
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
