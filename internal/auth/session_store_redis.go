package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps refresh sessions in Redis with native key expiry.
//
// Each session lives under "<prefix>session:<token>" and every user has a set
// "<prefix>user:<id>" listing their tokens so logout can revoke them together.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisSessionStore constructs a store over client. prefix namespaces the keys.
func NewRedisSessionStore(client redis.UniversalClient, prefix string) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisSessionStore) sessionKey(token string) string {
	return s.prefix + "session:" + token
}

func (s *RedisSessionStore) userKey(userID string) string {
	return s.prefix + "user:" + userID
}

// Save stores the session until its expiry.
func (s *RedisSessionStore) Save(ctx context.Context, session Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrRefreshTokenExpired
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(session.RefreshToken), payload, ttl)
		pipe.SAdd(ctx, s.userKey(session.UserID), session.RefreshToken)
		pipe.Expire(ctx, s.userKey(session.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

// Find loads a session by refresh token.
func (s *RedisSessionStore) Find(ctx context.Context, refreshToken string) (Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(refreshToken)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("redis get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// Delete removes a session. Only the caller whose delete removes the key succeeds.
func (s *RedisSessionStore) Delete(ctx context.Context, refreshToken string) error {
	session, err := s.Find(ctx, refreshToken)
	if err != nil {
		return err
	}

	var deleted *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.sessionKey(refreshToken))
		pipe.SRem(ctx, s.userKey(session.UserID), refreshToken)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	if deleted.Val() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteByUser removes every session issued to userID.
func (s *RedisSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	tokens, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis list user sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.sessionKey(token))
	}
	keys = append(keys, s.userKey(userID))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete user sessions: %w", err)
	}
	return nil
}

var _ SessionStore = (*RedisSessionStore)(nil)
