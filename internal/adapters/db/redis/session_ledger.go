package redis

import (
	"context"
	"errors"
	"time"

	customErrors "github.com/ecomanager/ecomanager/internal/domain/auth/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionLedger holds one slot per user: the hash of the jti of the only
// refresh token currently recognized for that account. SET overwrites the
// slot, which is the whole rotation mechanism; the key TTL tracks the
// refresh token's own expiry so abandoned sessions clean themselves up.
type SessionLedger struct {
	client *redis.Client
}

func NewSessionLedger(client *redis.Client) *SessionLedger {
	return &SessionLedger{client: client}
}

func sessionKey(userID uuid.UUID) string {
	return "session:" + userID.String()
}

func (l *SessionLedger) Put(ctx context.Context, userID uuid.UUID, jtiHash string, ttl time.Duration) error {
	if err := l.client.Set(ctx, sessionKey(userID), jtiHash, safeTTL(ttl)).Err(); err != nil {
		return wrapRedisErr(err, "Put")
	}
	return nil
}

func (l *SessionLedger) Current(ctx context.Context, userID uuid.UUID) (string, error) {
	val, err := l.client.Get(ctx, sessionKey(userID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// no slot: logged out, expired, or never logged in
		return "", customErrors.ErrRefreshRevoked
	case err != nil:
		return "", wrapRedisErr(err, "Current")
	}
	return val, nil
}

func (l *SessionLedger) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := l.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return wrapRedisErr(err, "Clear")
	}
	return nil
}

func safeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		// minimal TTL so the key still disappears
		return time.Minute
	}
	return ttl
}

func wrapRedisErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return customErrors.WrapUnavailable(err, op)
	}
	return customErrors.WrapInternal(err, op)
}
