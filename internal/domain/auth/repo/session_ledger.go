package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionLedger tracks the single currently-valid refresh token per user.
// Put overwrites any previous entry, which is what makes rotation
// invalidate the prior session's refresh token.
type SessionLedger interface {
	Put(ctx context.Context, userID uuid.UUID, jtiHash string, ttl time.Duration) error

	// Current returns the stored jti hash, or ErrRefreshRevoked when no
	// entry exists (logged out, expired, or never issued).
	Current(ctx context.Context, userID uuid.UUID) (string, error)

	// Clear is idempotent.
	Clear(ctx context.Context, userID uuid.UUID) error
}
