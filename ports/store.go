package ports

import (
	"context"
	"time"
)

// ChallengeStore holds short-lived single-use values: sign-in challenges and OAuth link states.
// Missing or expired keys yield core.ErrNotFound; backend failures yield core.ErrStoreUnavailable.
type ChallengeStore interface {
	// Put stores value under key, replacing any previous value, and expires it after ttl
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Peek reads a value without consuming it
	Peek(ctx context.Context, key string) (string, error)

	// GetAndConsume atomically reads and deletes a value
	GetAndConsume(ctx context.Context, key string) (string, error)

	// ConsumeIf atomically deletes key only while it still holds value
	ConsumeIf(ctx context.Context, key, value string) (bool, error)

	// Delete removes key unconditionally
	Delete(ctx context.Context, key string) error
}

// Denylist records revoked session token ids until their natural expiry
type Denylist interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
