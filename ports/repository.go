package ports

import (
	"context"

	"github.com/layer-3/walletauth/core"
)

// UserDirectory persists wallet identities keyed by checksummed address
type UserDirectory interface {
	FindByAddress(ctx context.Context, address string) (*core.User, error)

	// CreateIfAbsent returns the existing user or creates one; concurrent callers
	// for the same address observe a single row.
	CreateIfAbsent(ctx context.Context, address, displayName string) (*core.User, error)
}

// AccountLinkStore persists third-party accounts linked to users
type AccountLinkStore interface {
	// Upsert inserts or, on conflict by user id, replaces the provider id and tokens.
	// A provider id already linked to another user yields core.ErrConflict.
	Upsert(ctx context.Context, account *core.LinkedAccount) (*core.LinkedAccount, error)
	FindByUserID(ctx context.Context, userID string) (*core.LinkedAccount, error)
	DeleteByUserID(ctx context.Context, userID string) error
}
