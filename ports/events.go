package ports

import (
	"context"

	"github.com/layer-3/walletauth/core"
)

// EventPublisher publishes events to notify other services
type EventPublisher interface {
	PublishSessionCreated(ctx context.Context, user *core.User, tokenID string) error
	PublishSessionRevoked(ctx context.Context, address string, tokenID string) error
	PublishAccountLinked(ctx context.Context, account *core.LinkedAccount) error
	PublishAccountUnlinked(ctx context.Context, userID string) error
}
