package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

const (
	TopicSessionCreated  = "walletauth.session.created"
	TopicSessionRevoked  = "walletauth.session.revoked"
	TopicAccountLinked   = "walletauth.github.linked"
	TopicAccountUnlinked = "walletauth.github.unlinked"
)

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// SessionEvent is emitted when a session is created or revoked
type SessionEvent struct {
	Address    string    `json:"address"`
	InternalID string    `json:"internal_id,omitempty"`
	TokenID    string    `json:"token_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AccountEvent is emitted when a third-party account is linked or unlinked
type AccountEvent struct {
	UserID     string    `json:"user_id"`
	ProviderID string    `json:"provider_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishSessionCreated(ctx context.Context, user *core.User, tokenID string) error {
	return p.publish(ctx, TopicSessionCreated, SessionEvent{
		Address:    user.Address,
		InternalID: user.InternalID,
		TokenID:    tokenID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *WatermillPublisher) PublishSessionRevoked(ctx context.Context, address string, tokenID string) error {
	return p.publish(ctx, TopicSessionRevoked, SessionEvent{
		Address:    address,
		TokenID:    tokenID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *WatermillPublisher) PublishAccountLinked(ctx context.Context, account *core.LinkedAccount) error {
	return p.publish(ctx, TopicAccountLinked, AccountEvent{
		UserID:     account.UserID,
		ProviderID: account.ProviderID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *WatermillPublisher) PublishAccountUnlinked(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicAccountUnlinked, AccountEvent{
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
