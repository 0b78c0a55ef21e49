package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"go.uber.org/zap"
)

// DefaultLinkStateTTL bounds the OAuth round trip
const DefaultLinkStateTTL = time.Hour

// LinkService links third-party accounts to signed-in users
type LinkService struct {
	store    ports.ChallengeStore
	accounts ports.AccountLinkStore
	provider ports.OAuthProvider
	eventPub ports.EventPublisher
	logger   *zap.Logger

	stateTTL time.Duration
}

func NewLinkService(
	store ports.ChallengeStore,
	accounts ports.AccountLinkStore,
	provider ports.OAuthProvider,
	eventPub ports.EventPublisher,
	logger *zap.Logger,
) *LinkService {
	return &LinkService{
		store:    store,
		accounts: accounts,
		provider: provider,
		eventPub: eventPub,
		logger:   logger,
		stateTTL: DefaultLinkStateTTL,
	}
}

// StateTTL returns how long a link state stays redeemable
func (s *LinkService) StateTTL() time.Duration {
	return s.stateTTL
}

// StartLink records a fresh state for the session's user and returns it with
// the provider URL to redirect to.
func (s *LinkService) StartLink(ctx context.Context, session *core.Session) (string, string, error) {
	if session == nil || session.User.InternalID == "" {
		return "", "", core.ErrUnauthorized
	}

	state := uuid.New().String()
	if err := s.store.Put(ctx, linkStateKey(state), session.User.InternalID, s.stateTTL); err != nil {
		return "", "", fmt.Errorf("failed to store link state: %w", err)
	}

	return state, s.provider.AuthCodeURL(state), nil
}

// CompleteLink redeems state and code for a linked account
func (s *LinkService) CompleteLink(ctx context.Context, state, code string) (*core.LinkedAccount, error) {
	if state == "" || code == "" {
		return nil, fmt.Errorf("state and code are required: %w", core.ErrUnauthorized)
	}
	key := linkStateKey(state)

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to drop link state", zap.Error(delErr))
		}
		return nil, err
	}

	userID, err := s.store.GetAndConsume(ctx, key)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("unknown link state: %w", core.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load link state: %w", err)
	}

	profile, err := s.provider.Profile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.Upsert(ctx, &core.LinkedAccount{
		UserID:       userID,
		ProviderID:   profile.ID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save linked account: %w", err)
	}

	if err := s.eventPub.PublishAccountLinked(ctx, account); err != nil {
		s.logger.Warn("failed to publish account linked event", zap.String("user_id", userID), zap.Error(err))
	}

	return account, nil
}

// Connection returns the provider profile of the user's linked account
func (s *LinkService) Connection(ctx context.Context, userID string) (json.RawMessage, error) {
	return s.fetch(ctx, userID, func(accessToken string) (json.RawMessage, error) {
		profile, err := s.provider.Profile(ctx, accessToken)
		if err != nil {
			return nil, err
		}
		return profile.Raw, nil
	})
}

// Repositories returns the repositories visible to the user's linked account
func (s *LinkService) Repositories(ctx context.Context, userID string) (json.RawMessage, error) {
	return s.fetch(ctx, userID, func(accessToken string) (json.RawMessage, error) {
		return s.provider.Repos(ctx, accessToken)
	})
}

// Unlink removes the user's linked account
func (s *LinkService) Unlink(ctx context.Context, userID string) error {
	if err := s.accounts.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete linked account: %w", err)
	}

	if err := s.eventPub.PublishAccountUnlinked(ctx, userID); err != nil {
		s.logger.Warn("failed to publish account unlinked event", zap.String("user_id", userID), zap.Error(err))
	}

	return nil
}

// fetch calls the provider with the stored token. A token the provider refuses
// is unlinked before the error is returned.
func (s *LinkService) fetch(ctx context.Context, userID string, call func(accessToken string) (json.RawMessage, error)) (json.RawMessage, error) {
	account, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := call(account.AccessToken)
	if errors.Is(err, core.ErrProviderRejected) {
		if unlinkErr := s.Unlink(ctx, userID); unlinkErr != nil {
			s.logger.Error("failed to unlink rejected account", zap.String("user_id", userID), zap.Error(unlinkErr))
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	return data, nil
}
