package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/layer-3/walletauth/ports"
	"go.uber.org/zap"
)

// DefaultChallengeTTL is how long a sign-in challenge can be answered
const DefaultChallengeTTL = 60 * time.Second

// SignInResult is the outcome of a successful sign-in
type SignInResult struct {
	User    *core.User
	Token   string
	Session *core.Session
}

// AuthService handles the wallet sign-in protocol
type AuthService struct {
	store    ports.ChallengeStore
	verifier ports.SignatureVerifier
	users    ports.UserDirectory
	sessions *SessionIssuer
	eventPub ports.EventPublisher
	logger   *zap.Logger

	appName      string
	challengeTTL time.Duration
	now          func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	store ports.ChallengeStore,
	verifier ports.SignatureVerifier,
	users ports.UserDirectory,
	sessions *SessionIssuer,
	eventPub ports.EventPublisher,
	logger *zap.Logger,
	appName string,
) *AuthService {
	return &AuthService{
		store:        store,
		verifier:     verifier,
		users:        users,
		sessions:     sessions,
		eventPub:     eventPub,
		logger:       logger,
		appName:      appName,
		challengeTTL: DefaultChallengeTTL,
		now:          time.Now,
	}
}

// RequestChallenge creates the message address must sign, replacing any
// outstanding one.
func (s *AuthService) RequestChallenge(ctx context.Context, address string) (string, error) {
	addr, err := eth.NormalizeAddress(address)
	if err != nil {
		return "", err
	}

	message := s.verifier.EncodeMessage(challengeText(s.appName, addr.Hex(), s.now()))
	if err := s.store.Put(ctx, challengeKey(addr.Hex()), message, s.challengeTTL); err != nil {
		return "", fmt.Errorf("failed to store challenge: %w", err)
	}

	return message, nil
}

// CompleteSignIn checks signature against the outstanding challenge and opens a
// session. The challenge is consumed only once the signature is valid.
func (s *AuthService) CompleteSignIn(ctx context.Context, address, signature string) (*SignInResult, error) {
	if address == "" || signature == "" {
		return nil, fmt.Errorf("address and signature are required: %w", core.ErrInvalidInput)
	}

	addr, err := eth.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	key := challengeKey(addr.Hex())

	message, err := s.store.Peek(ctx, key)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	if err := s.verifier.Verify(addr.Hex(), message, signature); err != nil {
		return nil, err
	}

	consumed, err := s.store.ConsumeIf(ctx, key, message)
	if err != nil {
		return nil, fmt.Errorf("failed to consume challenge: %w", err)
	}
	if !consumed {
		return nil, core.ErrChallengeNotFound
	}

	user, err := s.users.CreateIfAbsent(ctx, addr.Hex(), addr.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	token, session, err := s.sessions.Issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.eventPub.PublishSessionCreated(ctx, user, session.ID); err != nil {
		s.logger.Warn("failed to publish session created event", zap.String("address", user.Address), zap.Error(err))
	}

	return &SignInResult{User: user, Token: token, Session: session}, nil
}

// CurrentSession validates a session token
func (s *AuthService) CurrentSession(ctx context.Context, token string) (*core.Session, error) {
	return s.sessions.Validate(ctx, token)
}

// EndSession revokes the session carried by token when revocation is enabled.
// Tokens that no longer validate need no revocation.
func (s *AuthService) EndSession(ctx context.Context, token string) error {
	session, err := s.sessions.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			return nil
		}
		return err
	}

	if !s.sessions.RevocationEnabled() {
		return nil
	}

	if err := s.sessions.Revoke(ctx, session); err != nil {
		return err
	}

	if err := s.eventPub.PublishSessionRevoked(ctx, session.User.Address, session.ID); err != nil {
		s.logger.Warn("failed to publish session revoked event", zap.String("address", session.User.Address), zap.Error(err))
	}

	return nil
}

// SessionTTL returns the lifetime of issued sessions
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessions.TTL()
}
