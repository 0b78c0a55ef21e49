package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// DefaultSessionTTL is the lifetime of a session credential
const DefaultSessionTTL = 24 * time.Hour

// SessionIssuer mints and validates session credentials
type SessionIssuer struct {
	tokenizer ports.Tokenizer
	denylist  ports.Denylist
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewSessionIssuer creates an issuer. A nil denylist disables revocation.
func NewSessionIssuer(tokenizer ports.Tokenizer, issuer string, denylist ports.Denylist) *SessionIssuer {
	return &SessionIssuer{
		tokenizer: tokenizer,
		denylist:  denylist,
		issuer:    issuer,
		ttl:       DefaultSessionTTL,
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	s.now = now
	return s
}

// TTL returns the session lifetime
func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue mints a token for a snapshot of user
func (s *SessionIssuer) Issue(user *core.User) (string, *core.Session, error) {
	now := s.now().UTC().Truncate(time.Second)
	session := &core.Session{
		ID:        uuid.New().String(),
		User:      *user,
		Issuer:    s.issuer,
		IssuedAt:  now,
		NotBefore: now,
		ExpiresAt: now.Add(s.ttl),
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create session token: %w", err)
	}

	return token, session, nil
}

// Validate returns the session carried by token. Bad signatures, a foreign issuer,
// a time outside [nbf, exp] and revoked ids all yield core.ErrUnauthorized.
func (s *SessionIssuer) Validate(ctx context.Context, token string) (*core.Session, error) {
	if token == "" {
		return nil, core.ErrUnauthorized
	}

	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrUnauthorized)
	}

	if session.Issuer != s.issuer {
		return nil, fmt.Errorf("unexpected issuer %q: %w", session.Issuer, core.ErrUnauthorized)
	}

	now := s.now()
	if now.Before(session.NotBefore) || now.After(session.ExpiresAt) {
		return nil, fmt.Errorf("session outside validity window: %w", core.ErrUnauthorized)
	}

	if s.denylist != nil && session.ID != "" {
		revoked, err := s.denylist.IsTokenInvalidated(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check session revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("session revoked: %w", core.ErrUnauthorized)
		}
	}

	return session, nil
}

// Revoke denylists the session id until it would have expired anyway.
// It is a no-op when revocation is disabled.
func (s *SessionIssuer) Revoke(ctx context.Context, session *core.Session) error {
	if s.denylist == nil || session.ID == "" {
		return nil
	}

	// exp itself is still valid
	remaining := session.ExpiresAt.Sub(s.now()) + time.Second
	if remaining <= 0 {
		return nil
	}

	if err := s.denylist.InvalidateToken(ctx, session.ID, remaining); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// RevocationEnabled reports whether Revoke has any effect
func (s *SessionIssuer) RevocationEnabled() bool {
	return s.denylist != nil
}
