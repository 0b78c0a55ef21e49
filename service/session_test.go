package service

import (
	"context"
	"testing"
	"time"

	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	return c.now
}

func testUser() *core.User {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &core.User{
		Address:     "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		DisplayName: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		InternalID:  "0b8f7c2e-6a4e-4c1a-9a64-2d6b3f7c0e11",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestSessionIssueValidate(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2025, 3, 1, 12, 0, 0, 500, time.UTC)}
	issuer := newSessionIssuer(t, nil).WithClock(clock.Now)

	token, session, err := issuer.Issue(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), session.IssuedAt)
	assert.Equal(t, session.IssuedAt, session.NotBefore)
	assert.Equal(t, session.IssuedAt.Add(24*time.Hour), session.ExpiresAt)

	clock.now = clock.now.Add(time.Hour)
	got, err := issuer.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, testUser().Address, got.User.Address)
	assert.Equal(t, testUser().InternalID, got.User.InternalID)
	assert.Equal(t, testIssuer, got.Issuer)
}

func TestSessionValidityBounds(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &stepClock{now: start}
	issuer := newSessionIssuer(t, nil).WithClock(clock.Now)

	token, session, err := issuer.Issue(testUser())
	require.NoError(t, err)

	tests := []struct {
		name  string
		at    time.Time
		valid bool
	}{
		{"before nbf", start.Add(-time.Second), false},
		{"at nbf", start, true},
		{"at exp", session.ExpiresAt, true},
		{"after exp", session.ExpiresAt.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = tt.at
			_, err := issuer.Validate(ctx, token)
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, core.ErrUnauthorized)
			}
		})
	}
}

func TestSessionValidateRejects(t *testing.T) {
	ctx := context.Background()
	issuer := newSessionIssuer(t, nil)

	other, err := tokenizer.NewJWTTokenizer("test-secret")
	require.NoError(t, err)
	foreign, _, err := NewSessionIssuer(other, "someone-else", nil).Issue(testUser())
	require.NoError(t, err)

	otherKey, err := tokenizer.NewJWTTokenizer("another-secret")
	require.NoError(t, err)
	forged, _, err := NewSessionIssuer(otherKey, testIssuer, nil).Issue(testUser())
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"foreign issuer": foreign,
		"wrong secret":   forged,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Validate(ctx, token)
			require.ErrorIs(t, err, core.ErrUnauthorized)
		})
	}
}

func TestSessionRevoke(t *testing.T) {
	ctx := context.Background()
	issuer := newSessionIssuer(t, store.NewMemoryStore())
	require.True(t, issuer.RevocationEnabled())

	token, session, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = issuer.Validate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, issuer.Revoke(ctx, session))

	_, err = issuer.Validate(ctx, token)
	require.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestSessionRevokeDisabled(t *testing.T) {
	ctx := context.Background()
	issuer := newSessionIssuer(t, nil)
	require.False(t, issuer.RevocationEnabled())

	token, session, err := issuer.Issue(testUser())
	require.NoError(t, err)
	require.NoError(t, issuer.Revoke(ctx, session))

	_, err = issuer.Validate(ctx, token)
	require.NoError(t, err)
}
