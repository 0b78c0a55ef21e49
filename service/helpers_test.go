package service

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/layer-3/walletauth/ports"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testIssuer = "walletauth-test"

type recordedEvent struct {
	Kind string
	Key  string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) record(kind, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Kind: kind, Key: key})
	return p.err
}

func (p *recordingPublisher) PublishSessionCreated(ctx context.Context, user *core.User, tokenID string) error {
	return p.record("session.created", user.Address)
}

func (p *recordingPublisher) PublishSessionRevoked(ctx context.Context, address string, tokenID string) error {
	return p.record("session.revoked", address)
}

func (p *recordingPublisher) PublishAccountLinked(ctx context.Context, account *core.LinkedAccount) error {
	return p.record("github.linked", account.UserID)
}

func (p *recordingPublisher) PublishAccountUnlinked(ctx context.Context, userID string) error {
	return p.record("github.unlinked", userID)
}

func (p *recordingPublisher) Events() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

// countingStore counts calls reaching the wrapped store
type countingStore struct {
	ports.ChallengeStore
	mu    sync.Mutex
	calls int
}

func (s *countingStore) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *countingStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	s.count()
	return s.ChallengeStore.Put(ctx, key, value, ttl)
}

func (s *countingStore) Peek(ctx context.Context, key string) (string, error) {
	s.count()
	return s.ChallengeStore.Peek(ctx, key)
}

func (s *countingStore) GetAndConsume(ctx context.Context, key string) (string, error) {
	s.count()
	return s.ChallengeStore.GetAndConsume(ctx, key)
}

func (s *countingStore) ConsumeIf(ctx context.Context, key, value string) (bool, error) {
	s.count()
	return s.ChallengeStore.ConsumeIf(ctx, key, value)
}

func (s *countingStore) Delete(ctx context.Context, key string) error {
	s.count()
	return s.ChallengeStore.Delete(ctx, key)
}

type fakeProvider struct {
	mu          sync.Mutex
	exchangeErr error
	profileErr  error
	reposErr    error
	profileID   string
	exchanged   []string
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://github.example/login/oauth/authorize?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*core.ProviderToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanged = append(p.exchanged, code)
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &core.ProviderToken{AccessToken: "gho_" + code, RefreshToken: "ghr_" + code}, nil
}

func (p *fakeProvider) Profile(ctx context.Context, accessToken string) (*core.ProviderProfile, error) {
	if p.profileErr != nil {
		return nil, p.profileErr
	}
	raw, _ := json.Marshal(map[string]any{"id": p.profileID, "token": accessToken})
	return &core.ProviderProfile{ID: p.profileID, Raw: raw}, nil
}

func (p *fakeProvider) Repos(ctx context.Context, accessToken string) (json.RawMessage, error) {
	if p.reposErr != nil {
		return nil, p.reposErr
	}
	return json.RawMessage(`[{"name":"walletauth"}]`), nil
}

type wallet struct {
	key     *ecdsa.PrivateKey
	address string
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return wallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

func (w wallet) sign(t *testing.T, codec eth.MessageCodec, message string) string {
	t.Helper()
	payload, err := codec.Payload(message)
	require.NoError(t, err)
	signature, err := eth.SignPersonalMessage(w.key, payload)
	require.NoError(t, err)
	return signature
}

func newSessionIssuer(t *testing.T, denylist ports.Denylist) *SessionIssuer {
	t.Helper()
	tok, err := tokenizer.NewJWTTokenizer("test-secret")
	require.NoError(t, err)
	return NewSessionIssuer(tok, testIssuer, denylist)
}

type authFixture struct {
	service   *AuthService
	store     *countingStore
	memory    *store.MemoryStore
	users     *store.MemoryUserDirectory
	publisher *recordingPublisher
	codec     eth.MessageCodec
}

func newAuthFixture(t *testing.T, encoding string, revocation bool) *authFixture {
	t.Helper()
	codec, err := eth.NewMessageCodec(encoding)
	require.NoError(t, err)

	memory := store.NewMemoryStore()
	counting := &countingStore{ChallengeStore: memory}
	users := store.NewMemoryUserDirectory()
	publisher := &recordingPublisher{}

	var denylist ports.Denylist
	if revocation {
		denylist = memory
	}

	svc := NewAuthService(
		counting,
		eth.NewVerifier(codec),
		users,
		newSessionIssuer(t, denylist),
		publisher,
		zap.NewNop(),
		"ZakoBox/ZakoPako",
	)

	return &authFixture{
		service:   svc,
		store:     counting,
		memory:    memory,
		users:     users,
		publisher: publisher,
		codec:     codec,
	}
}
