package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/layer-3/walletauth/ports"
	"github.com/layer-3/walletauth/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopPublisher struct{}

func (nopPublisher) PublishSessionCreated(context.Context, *core.User, string) error  { return nil }
func (nopPublisher) PublishSessionRevoked(context.Context, string, string) error      { return nil }
func (nopPublisher) PublishAccountLinked(context.Context, *core.LinkedAccount) error { return nil }
func (nopPublisher) PublishAccountUnlinked(context.Context, string) error             { return nil }

type stubProvider struct {
	mu         sync.Mutex
	profileErr error
	reposErr   error
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://github.com/login/oauth/authorize?" + url.Values{"state": {state}}.Encode()
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (*core.ProviderToken, error) {
	if code == "bad" {
		return nil, core.ErrUpstreamUnavailable
	}
	return &core.ProviderToken{AccessToken: "gho_" + code}, nil
}

func (p *stubProvider) Profile(ctx context.Context, accessToken string) (*core.ProviderProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profileErr != nil {
		return nil, p.profileErr
	}
	return &core.ProviderProfile{ID: "583231", Raw: json.RawMessage(`{"login":"octocat","id":583231}`)}, nil
}

func (p *stubProvider) Repos(ctx context.Context, accessToken string) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reposErr != nil {
		return nil, p.reposErr
	}
	return json.RawMessage(`[{"name":"Hello-World"}]`), nil
}

func (p *stubProvider) fail(profileErr, reposErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profileErr = profileErr
	p.reposErr = reposErr
}

type testServer struct {
	router   *gin.Engine
	store    *store.MemoryStore
	accounts *store.MemoryAccountStore
	provider *stubProvider
	codec    eth.MessageCodec
}

func newTestServer(t *testing.T, revocation bool) *testServer {
	t.Helper()

	codec, err := eth.NewMessageCodec("text")
	require.NoError(t, err)
	tok, err := tokenizer.NewJWTTokenizer("test-secret")
	require.NoError(t, err)

	memory := store.NewMemoryStore()
	accounts := store.NewMemoryAccountStore()
	provider := &stubProvider{}
	logger := zap.NewNop()

	var denylist ports.Denylist
	if revocation {
		denylist = memory
	}

	authService := service.NewAuthService(
		memory,
		eth.NewVerifier(codec),
		store.NewMemoryUserDirectory(),
		service.NewSessionIssuer(tok, "walletauth-test", denylist),
		nopPublisher{},
		logger,
		"ZakoBox/ZakoPako",
	)
	linkService := service.NewLinkService(memory, accounts, provider, nopPublisher{}, logger)

	return &testServer{
		router:   SetupRouter(authService, linkService, logger, Options{}),
		store:    memory,
		accounts: accounts,
		provider: provider,
		codec:    codec,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
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

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// requestMessage fetches a challenge for w and returns it
func (s *testServer) requestMessage(t *testing.T, w wallet) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/session-messages?address="+w.address, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["data"].(string)
}

// signIn runs the full challenge flow and returns the session cookie
func (s *testServer) signIn(t *testing.T, w wallet) *http.Cookie {
	t.Helper()
	message := s.requestMessage(t, w)
	rec := s.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{
		"address":   w.address,
		"signature": w.sign(t, s.codec, message),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cookie := findCookie(rec, sessionCookie)
	require.NotNil(t, cookie)
	return cookie
}
