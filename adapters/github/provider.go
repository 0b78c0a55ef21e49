package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

const (
	DefaultAPIURL  = "https://api.github.com"
	DefaultTimeout = 10 * time.Second
)

// Scopes requested when linking an account
var Scopes = []string{"read:user", "public_repo", "user:email"}

var _ ports.OAuthProvider = (*Provider)(nil)

// Config configures the GitHub provider. Zero Endpoint and APIURL select github.com.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration

	Endpoint   oauth2.Endpoint
	APIURL     string
	HTTPClient *http.Client
}

// Provider links GitHub accounts through the OAuth web flow
type Provider struct {
	oauth   oauth2.Config
	apiURL  string
	client  *http.Client
	timeout time.Duration
}

func NewProvider(cfg Config) *Provider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = githuboauth.Endpoint
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Provider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		apiURL:  strings.TrimRight(apiURL, "/"),
		client:  client,
		timeout: timeout,
	}
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *Provider) Exchange(ctx context.Context, code string) (*core.ProviderToken, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, p.client), code)
	if err != nil {
		return nil, fmt.Errorf("github code exchange: %w: %v", core.ErrUpstreamUnavailable, err)
	}

	return &core.ProviderToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}

func (p *Provider) Profile(ctx context.Context, accessToken string) (*core.ProviderProfile, error) {
	body, err := p.get(ctx, "/user", accessToken)
	if err != nil {
		return nil, err
	}

	var user struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &user); err != nil || user.ID == 0 {
		return nil, fmt.Errorf("github user: %w: malformed response", core.ErrUpstreamUnavailable)
	}

	return &core.ProviderProfile{
		ID:  strconv.FormatInt(user.ID, 10),
		Raw: body,
	}, nil
}

func (p *Provider) Repos(ctx context.Context, accessToken string) (json.RawMessage, error) {
	body, err := p.get(ctx, "/user/repos", accessToken)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("github repos: %w: malformed response", core.ErrUpstreamUnavailable)
	}
	return body, nil
}

func (p *Provider) get(ctx context.Context, path, accessToken string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("github %s: %w: %v", path, core.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github %s: %w: %v", path, core.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("github %s: %w: %v", path, core.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("github %s: %w", path, core.ErrProviderRejected)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("github %s: %w: status %d", path, core.ErrUpstreamUnavailable, resp.StatusCode)
	}

	return body, nil
}
