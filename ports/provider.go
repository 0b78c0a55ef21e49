package ports

import (
	"context"
	"encoding/json"

	"github.com/layer-3/walletauth/core"
)

// OAuthProvider is the third-party identity provider used for account linking.
// A token refused by the provider yields core.ErrProviderRejected; transport
// failures and timeouts yield core.ErrUpstreamUnavailable.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*core.ProviderToken, error)
	Profile(ctx context.Context, accessToken string) (*core.ProviderProfile, error)
	Repos(ctx context.Context, accessToken string) (json.RawMessage, error)
}
