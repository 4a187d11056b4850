package google

import (
	"context"
	"net/http"
)

// TokenProvider turns a stored credential into an authenticated HTTP client.
// *OAuth implements it; tests substitute a static client.
type TokenProvider interface {
	HTTPClient(ctx context.Context, credential string) (*http.Client, error)
}

// StaticTokenProvider hands out the same client for every credential.
type StaticTokenProvider struct {
	Client *http.Client
}

// HTTPClient returns p.Client, or http.DefaultClient when unset.
func (p StaticTokenProvider) HTTPClient(context.Context, string) (*http.Client, error) {
	if p.Client == nil {
		return http.DefaultClient, nil
	}
	return p.Client, nil
}

var (
	_ TokenProvider = (*OAuth)(nil)
	_ TokenProvider = StaticTokenProvider{}
)
