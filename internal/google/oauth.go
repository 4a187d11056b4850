package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Config holds the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Validate reports missing client settings.
func (c Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if c.RedirectURL == "" {
		missing = append(missing, "redirect url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("google oauth: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// OAuth performs the consent, exchange and refresh steps against Google.
type OAuth struct {
	conf *oauth2.Config

	// base is shared by every authenticated client so idle connections to
	// Google are pooled across turns.
	base *http.Transport
}

// NewOAuth creates an OAuth helper. DefaultOAuthScopes is used when
// cfg.Scopes is empty.
func NewOAuth(cfg Config) *OAuth {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}
	return &OAuth{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		base: newBaseTransport(),
	}
}

// newBaseTransport returns the HTTP/1.1 transport used under the OAuth
// layer. HTTP/2 is disabled to avoid protocol errors seen with Google APIs.
func newBaseTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		ForceAttemptHTTP2:   false,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// AuthURL returns the consent URL for state. Offline access with forced
// consent makes Google return a refresh token on every grant.
func (o *OAuth) AuthURL(state string) string {
	return o.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens.
func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := o.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return token, nil
}

// TokenSource returns a refreshing token source for a stored refresh token.
func (o *OAuth) TokenSource(ctx context.Context, refreshToken string) oauth2.TokenSource {
	return o.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
}

// HTTPClient returns an authenticated client for refreshToken. All clients
// share one base transport.
func (o *OAuth) HTTPClient(ctx context.Context, refreshToken string) (*http.Client, error) {
	if refreshToken == "" {
		return nil, errors.New("no refresh token")
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: o.TokenSource(ctx, refreshToken),
			Base:   o.base,
		},
	}, nil
}

// CloseIdleConnections releases pooled connections to Google.
func (o *OAuth) CloseIdleConnections() {
	o.base.CloseIdleConnections()
}

// ExchangeFailure describes why Google rejected a code exchange.
type ExchangeFailure struct {
	StatusCode  int
	Code        string
	Description string
}

// DescribeExchangeError extracts the upstream status and OAuth error fields
// from an Exchange error. Errors that did not come from the token endpoint
// map to status 500 with empty fields.
func DescribeExchangeError(err error) ExchangeFailure {
	failure := ExchangeFailure{StatusCode: http.StatusInternalServerError}

	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return failure
	}
	if re.Response != nil && re.Response.StatusCode != 0 {
		failure.StatusCode = re.Response.StatusCode
	}
	failure.Code = re.ErrorCode
	failure.Description = re.ErrorDescription
	return failure
}
