package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{ClientID: "id", ClientSecret: "s", RedirectURL: "http://x/cb"}.Validate())

	err := Config{ClientID: "id"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client secret")
	assert.Contains(t, err.Error(), "redirect url")
}

func TestOAuth_AuthURL(t *testing.T) {
	o := NewOAuth(Config{
		ClientID:     "client-123",
		ClientSecret: "secret",
		RedirectURL:  "https://bot.example.com/oauth2callback",
	})

	raw := o.AuthURL("whatsapp:+56912345678")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "whatsapp:+56912345678", q.Get("state"))
	assert.Equal(t, "https://www.googleapis.com/auth/calendar", q.Get("scope"))
	assert.Equal(t, "https://bot.example.com/oauth2callback", q.Get("redirect_uri"))
}

func newTokenServer(t *testing.T, handler http.HandlerFunc) *OAuth {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o := NewOAuth(Config{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"})
	o.conf.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return o
}

func TestOAuth_Exchange(t *testing.T) {
	o := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`)
	})

	token, err := o.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "rt", token.RefreshToken)
}

func TestOAuth_ExchangeFailure(t *testing.T) {
	o := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Bad Request"}`)
	})

	_, err := o.Exchange(context.Background(), "stale")
	require.Error(t, err)

	failure := DescribeExchangeError(err)
	assert.Equal(t, http.StatusBadRequest, failure.StatusCode)
	assert.Equal(t, "invalid_grant", failure.Code)
	assert.Equal(t, "Bad Request", failure.Description)
}

func TestDescribeExchangeError_NonOAuth(t *testing.T) {
	failure := DescribeExchangeError(errors.New("dial tcp: refused"))
	assert.Equal(t, http.StatusInternalServerError, failure.StatusCode)
	assert.Empty(t, failure.Code)
	assert.Empty(t, failure.Description)
}

func TestOAuth_HTTPClient(t *testing.T) {
	o := NewOAuth(Config{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"})

	_, err := o.HTTPClient(context.Background(), "")
	assert.Error(t, err)

	client, err := o.HTTPClient(context.Background(), "refresh")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestOAuth_HTTPClientSharesTransport(t *testing.T) {
	o := NewOAuth(Config{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"})

	first, err := o.HTTPClient(context.Background(), "refresh-a")
	require.NoError(t, err)
	second, err := o.HTTPClient(context.Background(), "refresh-b")
	require.NoError(t, err)

	firstTransport, ok := first.Transport.(*oauth2.Transport)
	require.True(t, ok)
	secondTransport, ok := second.Transport.(*oauth2.Transport)
	require.True(t, ok)

	assert.Same(t, o.base, firstTransport.Base)
	assert.Same(t, firstTransport.Base, secondTransport.Base)
	assert.NotZero(t, o.base.IdleConnTimeout)

	o.CloseIdleConnections()
}

func TestStaticTokenProvider(t *testing.T) {
	client, err := StaticTokenProvider{}.HTTPClient(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, http.DefaultClient, client)

	custom := &http.Client{}
	client, err = StaticTokenProvider{Client: custom}.HTTPClient(context.Background(), "x")
	require.NoError(t, err)
	assert.Same(t, custom, client)
}
