// Package provider talks to the third-party identity/content platform: it builds the
// consent-screen redirect, exchanges authorization codes, resolves the member behind an
// access token and publishes posts on the member's behalf.
//
// Every call is made exactly once. Codes are single use and posts have no idempotency
// key, so failures are reported to the caller rather than retried.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-oauth-broker/internal/config"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"golang.org/x/oauth2"
)

const defaultTimeout = 10 * time.Second

// Options configures a Client. Endpoints are absolute URLs.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
	PostURL     string

	// Timeout bounds each downstream call. Zero means defaultTimeout.
	Timeout time.Duration
	// HTTPClient is the base client for all calls. Nil means a new client with Timeout.
	HTTPClient *http.Client
}

// OptionsFromConfig maps the broker configuration to provider options.
func OptionsFromConfig(c config.OAuthConfig) Options {
	return Options{
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		RedirectURI:  c.GetRedirectURI(),
		Scopes:       c.GetScopes(),
		AuthURL:      c.GetAuthURL(),
		TokenURL:     c.GetTokenURL(),
		UserInfoURL:  c.GetUserInfoURL(),
		PostURL:      c.GetPostURL(),
		Timeout:      c.GetProviderTimeout(),
	}
}

// Client is the explicitly constructed provider client shared by the handlers.
type Client struct {
	oauth      oauth2.Config
	oidc       *oidc.Provider
	postURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func New(ctx context.Context, opts Options) (*Client, error) {
	req := oauthmodel.AuthorizationRequest{ClientID: opts.ClientID, RedirectURI: opts.RedirectURI}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	providerConfig := oidc.ProviderConfig{
		AuthURL:     opts.AuthURL,
		TokenURL:    opts.TokenURL,
		UserInfoURL: opts.UserInfoURL,
	}
	oidcProvider := providerConfig.NewProvider(oidc.ClientContext(ctx, httpClient))

	endpoint := oidcProvider.Endpoint()
	// Auto detection retries the exchange with the other auth style on failure.
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &Client{
		oauth: oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       append([]string(nil), opts.Scopes...),
			Endpoint:     endpoint,
		},
		oidc:       oidcProvider,
		postURL:    opts.PostURL,
		timeout:    timeout,
		httpClient: httpClient,
	}, nil
}

// AuthorizationURL builds the consent-screen URL for this client with the given state.
func (c *Client) AuthorizationURL(state string) (string, error) {
	return BuildAuthorizationURL(c.oauth.Endpoint.AuthURL, oauthmodel.AuthorizationRequest{
		ClientID:    c.oauth.ClientID,
		RedirectURI: c.oauth.RedirectURL,
		Scopes:      c.oauth.Scopes,
		State:       state,
	})
}

// callContext bounds a single downstream call and routes it through the configured client.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), cancel
}
