package provider

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"golang.org/x/oauth2"
)

// BuildAuthorizationURL returns the provider consent-screen URL for req.
//
// The result always carries response_type=code, client_id, the percent-encoded
// redirect_uri and the space delimited scope. state is included only when set. The
// function has no hidden inputs, so identical arguments give byte-identical URLs.
func BuildAuthorizationURL(authURL string, req oauthmodel.AuthorizationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrConfiguration, err)
	}
	u, err := url.Parse(authURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: invalid authorization endpoint %q", errors.ErrConfiguration, authURL)
	}

	scopes := make([]string, 0, len(req.Scopes))
	for _, s := range req.Scopes {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}

	cfg := oauth2.Config{
		ClientID:    req.ClientID,
		RedirectURL: req.RedirectURI,
		Scopes:      scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: authURL},
	}
	return cfg.AuthCodeURL(req.State), nil
}
