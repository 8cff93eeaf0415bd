package provider

import (
	"context"

	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"golang.org/x/oauth2"
)

// Identity resolves the member that owns accessToken from the userinfo endpoint.
// Any non-2xx answer or a response without a subject is an upstream auth error.
func (c *Client) Identity(ctx context.Context, accessToken string) (oauthmodel.Identity, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	info, err := c.oidc.UserInfo(ctx, bearer(accessToken))
	if err != nil {
		return oauthmodel.Identity{}, &errors.UpstreamError{Kind: errors.ErrUpstreamAuth, Op: "userinfo", Err: err}
	}
	if info.Subject == "" {
		return oauthmodel.Identity{}, &errors.UpstreamError{
			Kind: errors.ErrUpstreamAuth,
			Op:   "userinfo",
			Err:  oauthmodel.ErrMissingSubject,
		}
	}

	var claims struct {
		Name string `json:"name"`
	}
	// Name is informational; a claims decode failure does not invalidate the subject.
	_ = info.Claims(&claims)

	return oauthmodel.Identity{Subject: info.Subject, Name: claims.Name, Email: info.Email}, nil
}

func bearer(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}
