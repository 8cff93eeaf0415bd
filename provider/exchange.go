package provider

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"golang.org/x/oauth2"
)

// Exchange trades an authorization code for an access token. One attempt only.
func (c *Client) Exchange(ctx context.Context, code string) (oauthmodel.TokenExchangeResult, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		upstream := &errors.UpstreamError{Kind: errors.ErrExchangeFailed, Op: "token exchange", Err: err}
		var retrieveErr *oauth2.RetrieveError
		if stderrors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			upstream.StatusCode = retrieveErr.Response.StatusCode
			upstream.Body = string(retrieveErr.Body)
		}
		return oauthmodel.TokenExchangeResult{}, upstream
	}
	if tok.AccessToken == "" {
		return oauthmodel.TokenExchangeResult{}, &errors.UpstreamError{
			Kind: errors.ErrExchangeFailed,
			Op:   "token exchange",
			Err:  oauthmodel.ErrMissingAccessToken,
		}
	}

	result := oauthmodel.TokenExchangeResult{AccessToken: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		result.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		result.Scope = scope
	}
	return result, nil
}
