package oauthmodel

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// The provider returns a short-lived code that the broker exchanges for an access token.
	// Example: /oauth/v2/authorization?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for an access token.
	// Token request includes: code, client_id, client_secret, redirect_uri
	// The code is single use, so the exchange is never retried.
	AuthorizationCodeGrant GrantType = "authorization_code"
)

// Query parameter names used on the authorization redirect and the callback.
const (
	ParamResponseType     = "response_type"
	ParamClientID         = "client_id"
	ParamRedirectURI      = "redirect_uri"
	ParamScope            = "scope"
	ParamGrantType        = "grant_type"
	ParamState            = "state"
	ParamCode             = "code"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
)
