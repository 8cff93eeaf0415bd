package oauthmodel

import (
	"fmt"
	"strings"
)

// AuthorizationRequest holds the parameters of the redirect to the provider's consent screen.
// It is never persisted; it lives only while the authorization URL is being built.
type AuthorizationRequest struct {
	// ClientID identifies the broker at the provider.
	// Required: Yes
	// Example: "86abc123xyz"
	ClientID string

	// RedirectURI is where the provider sends the browser back with a code.
	// Required: Yes
	// Example: "http://192.168.1.10:4000/auth/callback"
	// Security: Must exactly match the URI registered with the provider
	RedirectURI string

	// Scopes lists the permissions being requested. Sent space delimited.
	// Example: ["openid", "profile", "w_member_social"]
	Scopes []string

	// State is the anti-forgery value echoed back on the callback.
	// Required: No (omitted from the URL when empty)
	State string
}

// Validate fails fast on values the provider would otherwise reject with a confusing error.
func (a AuthorizationRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(a.ClientID) == "" {
		missing = append(missing, "client id")
	}
	if strings.TrimSpace(a.RedirectURI) == "" {
		missing = append(missing, "redirect uri")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompleteAuthorizationRequest, strings.Join(missing, ", "))
	}
	return nil
}
