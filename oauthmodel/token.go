package oauthmodel

import "time"

// TokenExchangeResult is the part of the token endpoint response the broker keeps.
// Only AccessToken is copied into the session; the rest is informational.
type TokenExchangeResult struct {
	// AccessToken is presented as a bearer credential on every downstream call.
	// Security: Never logged and never sent to the browser
	AccessToken string

	// ExpiresIn is the lifetime in seconds reported by the provider, 0 when absent.
	// Example: 5184000 (60 days)
	ExpiresIn int64

	// Scope is the space separated list of scopes actually granted.
	// Example: "email openid profile w_member_social"
	Scope string
}

// Expiry converts ExpiresIn to an absolute time, zero when the provider did not say.
func (t TokenExchangeResult) Expiry(now time.Time) time.Time {
	if t.ExpiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Identity is the provider-side subject of an access token.
// It is fetched fresh for every proxied action and never cached.
type Identity struct {
	// Subject is the provider's stable member identifier.
	// Example: "782bbtaQ"
	Subject string
	Name    string
	Email   string
}
