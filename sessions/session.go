package sessions

import (
	"context"
	"time"
)

// Session is the server-held state behind one browser cookie.
//
// AccessToken is written only by the OAuth callback and read only by the proxy
// handlers; it never leaves the server.
type Session struct {
	ID           string    // Opaque identifier (UUID v4) carried in the signed cookie
	AccessToken  string    // Provider access token, empty until a callback succeeds
	Scope        string    // Scopes granted with AccessToken
	TokenExpiry  time.Time // Provider reported expiry, zero if unknown. Never refreshed
	PendingState string    // Anti-forgery state of the authorization currently in flight
	CreatedAt    time.Time
	ExpiresAt    time.Time // Store eviction time, tracks the cookie max age

	isNew bool
}

// HasToken reports whether the session holds an access token.
func (s *Session) HasToken() bool {
	return s != nil && s.AccessToken != ""
}

// IsNew reports whether the session has not been saved yet.
func (s *Session) IsNew() bool {
	return s.isNew
}

// Repo is the capability the broker needs from a session backing store.
// Implementations must make Set atomic per id.
type Repo interface {
	Get(ctx context.Context, id string) (Session, error)
	Set(ctx context.Context, id string, session Session) error
	Destroy(ctx context.Context, id string) error
}

type contextKey struct{}

// WithSession attaches the request's session to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the session middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
