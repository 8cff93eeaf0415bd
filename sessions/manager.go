package sessions

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/rs/zerolog/log"
)

// CookieName is the name of the cookie holding the signed session id.
const CookieName = "broker_sid"

// ManagerOptions configures the session cookie.
type ManagerOptions struct {
	MaxAge time.Duration
	// Secure marks the cookie HTTPS-only. Must be true for any deployment served over TLS.
	Secure bool
}

// Manager binds sessions in a Repo to browser cookies.
type Manager struct {
	repo   Repo
	codec  *CookieCodec
	maxAge time.Duration
	secure bool
}

func NewManager(repo Repo, codec *CookieCodec, opts ManagerOptions) *Manager {
	return &Manager{
		repo:   repo,
		codec:  codec,
		maxAge: opts.MaxAge,
		secure: opts.Secure,
	}
}

// Load returns the session named by the request cookie. A missing, forged, expired or
// unknown cookie yields a new unsaved session with a fresh id; the client-supplied id is
// never reused.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return m.newSession(), nil
	}

	id, err := m.codec.Decode(cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("Ignoring session cookie")
		return m.newSession(), nil
	}

	session, err := m.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrSessionNotFound) || errors.Is(err, errors.ErrSessionExpired) {
			return m.newSession(), nil
		}
		return nil, errors.Wrapf(err, "load session")
	}
	return &session, nil
}

// Save persists the session and sets its cookie. It must be called before the response
// body is written so the next request on this cookie observes the write.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	now := NowTimeFunc()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.ExpiresAt = now.Add(m.maxAge)

	value, err := m.codec.Encode(s.ID, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrSessionSave, err)
	}
	stored := *s
	stored.isNew = false
	if err := m.repo.Set(ctx, s.ID, stored); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrSessionSave, err)
	}
	s.isNew = false

	http.SetCookie(w, m.cookie(value, int(m.maxAge.Seconds()), s.ExpiresAt))
	return nil
}

// Destroy removes the session from the store and expires its cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.isNew {
		if err := m.repo.Destroy(ctx, s.ID); err != nil {
			return errors.Wrapf(err, "destroy session")
		}
	}
	http.SetCookie(w, m.cookie("", -1, time.Unix(0, 0)))
	return nil
}

func (m *Manager) newSession() *Session {
	return &Session{ID: uuid.NewString(), isNew: true}
}

func (m *Manager) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Expires:  expires,
	}
}
