package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/sessions"
	"github.com/rs/zerolog/log"
)

var _ sessions.Repo = (*InMemorySessionRepo)(nil)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// entry keeps the access token sealed in a memguard enclave; the stored session copy
// never holds the plaintext token.
type entry struct {
	session sessions.Session
	token   *memguard.Enclave
}

// InMemorySessionRepo is a process-local session store. All sessions are lost when the
// process exits.
type InMemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]entry // sessionID -> entry
}

// NewInMemorySessionRepo creates a new in-memory session repository
func NewInMemorySessionRepo() *InMemorySessionRepo {
	return &InMemorySessionRepo{
		sessions: make(map[string]entry),
	}
}

// Set creates or replaces a session
func (r *InMemorySessionRepo) Set(_ context.Context, sessionID string, session sessions.Session) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	e := entry{session: session}
	e.session.ID = sessionID
	if session.AccessToken != "" {
		// NewEnclave wipes the slice it is given.
		e.token = memguard.NewEnclave([]byte(session.AccessToken))
		e.session.AccessToken = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = e
	return nil
}

// Get retrieves a live session. Expired sessions are removed and reported as expired.
func (r *InMemorySessionRepo) Get(_ context.Context, sessionID string) (sessions.Session, error) {
	if sessionID == "" {
		return sessions.Session{}, fmt.Errorf("sessionID is required")
	}

	r.mu.RLock()
	e, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return sessions.Session{}, errors.ErrSessionNotFound
	}

	if !e.session.ExpiresAt.IsZero() && NowTimeFunc().After(e.session.ExpiresAt) {
		r.delete(sessionID)
		return sessions.Session{}, errors.ErrSessionExpired
	}

	session := e.session
	if e.token != nil {
		buf, err := e.token.Open()
		if err != nil {
			return sessions.Session{}, fmt.Errorf("open sealed token: %w", err)
		}
		session.AccessToken = string(buf.Bytes())
		buf.Destroy()
	}
	return session, nil
}

// Destroy removes a session
func (r *InMemorySessionRepo) Destroy(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	r.delete(sessionID)
	return nil // Already doesn't exist, no error
}

// Len returns the number of stored sessions, live or not yet evicted.
func (r *InMemorySessionRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// DeleteExpired evicts every session past its expiry and returns how many were removed.
func (r *InMemorySessionRepo) DeleteExpired() int {
	now := NowTimeFunc()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.sessions {
		if !e.session.ExpiresAt.IsZero() && now.After(e.session.ExpiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor evicts expired sessions every interval until ctx is done.
func (r *InMemorySessionRepo) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.DeleteExpired(); n > 0 {
				log.Debug().Int("evicted", n).Msg("Evicted expired sessions")
			}
		}
	}
}

func (r *InMemorySessionRepo) delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}
