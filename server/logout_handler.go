package server

import (
	"net/http"

	"github.com/jrsteele09/go-oauth-broker/sessions"
	"github.com/rs/zerolog/log"
)

// LogoutHandler forgets the session's token and expires the cookie.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.sessions.Destroy(r.Context(), w, sessions.FromContext(r.Context())); err != nil {
			log.Err(err).Msg("Logout: failed to destroy session")
			writeJSONError(w, http.StatusInternalServerError, msgSomethingWentWrong)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
