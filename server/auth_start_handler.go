package server

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/go-oauth-broker/sessions"
	"github.com/rs/zerolog/log"
)

// AuthStartHandler records a fresh anti-forgery state in the session and redirects the
// browser to the provider's consent screen. Any token already in the session is kept.
func (s *Server) AuthStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessions.FromContext(r.Context())
		state := generateRandomString(stateLength)

		authURL, err := s.provider.AuthorizationURL(state)
		if err != nil {
			log.Error().Err(err).Msg("Failed to build authorization URL")
			http.Error(w, "Authorization is misconfigured.", http.StatusInternalServerError)
			return
		}

		session.PendingState = state
		if err := s.sessions.Save(r.Context(), w, session); err != nil {
			log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("Failed to save session")
			http.Error(w, msgSomethingWentWrong, http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}
