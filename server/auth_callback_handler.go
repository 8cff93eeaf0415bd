package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/go-oauth-broker/broker"
	"github.com/jrsteele09/go-oauth-broker/sessions"
	"github.com/rs/zerolog/log"
)

type callbackPageData struct {
	AppName      string
	RedirectURL  string
	DelaySeconds int
	DelayMillis  int64
}

// AuthCallbackHandler completes the authorization started by AuthStartHandler. The session is
// saved before anything is written to the response.
func (s *Server) AuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessions.FromContext(r.Context())
		params := broker.ParseCallbackParams(r.URL.Query())

		save := func(ctx context.Context, sess *sessions.Session) error {
			return s.sessions.Save(ctx, w, sess)
		}
		outcome := s.callback.Run(r.Context(), params, session, save)

		logger := log.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("callback_state", outcome.State.String()).
			Logger()

		switch status := outcome.State.HTTPStatus(); status {
		case http.StatusOK:
			logger.Info().Msg("Account connected")
			s.renderCallbackSuccess(w)

		case http.StatusBadRequest:
			logger.Warn().Err(outcome.State.Err()).Msg("Callback rejected")
			message := outcome.Description
			if message == "" {
				message = outcome.State.Err().Error()
			}
			http.Error(w, fmt.Sprintf("Authorization failed: %s", message), status)

		default:
			logger.Error().Err(outcome.Err).Msg("Callback failed")
			http.Error(w, "Authorization failed. Please try again.", status)
		}
	}
}

func (s *Server) renderCallbackSuccess(w http.ResponseWriter) {
	delay := s.config.GetCallbackRedirectDelay()
	data := callbackPageData{
		AppName:      s.config.GetAppName(),
		RedirectURL:  s.config.GetPostLoginRedirectURL(),
		DelaySeconds: int(delay.Seconds()),
		DelayMillis:  delay.Milliseconds(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := s.callbackPage.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("Failed to render callback page")
	}
}
