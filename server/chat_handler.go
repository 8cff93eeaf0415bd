package server

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// ChatHandler relays one message to the chat model. Every failure is reported the same way.
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()

		if s.chat == nil {
			logger.Error().Msg("Chat is not configured")
			writeJSONError(w, http.StatusInternalServerError, msgSomethingWentWrong)
			return
		}

		var req chatRequest
		if err := decodeJSON(r, &req); err != nil {
			logger.Warn().Err(err).Msg("Bad chat request")
			writeJSONError(w, http.StatusInternalServerError, msgSomethingWentWrong)
			return
		}

		reply, err := s.chat.Reply(r.Context(), req.Message)
		if err != nil {
			logger.Error().Err(err).Msg("Chat completion failed")
			writeJSONError(w, http.StatusInternalServerError, msgSomethingWentWrong)
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
	}
}
