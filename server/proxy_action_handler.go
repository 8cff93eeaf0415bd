package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/sessions"
	"github.com/rs/zerolog/log"
)

type proxyActionRequest struct {
	Text string `json:"text"`
}

type proxyActionResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

// ProxyActionHandler publishes text on behalf of the member connected to the session.
func (s *Server) ProxyActionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessions.FromContext(r.Context())
		if !session.HasToken() {
			writeJSONError(w, http.StatusUnauthorized, msgNotConnected)
			return
		}

		var req proxyActionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Request body must be a JSON object with a text field.")
			return
		}

		result, err := s.publisher.Publish(r.Context(), session, req.Text)
		if err != nil {
			s.writePublishError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, proxyActionResponse{Success: true, ID: result.ID})
	}
}

func (s *Server) writePublishError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()

	switch {
	case errors.Is(err, errors.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, msgNotConnected)

	case errors.Is(err, errors.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, errors.ErrUpstreamAuth):
		logger.Error().Err(err).Msg("Identity lookup failed")
		writeJSONError(w, http.StatusInternalServerError, "Failed to resolve the connected account.")

	case errors.Is(err, errors.ErrUpstreamWrite):
		logger.Error().Err(err).Msg("Publish failed")
		resp := errorResponse{Error: "Failed to publish."}
		var upstream *errors.UpstreamError
		if errors.As(err, &upstream) {
			resp.Details = upstream.Body
		}
		writeJSON(w, http.StatusInternalServerError, resp)

	default:
		logger.Error().Err(err).Msg("Proxy action failed")
		writeJSONError(w, http.StatusInternalServerError, msgSomethingWentWrong)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "%v", err)
	}
	return nil
}
