package broker

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/oauthmodel"
	"github.com/jrsteele09/go-oauth-broker/sessions"
	"github.com/rs/zerolog/log"
)

// CallbackState is a step of the OAuth callback.
//
//	Start ──error param──▶ ProviderDenied
//	Start ──no code──────▶ MalformedCallback
//	Start ──bad state────▶ StateMismatch
//	Start ───────────────▶ CodePresent ──exchange error──▶ ExchangeFailed
//	                       CodePresent ─────────────────▶ TokenReceived ──save error──▶ SessionSaveFailed
//	                                                       TokenReceived ─────────────▶ Done
//
// Nothing is retried: the user restarts the flow from the authorization redirect.
type CallbackState int

const (
	StateStart CallbackState = iota
	StateProviderDenied
	StateMalformedCallback
	StateStateMismatch
	StateCodePresent
	StateExchangeFailed
	StateTokenReceived
	StateSessionSaveFailed
	StateDone
)

var callbackStateNames = map[CallbackState]string{
	StateStart:             "start",
	StateProviderDenied:    "provider_denied",
	StateMalformedCallback: "malformed_callback",
	StateStateMismatch:     "state_mismatch",
	StateCodePresent:       "code_present",
	StateExchangeFailed:    "exchange_failed",
	StateTokenReceived:     "token_received",
	StateSessionSaveFailed: "session_save_failed",
	StateDone:              "done",
}

func (s CallbackState) String() string {
	if name, ok := callbackStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("callback_state(%d)", int(s))
}

// Terminal reports whether the flow stops in s.
func (s CallbackState) Terminal() bool {
	switch s {
	case StateProviderDenied, StateMalformedCallback, StateStateMismatch,
		StateExchangeFailed, StateSessionSaveFailed, StateDone:
		return true
	}
	return false
}

// HTTPStatus is the response status for a terminal state.
func (s CallbackState) HTTPStatus() int {
	switch s {
	case StateDone:
		return http.StatusOK
	case StateProviderDenied, StateMalformedCallback, StateStateMismatch:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Err is the error category of a terminal failure state, nil for Done.
func (s CallbackState) Err() error {
	switch s {
	case StateProviderDenied:
		return errors.ErrProviderDenied
	case StateMalformedCallback:
		return errors.ErrMalformedCallback
	case StateStateMismatch:
		return errors.ErrStateMismatch
	case StateExchangeFailed:
		return errors.ErrExchangeFailed
	case StateSessionSaveFailed:
		return errors.ErrSessionSave
	case StateDone:
		return nil
	default:
		return errors.ErrInternal
	}
}

// CallbackParams are the query parameters the provider sends back.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

func ParseCallbackParams(v url.Values) CallbackParams {
	return CallbackParams{
		Code:             v.Get(oauthmodel.ParamCode),
		State:            v.Get(oauthmodel.ParamState),
		Error:            v.Get(oauthmodel.ParamError),
		ErrorDescription: v.Get(oauthmodel.ParamErrorDescription),
	}
}

// CallbackOutcome is where the flow stopped and why.
type CallbackOutcome struct {
	State CallbackState
	// Description is safe to show the user. Only set for ProviderDenied.
	Description string
	// Err holds the detailed cause for logging. Never sent to the client.
	Err error
}

// TokenExchanger trades an authorization code for a token. Implementations make one attempt.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (oauthmodel.TokenExchangeResult, error)
}

// SaveFunc persists a session. It must return only once the write is durable.
type SaveFunc func(ctx context.Context, s *sessions.Session) error

// CallbackFlow drives a single callback request through CallbackState.
type CallbackFlow struct {
	exchanger TokenExchanger
}

func NewCallbackFlow(exchanger TokenExchanger) *CallbackFlow {
	return &CallbackFlow{exchanger: exchanger}
}

// Run advances from Start until a terminal state. The token is written into session and
// saved before Run returns Done.
func (f *CallbackFlow) Run(ctx context.Context, params CallbackParams, session *sessions.Session, save SaveFunc) CallbackOutcome {
	out := CallbackOutcome{State: StateStart}
	var token oauthmodel.TokenExchangeResult

	for !out.State.Terminal() {
		from := out.State
		switch out.State {
		case StateStart:
			out.State, out.Description = f.inspect(params, session)

		case StateCodePresent:
			result, err := f.exchanger.Exchange(ctx, params.Code)
			if err != nil {
				out.State, out.Err = StateExchangeFailed, err
				break
			}
			token = result
			out.State = StateTokenReceived

		case StateTokenReceived:
			session.AccessToken = token.AccessToken
			session.Scope = token.Scope
			session.TokenExpiry = token.Expiry(sessions.NowTimeFunc())
			session.PendingState = ""
			if err := save(ctx, session); err != nil {
				out.State, out.Err = StateSessionSaveFailed, err
				break
			}
			out.State = StateDone

		default:
			out.State, out.Err = StateExchangeFailed, fmt.Errorf("%w: unexpected callback state %s", errors.ErrInternal, out.State)
		}
		log.Debug().Str("from", from.String()).Str("to", out.State.String()).Msg("Callback transition")
	}
	return out
}

func (f *CallbackFlow) inspect(params CallbackParams, session *sessions.Session) (CallbackState, string) {
	if params.Error != "" {
		description := params.ErrorDescription
		if description == "" {
			description = params.Error
		}
		return StateProviderDenied, description
	}
	if params.Code == "" {
		return StateMalformedCallback, ""
	}
	if !stateMatches(session, params.State) {
		return StateStateMismatch, ""
	}
	return StateCodePresent, ""
}

func stateMatches(session *sessions.Session, state string) bool {
	if session == nil || session.PendingState == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(session.PendingState), []byte(state)) == 1
}
