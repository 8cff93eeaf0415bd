package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oauth-broker/broker"
	"github.com/jrsteele09/go-oauth-broker/internal/config"
	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/sessions"
	"github.com/rs/zerolog/log"
)

// Provider is everything the handlers need from the identity/content platform.
type Provider interface {
	AuthorizationURL(state string) (string, error)
	broker.TokenExchanger
	broker.IdentityResolver
	broker.PostWriter
}

// Replier answers a single chat message.
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Dependencies are constructed by the caller and injected into New.
type Dependencies struct {
	Provider Provider
	Sessions *sessions.Manager
	Chat     Replier // Optional, nil disables the chat relay
}

type Server struct {
	env          string
	mux          *http.ServeMux
	routes       []string
	config       config.Config
	provider     Provider
	sessions     *sessions.Manager
	callback     *broker.CallbackFlow
	publisher    *broker.Publisher
	chat         Replier
	callbackPage *template.Template
}

func New(config config.Config, deps Dependencies) (*Server, error) {
	if deps.Provider == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("[Server New] %w: provider and session manager are required", errors.ErrConfiguration)
	}

	callbackPage, err := ParseTemplate(callbackSuccessTemplate)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse callback page: %w", err)
	}

	s := &Server{
		env:          config.GetEnv(),
		mux:          http.NewServeMux(),
		config:       config,
		provider:     deps.Provider,
		sessions:     deps.Sessions,
		callback:     broker.NewCallbackFlow(deps.Provider),
		publisher:    broker.NewPublisher(deps.Provider, deps.Provider),
		chat:         deps.Chat,
		callbackPage: callbackPage,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
