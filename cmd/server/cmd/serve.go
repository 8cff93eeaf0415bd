package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/jrsteele09/go-oauth-broker/chat"
	"github.com/jrsteele09/go-oauth-broker/internal/config"
	"github.com/jrsteele09/go-oauth-broker/provider"
	"github.com/jrsteele09/go-oauth-broker/server"
	"github.com/jrsteele09/go-oauth-broker/sessions"
	"github.com/jrsteele09/go-oauth-broker/sessions/inmemory"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 5 * time.Second
	janitorInterval = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the broker HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func run(ctx context.Context) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()
	defer memguard.Purge()

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	providerClient, err := provider.New(ctx, provider.OptionsFromConfig(c))
	if err != nil {
		return fmt.Errorf("provider client: %w", err)
	}

	codec, err := sessions.NewCookieCodec(c.GetSessionSecret())
	if err != nil {
		return fmt.Errorf("session cookie codec: %w", err)
	}
	repo := inmemory.NewInMemorySessionRepo()
	manager := sessions.NewManager(repo, codec, sessions.ManagerOptions{
		MaxAge: c.GetSessionMaxAge(),
		Secure: c.GetSessionCookieSecure(),
	})

	deps := server.Dependencies{Provider: providerClient, Sessions: manager}
	if chatClient, err := chat.New(chat.OptionsFromConfig(c, c.GetProviderTimeout())); err != nil {
		log.Warn().Err(err).Msg("Chat relay disabled")
	} else {
		deps.Chat = chatClient
	}

	srv, err := server.New(c, deps)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		repo.RunJanitor(gctx, janitorInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe: %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
