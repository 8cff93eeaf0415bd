package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/go-oauth-broker/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "oauth-broker",
	Short: "OAuth token broker and publishing proxy",
	Long: `Connects a browser session to a third-party account through the OAuth authorization
code flow, keeps the access token on the server and performs actions on the user's behalf.
Configuration is read from the environment.`,
	SilenceUsage: true,
	RunE:         serveCmd.RunE,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Exiting")
		os.Exit(1)
	}
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// setupLogging configures the global logger: human readable in DEV, JSON otherwise.
func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
