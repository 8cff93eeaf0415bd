package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-oauth-broker/internal/config"
	"github.com/jrsteele09/go-oauth-broker/provider"
	"github.com/spf13/cobra"
)

var authURLState string

// authURLCmd prints the consent-screen URL the broker would redirect to, for checking the
// provider registration without starting the server.
var authURLCmd = &cobra.Command{
	Use:   "auth-url",
	Short: "Print the provider authorization URL for the current configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.New()
		if err != nil {
			return err
		}
		state := authURLState
		if state == "" {
			state = uuid.NewString()
		}

		client, err := provider.New(cmd.Context(), provider.OptionsFromConfig(c))
		if err != nil {
			return err
		}
		u, err := client.AuthorizationURL(state)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), u)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authURLCmd)
	authURLCmd.Flags().StringVar(&authURLState, "state", "", "State value to embed (random when empty)")
}
