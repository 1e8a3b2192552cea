package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/tournax/internal/apiclient"
	"github.com/mcoot/tournax/internal/session"
)

var (
	cfg    *Config
	store  *session.Store
	client *apiclient.Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "tournax",
		Short: "CLI tool for the TournaX tournament backend",
		Long: `tournax is a command line client for the TournaX tournament backend.

Log in once and the session is kept in a token file; every other command
sends that token until it expires, is revoked or you log out.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			store, client = openSession(cmd.Context(), cfg)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if client != nil {
				client.Close()
			}
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "Backend URL (env: TOURNAX_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&cfg.SessionFile, "session-file", cfg.SessionFile, "Session file path (env: TOURNAX_SESSION_FILE)")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout (env: TOURNAX_TIMEOUT)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newTournamentCmd())
	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newPlayerCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
