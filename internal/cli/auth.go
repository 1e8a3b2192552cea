package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/tournax/internal/model"
)

func newLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the tournament backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" || pass == "" {
				return errors.New("--user and --pass are required")
			}

			sess, err := store.Login(cmd.Context(), model.Credentials{Username: user, Password: pass})
			if err != nil {
				return describe(err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(statusFromState(model.State{Status: model.StatusAuthenticated, Session: &sess}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Username (required)")
	cmd.Flags().StringVarP(&pass, "pass", "p", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store.Logout(cmd.Context())

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(statusFromState(store.Snapshot()))
			return nil
		},
	}
}

// currentUserID resolves the logged in user's numeric backend id
func currentUserID() (int64, error) {
	sess, err := requireSession()
	if err != nil {
		return 0, err
	}
	id, err := parseID(string(sess.User.ID))
	if err != nil {
		return 0, fmt.Errorf("session user id: %w", err)
	}
	return id, nil
}
