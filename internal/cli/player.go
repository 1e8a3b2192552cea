package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "player",
		Aliases: []string{"p"},
		Short:   "Player commands",
		Long:    "Player commands. The id defaults to the logged in user.",
	}

	cmd.AddCommand(newPlayerQueryCmd("get", "Show a player profile", func(ctx context.Context, id int64) (any, error) {
		return client.GetUser(ctx, id)
	}))
	cmd.AddCommand(newPlayerQueryCmd("elo", "Show a player's rating history", func(ctx context.Context, id int64) (any, error) {
		return client.EloHistory(ctx, id)
	}))
	cmd.AddCommand(newPlayerQueryCmd("stats", "Show a player's statistics", func(ctx context.Context, id int64) (any, error) {
		return client.PlayerStats(ctx, id)
	}))
	cmd.AddCommand(newPlayerQueryCmd("matches", "List a player's matches", func(ctx context.Context, id int64) (any, error) {
		return client.PlayerMatches(ctx, id)
	}))

	return cmd
}

func newPlayerQueryCmd(use, short string, query func(ctx context.Context, id int64) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				id  int64
				err error
			)
			if len(args) == 1 {
				id, err = parseID(args[0])
				if err == nil {
					_, err = requireSession()
				}
			} else {
				id, err = currentUserID()
			}
			if err != nil {
				return err
			}

			result, err := query(cmd.Context(), id)
			if err != nil {
				return describe(err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
