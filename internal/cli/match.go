package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/tournax/internal/model"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "match",
		Aliases: []string{"m"},
		Short:   "Match commands",
	}

	cmd.AddCommand(newMatchGetCmd())
	cmd.AddCommand(newMatchScoreCmd())

	return cmd
}

func newMatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := requireSession(); err != nil {
				return err
			}

			m, err := client.GetMatch(cmd.Context(), id)
			if err != nil {
				return describe(err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(m)
			return nil
		},
	}
}

func newMatchScoreCmd() *cobra.Command {
	var result model.MatchResult

	cmd := &cobra.Command{
		Use:   "score <id>",
		Short: "Record a match result (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := requireSession(); err != nil {
				return err
			}

			result.ID = id
			result.Status = model.MatchCompleted
			m, err := client.UpdateMatchScore(cmd.Context(), result)
			if err != nil {
				return describe(err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(m)
			return nil
		},
	}

	cmd.Flags().IntVar(&result.Player1Score, "p1", 0, "Player 1 score")
	cmd.Flags().IntVar(&result.Player2Score, "p2", 0, "Player 2 score")
	cmd.Flags().IntVar(&result.DurationInMinutes, "duration", 0, "Duration in minutes")
	cmd.Flags().IntVar(&result.PunchesPlayer1, "punches1", 0, "Punches by player 1")
	cmd.Flags().IntVar(&result.PunchesPlayer2, "punches2", 0, "Punches by player 2")
	cmd.Flags().IntVar(&result.DodgesPlayer1, "dodges1", 0, "Dodges by player 1")
	cmd.Flags().IntVar(&result.DodgesPlayer2, "dodges2", 0, "Dodges by player 2")
	cmd.Flags().BoolVar(&result.KOByPlayer1, "ko1", false, "Player 1 won by KO")
	cmd.Flags().BoolVar(&result.KOByPlayer2, "ko2", false, "Player 2 won by KO")

	return cmd
}
