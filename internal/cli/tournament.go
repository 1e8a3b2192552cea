package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/tournax/internal/model"
)

func newTournamentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tournament",
		Aliases: []string{"t"},
		Short:   "Tournament commands",
	}

	cmd.AddCommand(newTournamentListCmd())
	cmd.AddCommand(newTournamentGetCmd())
	cmd.AddCommand(newTournamentCreateCmd())
	cmd.AddCommand(newTournamentUpdateCmd())

	return cmd
}

func newTournamentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tournaments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireSession(); err != nil {
				return err
			}

			tournaments, err := client.ListTournaments(cmd.Context())
			if err != nil {
				return describe(err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(tournaments)
			return nil
		},
	}
}

func newTournamentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a tournament",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := requireSession(); err != nil {
				return err
			}

			t, err := client.GetTournament(cmd.Context(), id)
			if err != nil {
				return describe(err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(t)
			return nil
		},
	}
}

// tournamentFlags are shared by create and update
type tournamentFlags struct {
	name, location, start, format, description string
	minElo, maxElo                             int
}

func (f *tournamentFlags) register(cmd *cobra.Command, withFormat bool) {
	cmd.Flags().StringVar(&f.name, "name", "", "Tournament name (required)")
	cmd.Flags().StringVar(&f.location, "location", "", "Location (required)")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date, YYYY-MM-DD")
	cmd.Flags().IntVar(&f.minElo, "min-elo", 0, "Minimum Elo rating")
	cmd.Flags().IntVar(&f.maxElo, "max-elo", 0, "Maximum Elo rating")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	if withFormat {
		cmd.Flags().StringVar(&f.format, "format", string(model.FormatSwiss), "Format: SWISS, DOUBLE_ELIMINATION, HYBRID")
	}
}

func (f *tournamentFlags) input(withFormat bool) (model.TournamentInput, error) {
	in := model.TournamentInput{
		Name:         f.name,
		Location:     f.location,
		MinEloRating: f.minElo,
		MaxEloRating: f.maxElo,
		Description:  f.description,
	}
	if in.Name == "" || in.Location == "" {
		return in, errors.New("--name and --location are required")
	}
	if f.start != "" {
		start, err := time.Parse("2006-01-02", f.start)
		if err != nil {
			return in, errors.New("--start must be a date (YYYY-MM-DD)")
		}
		in.StartDate = start
	}
	if withFormat {
		in.Format = model.TournamentFormat(f.format)
		if !in.Format.Valid() {
			return in, errors.New("unknown tournament format")
		}
	}
	return in, nil
}

func newTournamentCreateCmd() *cobra.Command {
	var flags tournamentFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tournament (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input(true)
			if err != nil {
				return err
			}
			if _, err := requireSession(); err != nil {
				return err
			}

			t, err := client.CreateTournament(cmd.Context(), in)
			if err != nil {
				return describe(err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(t)
			return nil
		},
	}
	flags.register(cmd, true)

	return cmd
}

func newTournamentUpdateCmd() *cobra.Command {
	var flags tournamentFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a tournament (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in, err := flags.input(false)
			if err != nil {
				return err
			}
			if _, err := requireSession(); err != nil {
				return err
			}

			t, err := client.UpdateTournament(cmd.Context(), id, in)
			if err != nil {
				return describe(err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(t)
			return nil
		},
	}
	flags.register(cmd, false)

	return cmd
}
