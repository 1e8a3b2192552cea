package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mcoot/tournax/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case StatusResult:
		o.printStatus(v)
	case *model.Tournament:
		o.printTournament(v)
	case []model.Tournament:
		o.printTournaments(v)
	case *model.Match:
		o.printMatch(v)
	case []model.Match:
		o.printMatches(v)
	case *model.UserProfile:
		o.printUser(v)
	case []model.EloRecord:
		o.printElo(v)
	case []model.PlayerStats:
		o.printStats(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// StatusResult describes the local session. The token itself is never printed.
type StatusResult struct {
	Status    string                   `json:"status"`
	User      *model.AuthenticatedUser `json:"user,omitempty"`
	ExpiresAt *time.Time               `json:"expires_at,omitempty"`
}

func statusFromState(state model.State) StatusResult {
	result := StatusResult{Status: state.Status.String(), User: state.User()}
	if state.Session != nil && !state.Session.ExpiresAt.IsZero() {
		exp := state.Session.ExpiresAt
		result.ExpiresAt = &exp
	}
	return result
}

func (o *Output) printStatus(s StatusResult) {
	if s.User == nil {
		fmt.Fprintln(o.w, "Not logged in")
		return
	}
	fmt.Fprintf(o.w, "Logged in as %s (%s)\n", s.User.Username, s.User.Role)
	fmt.Fprintf(o.w, "User ID: %s\n", s.User.ID)
	if s.User.Email != "" {
		fmt.Fprintf(o.w, "Email: %s\n", s.User.Email)
	}
	if s.ExpiresAt != nil {
		fmt.Fprintf(o.w, "Expires: %s\n", s.ExpiresAt.Local().Format(time.RFC1123))
	}
}

func (o *Output) printTournament(t *model.Tournament) {
	fmt.Fprintf(o.w, "Tournament: %s (%d)\n", t.Name, t.ID)
	fmt.Fprintf(o.w, "Location: %s\n", t.Location)
	if !t.StartDate.IsZero() {
		fmt.Fprintf(o.w, "Start: %s\n", t.StartDate.Format("2006-01-02"))
	}
	fmt.Fprintf(o.w, "Format: %s\n", t.Format)
	fmt.Fprintf(o.w, "Elo: %d - %d\n", t.MinEloRating, t.MaxEloRating)
	if t.Status != "" {
		fmt.Fprintf(o.w, "Status: %s\n", t.Status)
	}
	if t.Description != "" {
		fmt.Fprintf(o.w, "\n%s\n", t.Description)
	}
}

func (o *Output) printTournaments(ts []model.Tournament) {
	if len(ts) == 0 {
		fmt.Fprintln(o.w, "No tournaments")
		return
	}
	fmt.Fprintf(o.w, "Tournaments (%d):\n", len(ts))
	for _, t := range ts {
		fmt.Fprintf(o.w, "  %d  %s - %s [%s]\n", t.ID, t.Name, t.Location, t.Format)
	}
}

func (o *Output) printMatch(m *model.Match) {
	fmt.Fprintf(o.w, "Match: %d\n", m.ID)
	if m.Tournament.Name != "" {
		fmt.Fprintf(o.w, "Tournament: %s (%d)\n", m.Tournament.Name, m.Tournament.ID)
	}
	fmt.Fprintf(o.w, "%s vs %s\n", m.Player1.Username, m.Player2.Username)
	if m.Decided() {
		fmt.Fprintf(o.w, "Score: %d : %d\n", m.Player1Score, m.Player2Score)
	} else {
		fmt.Fprintln(o.w, "Score: undecided")
	}
	fmt.Fprintf(o.w, "Status: %s\n", m.Status)
}

func (o *Output) printMatches(ms []model.Match) {
	if len(ms) == 0 {
		fmt.Fprintln(o.w, "No matches")
		return
	}
	fmt.Fprintf(o.w, "Matches (%d):\n", len(ms))
	for _, m := range ms {
		score := "-"
		if m.Decided() {
			score = fmt.Sprintf("%d : %d", m.Player1Score, m.Player2Score)
		}
		fmt.Fprintf(o.w, "  %d  %s vs %s  %s\n", m.ID, m.Player1.Username, m.Player2.Username, score)
	}
}

func (o *Output) printUser(u *model.UserProfile) {
	fmt.Fprintf(o.w, "User: %s (%d)\n", u.Username, u.ID)
	if u.Email != "" {
		fmt.Fprintf(o.w, "Email: %s\n", u.Email)
	}
	if role, err := model.ParseRole(u.UserType); err == nil {
		fmt.Fprintf(o.w, "Role: %s\n", role)
	}
}

func (o *Output) printElo(records []model.EloRecord) {
	if len(records) == 0 {
		fmt.Fprintln(o.w, "No rating history")
		return
	}
	for _, r := range records {
		fmt.Fprintf(o.w, "  %s  %.0f -> %.0f (%+.0f)\n", r.Date.Format("2006-01-02"), r.OldRating, r.NewRating, r.Change)
	}
}

func (o *Output) printStats(stats []model.PlayerStats) {
	if len(stats) == 0 {
		fmt.Fprintln(o.w, "No statistics")
		return
	}
	s := stats[0]
	fmt.Fprintf(o.w, "KOs: %d\n", s.KOs)
	fmt.Fprintf(o.w, "Punches: %d\n", s.Punches)
	fmt.Fprintf(o.w, "Dodges: %d\n", s.Dodges)
}
