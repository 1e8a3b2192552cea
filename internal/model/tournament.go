package model

import "time"

// TournamentFormat is the pairing system of a tournament
type TournamentFormat string

const (
	FormatSwiss             TournamentFormat = "SWISS"
	FormatDoubleElimination TournamentFormat = "DOUBLE_ELIMINATION"
	FormatHybrid            TournamentFormat = "HYBRID"
)

// Valid reports whether f is a format the backend accepts
func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSwiss, FormatDoubleElimination, FormatHybrid:
		return true
	}
	return false
}

// MatchStatus is the lifecycle state of a match as reported by the backend
type MatchStatus string

const (
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchPending   MatchStatus = "PENDING"
	MatchCompleted MatchStatus = "COMPLETED"
	MatchBye       MatchStatus = "BYE"
)

// Tournament as returned by the backend
type Tournament struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	StartDate    time.Time        `json:"startDate"`
	Location     string           `json:"location"`
	MinEloRating int              `json:"minEloRating"`
	MaxEloRating int              `json:"maxEloRating"`
	Format       TournamentFormat `json:"format"`
	Status       string           `json:"status,omitempty"`
	Description  string           `json:"description,omitempty"`
}

// TournamentInput is the payload for creating or updating a tournament
type TournamentInput struct {
	Name         string           `json:"name"`
	StartDate    time.Time        `json:"startDate"`
	Location     string           `json:"location"`
	MinEloRating int              `json:"minEloRating"`
	MaxEloRating int              `json:"maxEloRating"`
	Format       TournamentFormat `json:"format,omitempty"`
	Description  string           `json:"description,omitempty"`
}

// PlayerRef is the compact player representation embedded in matches
type PlayerRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// TournamentRef is the compact tournament representation embedded in matches
type TournamentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Match as returned by the backend
type Match struct {
	ID           int64         `json:"id"`
	Player1      PlayerRef     `json:"player1"`
	Player2      PlayerRef     `json:"player2"`
	Tournament   TournamentRef `json:"tournament"`
	Status       MatchStatus   `json:"status"`
	Player1Score int           `json:"player1Score"`
	Player2Score int           `json:"player2Score"`
	MatchDate    time.Time     `json:"matchDate"`
}

// Decided reports whether the match has a final score
func (m Match) Decided() bool {
	return m.Status == MatchCompleted || m.Status == MatchBye
}

// MatchResult is the payload for recording a match score
type MatchResult struct {
	ID                int64       `json:"id"`
	Status            MatchStatus `json:"status"`
	DurationInMinutes int         `json:"durationInMinutes"`
	Player1Score      int         `json:"player1Score"`
	Player2Score      int         `json:"player2Score"`
	PunchesPlayer1    int         `json:"punchesPlayer1"`
	PunchesPlayer2    int         `json:"punchesPlayer2"`
	DodgesPlayer1     int         `json:"dodgesPlayer1"`
	DodgesPlayer2     int         `json:"dodgesPlayer2"`
	KOByPlayer1       bool        `json:"koByPlayer1"`
	KOByPlayer2       bool        `json:"koByPlayer2"`
}

// UserProfile is a user record as returned by GET /api/user/{id}
type UserProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

// EloRecord is one point in a player's rating history
type EloRecord struct {
	ID        int64     `json:"id"`
	OldRating float64   `json:"oldRating"`
	NewRating float64   `json:"newRating"`
	Change    float64   `json:"changeInRating"`
	Date      time.Time `json:"date"`
}

// PlayerStats aggregates a player's career statistics
type PlayerStats struct {
	ID      int64 `json:"id"`
	Punches int   `json:"punches"`
	KOs     int   `json:"kos"`
	Dodges  int   `json:"dodges"`
}
