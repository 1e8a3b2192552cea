package apiclient

import (
	"time"

	"github.com/mcoot/tournax/internal/model"
)

func (s *ClientSuite) TestTournamentLifecycle() {
	s.login("root", "hunter2")

	created, err := s.client.CreateTournament(s.ctx, model.TournamentInput{
		Name:         "Spring Open",
		StartDate:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Location:     "Berlin",
		MinEloRating: 1000,
		MaxEloRating: 2000,
		Format:       model.FormatSwiss,
	})
	s.Require().NoError(err)
	s.NotZero(created.ID)

	updated, err := s.client.UpdateTournament(s.ctx, created.ID, model.TournamentInput{
		Name:         "Spring Open 2024",
		StartDate:    created.StartDate,
		Location:     "Hamburg",
		MinEloRating: 1100,
		MaxEloRating: 2000,
	})
	s.Require().NoError(err)
	s.Equal("Hamburg", updated.Location)

	got, err := s.client.GetTournament(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Spring Open 2024", got.Name)
	s.Equal(model.FormatSwiss, got.Format)

	all, err := s.client.ListTournaments(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ClientSuite) TestMatchScoreUpdate() {
	s.login("alice", "secret")
	match := s.backend.AddMatch(model.Match{
		Player1: model.PlayerRef{ID: s.aliceID, Username: "alice"},
		Player2: model.PlayerRef{ID: 2, Username: "bob"},
		Status:  model.MatchScheduled,
	})

	updated, err := s.client.UpdateMatchScore(s.ctx, model.MatchResult{
		ID:           match.ID,
		Status:       model.MatchCompleted,
		Player1Score: 3,
		Player2Score: 1,
	})
	s.Require().NoError(err)
	s.True(updated.Decided())

	got, err := s.client.GetMatch(s.ctx, match.ID)
	s.Require().NoError(err)
	s.Equal(3, got.Player1Score)

	matches, err := s.client.PlayerMatches(s.ctx, s.aliceID)
	s.Require().NoError(err)
	s.Len(matches, 1)
}

func (s *ClientSuite) TestPlayerHistoryEndpoints() {
	s.login("alice", "secret")

	elo, err := s.client.EloHistory(s.ctx, s.aliceID)
	s.Require().NoError(err)
	s.Require().Len(elo, 1)
	s.InDelta(16, elo[0].Change, 0.001)

	stats, err := s.client.PlayerStats(s.ctx, s.aliceID)
	s.Require().NoError(err)
	s.Require().Len(stats, 1)
	s.Equal(3, stats[0].KOs)
}
