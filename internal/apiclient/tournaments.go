package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mcoot/tournax/internal/model"
)

// ListTournaments returns all tournaments
func (c *Client) ListTournaments(ctx context.Context) ([]model.Tournament, error) {
	var out []model.Tournament
	if err := c.Do(ctx, http.MethodGet, "/api/tournament", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTournament returns one tournament
func (c *Client) GetTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	var out model.Tournament
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/tournament/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTournament creates a tournament. Requires an admin session.
func (c *Client) CreateTournament(ctx context.Context, in model.TournamentInput) (*model.Tournament, error) {
	var out model.Tournament
	if err := c.Do(ctx, http.MethodPost, "/api/tournament", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTournament replaces the editable fields of a tournament
func (c *Client) UpdateTournament(ctx context.Context, id int64, in model.TournamentInput) (*model.Tournament, error) {
	var out model.Tournament
	if err := c.Do(ctx, http.MethodPut, fmt.Sprintf("/api/tournament/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
