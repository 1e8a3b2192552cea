package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mcoot/tournax/internal/model"
)

func (c *Client) GetUser(ctx context.Context, id int64) (*model.UserProfile, error) {
	var out model.UserProfile
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/user/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PlayerMatches(ctx context.Context, playerID int64) ([]model.Match, error) {
	var out []model.Match
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/match/player/%d", playerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) EloHistory(ctx context.Context, playerID int64) ([]model.EloRecord, error) {
	var out []model.EloRecord
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/elo-records/player/%d", playerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PlayerStats(ctx context.Context, playerID int64) ([]model.PlayerStats, error) {
	var out []model.PlayerStats
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/player-stats/player/%d", playerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
