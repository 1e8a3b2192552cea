package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mcoot/tournax/internal/model"
)

// GetMatch returns one tournament match
func (c *Client) GetMatch(ctx context.Context, id int64) (*model.Match, error) {
	var out model.Match
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/tournament/match/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMatchScore records a match result. Score validation is the backend's concern.
func (c *Client) UpdateMatchScore(ctx context.Context, result model.MatchResult) (*model.Match, error) {
	var out model.Match
	if err := c.Do(ctx, http.MethodPut, "/api/tournament/match", result, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
