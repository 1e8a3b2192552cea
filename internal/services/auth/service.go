// Package auth exchanges user credentials with the tournament backend.
//
// The Service performs exactly one login request per call and never retains the
// credentials it was given. Constructing a session from the result is left to
// the caller.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/tournax/internal/model"
)

// LoginPath is the backend authentication endpoint
const LoginPath = "/api/auth/login"

// maxResponseSize bounds how much of a login response is read
const maxResponseSize = 1 << 20

// Result is the outcome of a successful credential exchange
type Result struct {
	User  model.AuthenticatedUser
	Token string
}

// Config holds configuration for the auth service
type Config struct {
	// BaseURL is the tournament backend base URL
	BaseURL string
	// Timeout bounds a single login exchange
	Timeout time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8081",
		Timeout: 10 * time.Second,
	}
}

// Service handles credential authentication against the backend
type Service struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new auth Service with its own HTTP client
func New(cfg Config, logger *slog.Logger) *Service {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return NewWithClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewWithClient creates an auth Service using the given HTTP client.
// The client must not carry session interceptors; login requests are unauthenticated.
func NewWithClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Service {
	return &Service{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginUser struct {
	ID       flexibleID `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	UserType string     `json:"userType"`
}

type loginResponse struct {
	User  *loginUser `json:"user"`
	JWT   string     `json:"jwt"`
	Token string     `json:"token"`
}

// Authenticate exchanges credentials for an authenticated user and token.
//
// Errors wrap model.ErrInvalidCredentials when the backend rejected the
// credentials (or answered without a usable session), and model.ErrAuthTransport
// when the exchange itself failed.
func (s *Service) Authenticate(ctx context.Context, creds model.Credentials) (*Result, error) {
	body, err := json.Marshal(loginRequest{Username: creds.Username, Password: creds.Password})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", model.ErrAuthTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+LoginPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", model.ErrAuthTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("login request failed",
			slog.String("username", creds.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", model.ErrAuthTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", model.ErrAuthTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		s.logger.Info("login rejected",
			slog.String("username", creds.Username),
			slog.Int("status", resp.StatusCode),
		)
		return nil, model.ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		s.logger.Warn("login failed with unexpected status",
			slog.String("username", creds.Username),
			slog.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: HTTP %d", model.ErrAuthTransport, resp.StatusCode)
	}

	var payload loginResponse
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", model.ErrAuthTransport, err)
	}

	result, err := payload.toResult()
	if err != nil {
		s.logger.Warn("login response unusable",
			slog.String("username", creds.Username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidCredentials, err)
	}

	return result, nil
}

func (p loginResponse) toResult() (*Result, error) {
	token := p.JWT
	if token == "" {
		token = p.Token
	}
	if token == "" {
		return nil, fmt.Errorf("%w: no token", model.ErrMalformedAuthResponse)
	}
	if p.User == nil {
		return nil, fmt.Errorf("%w: no user", model.ErrMalformedAuthResponse)
	}

	role, err := model.ParseRole(p.User.UserType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrMalformedAuthResponse, err)
	}

	user := model.AuthenticatedUser{
		ID:       model.UserID(p.User.ID),
		Username: p.User.Username,
		Email:    p.User.Email,
		Role:     role,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrMalformedAuthResponse, err)
	}

	return &Result{User: user, Token: token}, nil
}

// flexibleID accepts both numeric and string JSON identifiers
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}
