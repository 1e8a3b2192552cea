package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/mcoot/tournax/internal/apiclient"
	"github.com/mcoot/tournax/internal/dependencies/clock"
	"github.com/mcoot/tournax/internal/model"
	"github.com/mcoot/tournax/internal/services/auth"
	"github.com/mcoot/tournax/internal/session"
)

// errNotLoggedIn is returned by commands that need a session when there is none
var errNotLoggedIn = errors.New("not logged in, run `tournax login` first")

// openSession restores the persisted session and binds a backend client to it.
// The CLI process is a single browser context whose token lives in the session file.
func openSession(ctx context.Context, cfg *Config) (*session.Store, *apiclient.Client) {
	logger := newLogger(cfg.Verbose)
	httpClient := &http.Client{Timeout: cfg.Timeout}

	authService := auth.NewWithClient(auth.Config{BaseURL: cfg.BackendURL, Timeout: cfg.Timeout}, httpClient, logger)
	persister := session.NewFilePersister(cfg.SessionFile)
	st := session.New(authService, persister, clock.New(), logger)
	st.Restore(ctx)

	c := apiclient.New(cfg.BackendURL, httpClient, logger)
	c.Bind(st)

	return st, c
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// requireSession returns the live session or errNotLoggedIn
func requireSession() (*model.Session, error) {
	sess, err := store.RequireSession()
	if err != nil {
		return nil, errNotLoggedIn
	}
	return sess, nil
}

// describe turns backend errors into messages for the terminal
func describe(err error) error {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, model.ErrTokenRejected):
		return errors.New("session expired or revoked, run `tournax login` again")
	case errors.Is(err, model.ErrInvalidCredentials):
		return errors.New("invalid username or password")
	case errors.Is(err, model.ErrAuthTransport):
		return fmt.Errorf("could not reach the tournament backend: %w", err)
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		return errors.New("not found")
	default:
		return err
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
