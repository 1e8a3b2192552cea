package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/tournax/internal/dependencies/mocks"
	"github.com/mcoot/tournax/internal/storage"
	"github.com/mcoot/tournax/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestConfig configures NewTestApp
type TestConfig struct {
	// BackendURL is the fake backend's base URL
	BackendURL string
	// Storage replaces the default in-memory session cache
	Storage storage.Storage
	// RestoreWait defaults to a generous bound so restoration finishes before
	// the first request is served. Negative means never wait.
	RestoreWait time.Duration
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The mock clock starts at the current wall time so that tokens issued by a
// test backend are live.
func NewTestApp(cfg TestConfig) *TestApp {
	mockClock := mocks.NewMockClock(time.Now().UTC().Truncate(time.Second))
	mockRandom := mocks.NewMockRandom()

	store := cfg.Storage
	if store == nil {
		store = memory.New(mockClock)
	}
	restoreWait := cfg.RestoreWait
	if restoreWait == 0 {
		restoreWait = 5 * time.Second
	}

	appCfg := Config{
		BackendURL:  cfg.BackendURL,
		Logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
		RestoreWait: restoreWait,
	}.withDefaults()

	return &TestApp{
		App:        newWithDependencies(appCfg, store, mockClock, mockRandom),
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
