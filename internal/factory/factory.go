package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/tournax/internal/api"
	"github.com/mcoot/tournax/internal/apiclient"
	"github.com/mcoot/tournax/internal/config"
	"github.com/mcoot/tournax/internal/dependencies/clock"
	"github.com/mcoot/tournax/internal/dependencies/random"
	"github.com/mcoot/tournax/internal/middleware"
	"github.com/mcoot/tournax/internal/services/auth"
	"github.com/mcoot/tournax/internal/session"
	"github.com/mcoot/tournax/internal/storage"
	"github.com/mcoot/tournax/internal/storage/memory"
	redisstorage "github.com/mcoot/tournax/internal/storage/redis"
	"github.com/mcoot/tournax/internal/web"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageMemory
	StorageTypeRedis  = config.StorageRedis
)

// App contains all wired application components
type App struct {
	// Storage is the server-side session cache
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	HTTPClient  *http.Client
	AuthService *auth.Service
	Registry    *session.Registry

	Logger *slog.Logger
	config Config
}

// Config holds configuration for the application factory
type Config struct {
	// BackendURL is the tournament backend base URL.
	// If empty, defaults to auth.DefaultConfig().BaseURL
	BackendURL string
	// BackendTimeout bounds every backend request
	BackendTimeout time.Duration
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the session cache ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SessionTTL bounds cached sessions and the session cookie
	SessionTTL time.Duration
	// ContextIdleTTL is how long an unused browser context is kept
	ContextIdleTTL time.Duration
	// RestoreWait bounds how long a new browser context's first request waits
	// for its session to be restored. Negative means never wait.
	RestoreWait  time.Duration
	CookieSecure bool
	StaticDir    string
}

// ConfigFrom builds a factory Config from the loaded application configuration
func ConfigFrom(cfg *config.Config, logger *slog.Logger) Config {
	out := Config{
		BackendURL:     cfg.Backend.URL,
		BackendTimeout: cfg.Backend.Timeout,
		Logger:         logger,
		StorageType:    cfg.Storage.Type,
		SessionTTL:     cfg.Session.TTL,
		ContextIdleTTL: cfg.Session.ContextIdleTTL,
		RestoreWait:    cfg.Session.RestoreWait,
		CookieSecure:   cfg.Session.CookieSecure,
		StaticDir:      cfg.Server.StaticDir,
	}
	if cfg.Storage.Type == StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.RedisURL
		redisCfg.SessionTTL = cfg.Session.TTL
		out.RedisConfig = &redisCfg
	}
	return out
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if c.BackendURL == "" {
		c.BackendURL = auth.DefaultConfig().BaseURL
	}
	if c.BackendTimeout == 0 {
		c.BackendTimeout = auth.DefaultConfig().Timeout
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 7 * 24 * time.Hour
	}
	if c.ContextIdleTTL == 0 {
		c.ContextIdleTTL = time.Hour
	}
	if c.RestoreWait == 0 {
		c.RestoreWait = 250 * time.Millisecond
	}
	return c
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	cfg = cfg.withDefaults()
	clk := clock.New()

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New(clk)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig, clk)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(cfg, store, clk, random.New()), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(cfg Config, store storage.Storage, clk clock.Clock, rnd random.Random) *App {
	httpClient := &http.Client{Timeout: cfg.BackendTimeout}

	app := &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		HTTPClient: httpClient,
		AuthService: auth.NewWithClient(auth.Config{
			BaseURL: cfg.BackendURL,
			Timeout: cfg.BackendTimeout,
		}, httpClient, cfg.Logger),
		Logger: cfg.Logger,
		config: cfg,
	}
	app.Registry = session.NewRegistry(app.newContext, clk, cfg.ContextIdleTTL, cfg.Logger)
	return app
}

// newContext builds the session store of one browser context
func (a *App) newContext(contextID string) (*session.Store, *session.CachePersister) {
	logger := a.Logger.With(slog.String("browser_context", contextID))
	persister := session.NewCachePersister(a.Storage, a.config.SessionTTL, logger)
	return session.New(a.AuthService, persister, a.Clock, logger), persister
}

// NewClient returns a backend client bound to store. Callers must Close it.
func (a *App) NewClient(store apiclient.SessionSource) *apiclient.Client {
	client := apiclient.New(a.config.BackendURL, a.HTTPClient, a.Logger)
	client.Bind(store)
	return client
}

// BrowserContext returns the middleware that attaches browser session state
func (a *App) BrowserContext() func(http.Handler) http.Handler {
	return middleware.BrowserContext(middleware.BrowserContextConfig{
		Registry: a.Registry,
		Random:   a.Random,
		Cookies: middleware.CookieConfig{
			Secure:        a.config.CookieSecure,
			SessionMaxAge: a.config.SessionTTL,
			ContextMaxAge: a.config.SessionTTL,
		},
		RestoreWait: a.config.RestoreWait,
		Logger:      a.Logger,
	})
}

// Handler combines the JSON API and the web frontend
func (a *App) Handler() http.Handler {
	browserContext := a.BrowserContext()

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:         a.Logger,
		BrowserContext: browserContext,
		Clients:        a.NewClient,
		Contexts:       a.Registry.Len,
	})

	webRouter := web.NewRouter(web.RouterConfig{
		Logger:         a.Logger,
		BrowserContext: browserContext,
		Clients:        a.NewClient,
		StaticDir:      a.config.StaticDir,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)
	return mux
}

// Close releases the session cache connection, if any
func (a *App) Close() error {
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
