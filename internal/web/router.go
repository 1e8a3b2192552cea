package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tournax/internal/middleware"
	"github.com/mcoot/tournax/internal/web/handler"
	webmw "github.com/mcoot/tournax/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger *slog.Logger
	// BrowserContext attaches the per-browser session store to each request
	BrowserContext func(http.Handler) http.Handler
	Clients        handler.ClientFactory
	StaticDir      string // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := webmw.Recovery(cfg.Logger)
	flashMiddleware := webmw.Flash()
	requireSession := webmw.RequireSession()

	// Apply global middleware to all routes
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Create handlers
	homeHandler := handler.NewHomeHandler(cfg.Clients, cfg.Logger)
	authHandler := handler.NewAuthHandler(cfg.Logger)
	tournamentHandler := handler.NewTournamentHandler(cfg.Clients, cfg.Logger)
	matchHandler := handler.NewMatchHandler(cfg.Clients, cfg.Logger)
	playerHandler := handler.NewPlayerHandler(cfg.Clients, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(cfg.Logger)

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	// Public routes
	public := r.NewRoute().Subrouter()
	public.Use(cfg.BrowserContext)
	public.Use(flashMiddleware)
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	public.HandleFunc("/login", authHandler.LoginPage).Methods(http.MethodGet)
	public.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	public.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Protected routes (guarded per navigation)
	protected := r.PathPrefix("/dashboard").Subrouter()
	protected.Use(cfg.BrowserContext)
	protected.Use(flashMiddleware)
	protected.Use(requireSession)

	protected.HandleFunc("", homeHandler.Dashboard).Methods(http.MethodGet)
	protected.HandleFunc("/profile", homeHandler.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/events", eventsHandler.Session).Methods(http.MethodGet)

	// Tournament routes
	protected.HandleFunc("/list/tournaments", tournamentHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/list/tournaments", tournamentHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/list/tournaments/new", tournamentHandler.New).Methods(http.MethodGet)
	protected.HandleFunc("/list/tournaments/{id:[0-9]+}", tournamentHandler.View).Methods(http.MethodGet)
	protected.HandleFunc("/list/tournaments/{id:[0-9]+}", tournamentHandler.Update).Methods(http.MethodPost)
	protected.HandleFunc("/list/tournaments/{id:[0-9]+}/edit", tournamentHandler.Edit).Methods(http.MethodGet)

	// Match routes
	protected.HandleFunc("/list/matches/{id:[0-9]+}", matchHandler.View).Methods(http.MethodGet)
	protected.HandleFunc("/list/matches/{id:[0-9]+}/score", matchHandler.Score).Methods(http.MethodPost)

	// Player routes
	protected.HandleFunc("/list/users/{id:[0-9]+}", playerHandler.View).Methods(http.MethodGet)

	return r
}
