package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tournax/internal/api/handler"
	"github.com/mcoot/tournax/internal/api/middleware"
	"github.com/mcoot/tournax/internal/api/response"
	sharedmw "github.com/mcoot/tournax/internal/middleware"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger *slog.Logger
	// BrowserContext attaches the per-browser session store to each request
	BrowserContext func(http.Handler) http.Handler
	Clients        handler.ClientFactory
	// Contexts reports the number of live browser contexts for the health check
	Contexts func() int
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.Clients, cfg.Logger)

	// Create middleware
	requireSession := middleware.RequireSession()
	loggingMiddleware := sharedmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no browser context)
	api.HandleFunc("/health", healthHandler(cfg.Contexts)).Methods(http.MethodGet)

	// Session routes
	sessions := api.PathPrefix("/session").Subrouter()
	sessions.Use(cfg.BrowserContext)
	sessions.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	sessions.HandleFunc("", sessionHandler.Login).Methods(http.MethodPost)
	sessions.HandleFunc("", sessionHandler.Logout).Methods(http.MethodDelete)

	// Protected session routes
	protected := sessions.NewRoute().Subrouter()
	protected.Use(requireSession)
	protected.HandleFunc("/profile", sessionHandler.Profile).Methods(http.MethodGet)

	return r
}

func healthHandler(contexts func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := response.HealthResponse{Status: "ok"}
		if contexts != nil {
			resp.Contexts = contexts()
		}
		response.JSON(w, http.StatusOK, resp)
	}
}
