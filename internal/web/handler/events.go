package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/tournax/internal/middleware"
	webmw "github.com/mcoot/tournax/internal/web/middleware"
	"github.com/mcoot/tournax/internal/web/sse"
)

// EventsHandler serves the session event stream of the dashboard
type EventsHandler struct {
	logger *slog.Logger
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(logger *slog.Logger) *EventsHandler {
	return &EventsHandler{logger: logger}
}

// Session streams session changes until the client disconnects
func (h *EventsHandler) Session(w http.ResponseWriter, r *http.Request) {
	store := middleware.GetStore(r.Context())
	if store == nil {
		http.Error(w, "No browser context", http.StatusBadRequest)
		return
	}
	sse.ServeSessionStream(w, r, store, webmw.LoginPath, h.logger)
}
