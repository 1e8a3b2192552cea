// Package sse streams session state changes to the browser.
package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/tournax/internal/guard"
	"github.com/mcoot/tournax/internal/model"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for pending guard decisions
	decisionBufferSize = 16
)

// SessionSource is the store a stream watches
type SessionSource interface {
	guard.Source
}

// observation is a guard decision with the state it was made from
type observation struct {
	state    model.State
	decision guard.Decision
}

type sessionEvent struct {
	Status   string `json:"status"`
	Username string `json:"username,omitempty"`
}

type redirectEvent struct {
	Location string `json:"location"`
}

// ServeSessionStream keeps a route guard mounted for the lifetime of the
// connection. Every time the session becomes unauthenticated the client gets
// exactly one redirect event; re-authentication emits a session event.
func ServeSessionStream(w http.ResponseWriter, r *http.Request, store SessionSource, loginPath string, logger *slog.Logger) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	decisions := make(chan observation, decisionBufferSize)
	stop := guard.New(loginPath).WatchStates(store, func(st model.State, d guard.Decision) {
		if d.Kind == guard.Pending {
			return
		}
		select {
		case decisions <- observation{state: st, decision: d}:
		default:
			logger.Warn("session stream dropped a decision", slog.String("kind", d.Kind.String()))
		}
	})
	defer stop()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case o := <-decisions:
			if err := writeDecision(w, o.state, o.decision); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}

func writeDecision(w http.ResponseWriter, st model.State, d guard.Decision) error {
	switch d.Kind {
	case guard.Redirect:
		return writeEvent(w, "redirect", redirectEvent{Location: d.Location})
	case guard.Render:
		ev := sessionEvent{Status: model.StatusAuthenticated.String()}
		if user := st.User(); user != nil {
			ev.Username = user.Username
		}
		return writeEvent(w, "session", ev)
	default:
		return writeEvent(w, "session", sessionEvent{Status: model.StatusLoading.String()})
	}
}

func writeEvent(w http.ResponseWriter, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
