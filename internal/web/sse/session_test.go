package sse

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tournax/internal/model"
)

func stateFor(username string) model.State {
	return model.State{
		Status:  model.StatusAuthenticated,
		Session: &model.Session{Token: "tok-" + username, User: model.AuthenticatedUser{ID: "1", Username: username}},
	}
}

// staleSource keeps reporting its first state from Snapshot
type staleSource struct {
	mu       sync.Mutex
	snapshot model.State
	fns      []func(model.State)
}

func (s *staleSource) Snapshot() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *staleSource) Subscribe(fn func(model.State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = append(s.fns, fn)
	return func() {}
}

func (s *staleSource) push(st model.State) {
	s.mu.Lock()
	fns := append([]func(model.State){}, s.fns...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// streamRecorder records a stream and signals every flush
type streamRecorder struct {
	mu      sync.Mutex
	header  http.Header
	body    bytes.Buffer
	flushed chan struct{}
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: http.Header{}, flushed: make(chan struct{}, 8)}
}

func (r *streamRecorder) Header() http.Header { return r.header }
func (r *streamRecorder) WriteHeader(int)     {}

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *streamRecorder) Flush() { r.flushed <- struct{}{} }

func (r *streamRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func (r *streamRecorder) waitFlush(t *testing.T) {
	t.Helper()
	select {
	case <-r.flushed:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not flush")
	}
}

func TestSessionStreamReportsObservedState(t *testing.T) {
	src := &staleSource{snapshot: stateFor("alice")}
	rec := newStreamRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events/session", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ServeSessionStream(rec, req, src, "/login", slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	rec.waitFlush(t)
	src.push(stateFor("bob"))
	rec.waitFlush(t)
	src.push(model.State{Status: model.StatusUnauthenticated})
	rec.waitFlush(t)

	cancel()
	<-done

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"event: session\ndata: {\"status\":\"authenticated\",\"username\":\"alice\"}\n\n"+
			"event: session\ndata: {\"status\":\"authenticated\",\"username\":\"bob\"}\n\n"+
			"event: redirect\ndata: {\"location\":\"/login\"}\n\n",
		rec.String())
}

func TestSessionStreamSkipsRepeatedRedirects(t *testing.T) {
	src := &staleSource{snapshot: model.State{Status: model.StatusUnauthenticated}}
	rec := newStreamRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events/session", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ServeSessionStream(rec, req, src, "/login", slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	rec.waitFlush(t)
	src.push(model.State{Status: model.StatusUnauthenticated})
	src.push(stateFor("alice"))
	rec.waitFlush(t)

	cancel()
	<-done

	body := rec.String()
	require.Equal(t, 1, bytes.Count([]byte(body), []byte("event: redirect")))
	assert.Contains(t, body, "\"username\":\"alice\"")
}
