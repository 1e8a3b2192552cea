package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ResponseWriter wraps http.ResponseWriter to capture the status code and size,
// and to run hooks just before the headers are sent.
type ResponseWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
	beforeWrite []func(http.Header)
}

// NewResponseWriter wraps w, reusing it when it is already a *ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// BeforeWrite registers fn to run once, immediately before headers are written
func (rw *ResponseWriter) BeforeWrite(fn func(http.Header)) {
	rw.beforeWrite = append(rw.beforeWrite, fn)
}

func (rw *ResponseWriter) writeHeaderOnce(status int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	for _, fn := range rw.beforeWrite {
		fn(rw.Header())
	}
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// WriteHeader captures the status code
func (rw *ResponseWriter) WriteHeader(status int) {
	rw.writeHeaderOnce(status)
}

// Write captures the response size
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	rw.writeHeaderOnce(http.StatusOK)
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Finish sends headers for handlers that wrote nothing
func (rw *ResponseWriter) Finish() {
	rw.writeHeaderOnce(rw.status)
}

// Status returns the captured status code
func (rw *ResponseWriter) Status() int {
	return rw.status
}

// Size returns the captured response size
func (rw *ResponseWriter) Size() int {
	return rw.size
}

// Flush implements http.Flusher for SSE support
func (rw *ResponseWriter) Flush() {
	rw.writeHeaderOnce(http.StatusOK)
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

type logFieldsKey struct{}

// logFields collects attributes added by inner middleware for the request log line
type logFields struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// AddLogAttrs attaches attributes to the request log line, if one is being written
func AddLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	if f, ok := ctx.Value(logFieldsKey{}).(*logFields); ok {
		f.mu.Lock()
		f.attrs = append(f.attrs, attrs...)
		f.mu.Unlock()
	}
}

// Logging creates logging middleware that logs HTTP requests
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := NewResponseWriter(w)
			fields := &logFields{}
			ctx := context.WithValue(r.Context(), logFieldsKey{}, fields)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.status),
				slog.Int("size", wrapped.size),
				slog.Duration("duration", time.Since(start)),
			}
			fields.mu.Lock()
			attrs = append(attrs, fields.attrs...)
			fields.mu.Unlock()

			logger.LogAttrs(r.Context(), slog.LevelInfo, "http request", attrs...)
		})
	}
}
