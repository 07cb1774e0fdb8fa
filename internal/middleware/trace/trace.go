// Package trace tags requests with an id and records their outcome.
package trace

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-ID"

type ctxKey struct{}

// Recorder receives the outcome of every request.
type Recorder interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Middleware assigns request ids and reports requests to a Recorder.
type Middleware struct {
	recorder Recorder
}

// NewMiddleware creates a new trace middleware; recorder may be nil.
func NewMiddleware(recorder Recorder) *Middleware {
	return &Middleware{recorder: recorder}
}

// Middleware returns HTTP middleware for request tracing. An incoming
// X-Request-ID that parses as a UUID is kept, anything else is replaced.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, requestID))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if m.recorder != nil {
			m.recorder.ObserveRequest(r.Method, routePattern(r), rw.statusCode, time.Since(start))
		}
	})
}

// routePattern returns the matched chi pattern so metrics do not get one
// series per id.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestID extracts the request ID of r.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}
