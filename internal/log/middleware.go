package log

import (
	"log/slog"
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware puts a request-scoped logger in the context and logs every
// completed request. requestID and clientIP extract the matching fields;
// either may be nil.
func Middleware(logger *Logger, requestID, clientIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			fields := NewFields().WithComponent(ComponentHTTP)
			if requestID != nil {
				fields.WithRequestID(requestID(r))
			}
			if clientIP != nil {
				fields.WithClientIP(clientIP(r))
			}
			reqLogger := logger.With(fields.ToSlice()...)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(WithContext(r.Context(), reqLogger)))

			LogHTTPEnd(reqLogger, r, rec.status, time.Since(start).Milliseconds())
		})
	}
}

// LogHTTPEnd logs a completed request at a level matching its status.
func LogHTTPEnd(logger *Logger, r *http.Request, statusCode int, durationMs int64) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithHTTPResponse(statusCode, durationMs)
	logger.Log(r.Context(), level, "HTTP request completed", fields.ToSlice()...)
}
