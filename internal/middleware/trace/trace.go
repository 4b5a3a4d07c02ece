// Package trace tags each API request with an ID and logs its timing.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "budgie/internal/log"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// Middleware assigns request IDs and records request counters.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.StructuredLogger

	total   atomic.Int64
	failed  atomic.Int64
	elapsed atomic.Int64 // microseconds, summed over completed requests
}

// Metrics is a point-in-time copy of the middleware counters.
type Metrics struct {
	TotalRequests  int64
	FailedRequests int64
	// AverageResponseTime is in microseconds.
	AverageResponseTime int64
}

// NewMiddleware logs through logger under the trace component. extractIP
// may be nil, in which case client IPs are left out of the log.
func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		logger:    applog.NewStructuredLogger(logger.WithComponent(applog.ComponentTrace)),
	}
}

// Middleware wraps next. An incoming X-Request-ID is reused when it is a
// valid UUID; otherwise a fresh one is issued and echoed in the response.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var clientIP string
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		id := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		r = r.WithContext(ctx)

		m.total.Add(1)
		m.logger.LogHTTPStart(ctx, r, id, clientIP)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		took := time.Since(start)
		m.elapsed.Add(took.Microseconds())
		if rec.status >= http.StatusInternalServerError {
			m.failed.Add(1)
		}
		m.logger.LogHTTPEnd(ctx, r, id, rec.status, took.Milliseconds(), clientIP)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// GetRequestID returns the ID assigned by the middleware, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID reads the ID set by the trace middleware. It is the extractor
// handed to applog.RequestIDMiddleware.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}

// GetMetrics returns current metrics.
func (m *Middleware) GetMetrics() Metrics {
	total := m.total.Load()
	metrics := Metrics{TotalRequests: total, FailedRequests: m.failed.Load()}
	if total > 0 {
		metrics.AverageResponseTime = m.elapsed.Load() / total
	}
	return metrics
}
