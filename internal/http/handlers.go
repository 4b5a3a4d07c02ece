package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady replays the log to prove the store is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	events, err := s.service.Events(ctx)
	if err != nil {
		checks["event_store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["event_store"] = map[string]any{"status": "ok", "events": len(events)}
	}

	stats := s.projections.Stats()
	checks["cache"] = map[string]any{
		"status":  "ok",
		"entries": stats.Size,
	}
	checks["rate_limiter"] = map[string]any{
		"status":         "ok",
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	NewJSONResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request, cache and security counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	cacheStats := s.projections.Stats()

	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_requests_failed_total", "Requests answered with a 5xx status", "counter", traceMetrics.FailedRequests)
	metric("http_response_time_avg_microseconds", "Mean handling time of completed requests", "gauge", traceMetrics.AverageResponseTime)
	metric("projection_cache_hits_total", "Projection cache hits", "counter", cacheStats.Hits)
	metric("projection_cache_misses_total", "Projection cache misses", "counter", cacheStats.Misses)
	metric("projection_cache_evictions_total", "Projections evicted to respect the size limit", "counter", cacheStats.Evictions)
	metric("projection_cache_entries", "Current projection cache entries", "gauge", cacheStats.Size)
	metric("rate_limit_rejections_total", "Commands rejected by the rate limiter", "counter", rateLimitMetrics.Rejected)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "Application uptime in seconds", "gauge", fmt.Sprintf("%.0f", time.Since(s.started).Seconds()))
}
