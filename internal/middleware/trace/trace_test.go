package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "budgie/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware(applog.Discard(), nil)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if seen == "" || rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("request ID %q not echoed (header %q)", seen, rr.Header().Get(HeaderRequestID))
	}
	metrics := m.GetMetrics()
	if metrics.TotalRequests != 1 || metrics.FailedRequests != 1 {
		t.Errorf("metrics = %+v", metrics)
	}
}

func TestMiddlewareReusesValidIncomingID(t *testing.T) {
	m := NewMiddleware(applog.Discard(), nil)
	h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{"uuid", "0b6f3c1e-8a2d-4f5b-9c7e-1d2e3f4a5b6c", true},
		{"garbage", "<script>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set(HeaderRequestID, tt.incoming)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, r)
			if got := rr.Header().Get(HeaderRequestID) == tt.incoming; got != tt.reuse {
				t.Errorf("reused = %v, want %v", got, tt.reuse)
			}
		})
	}
}

func TestMiddlewareLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelDebug, Format: applog.FormatText, Output: &buf})
	m := NewMiddleware(logger, func(*http.Request) string { return "192.0.2.7" })
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/accounts/nobody/transactions", nil))

	id := rr.Header().Get(HeaderRequestID)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected start and end lines, got %q", buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, "request_id="+id) || !strings.Contains(line, "client_ip=192.0.2.7") {
			t.Errorf("line missing request fields: %s", line)
		}
	}
	if !strings.Contains(lines[1], "level=WARN") || !strings.Contains(lines[1], "component=trace") {
		t.Errorf("404 should log a trace warning: %s", lines[1])
	}
}
