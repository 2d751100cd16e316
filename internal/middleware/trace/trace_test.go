package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "fintrack/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{
		Component: "test",
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	m := NewMiddleware(func(*http.Request) string { return "198.51.100.1" }, logger)

	var seenID string
	var seenLogger *applog.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		seenLogger = applog.FromContext(r.Context())
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/balance", nil))

	if !strings.HasPrefix(seenID, "req_") {
		t.Fatalf("request id = %q", seenID)
	}
	if rec.Header().Get(RequestIDHeader) != seenID {
		t.Errorf("header id = %q, want %q", rec.Header().Get(RequestIDHeader), seenID)
	}
	if seenLogger.Component() != applog.ComponentHTTP {
		t.Errorf("context logger component = %q", seenLogger.Component())
	}

	out := buf.String()
	for _, want := range []string{"HTTP request started", "HTTP request completed", "status_code=500", seenID} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 1 || metrics.ServerErrors != 1 || metrics.ClientErrors != 0 {
		t.Errorf("metrics = %+v", metrics)
	}
}

func TestIncomingRequestID(t *testing.T) {
	m := NewMiddleware(nil, nil)
	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	tests := []struct {
		header string
		keep   bool
	}{
		{"abc-123_X", true},
		{"", false},
		{"has space", false},
		{"<script>", false},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set(RequestIDHeader, tt.header)
		}
		h.ServeHTTP(httptest.NewRecorder(), r)
		if tt.keep && seen != tt.header {
			t.Errorf("%q: got %q, want it kept", tt.header, seen)
		}
		if !tt.keep && !strings.HasPrefix(seen, "req_") {
			t.Errorf("%q: got %q, want a generated id", tt.header, seen)
		}
	}
	if got := m.GetMetrics().ClientErrors; got != int64(len(tests)) {
		t.Errorf("ClientErrors = %d, want %d", got, len(tests))
	}
}

func TestRequestIDMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := RequestID(r.Context()); id != "" {
		t.Errorf("RequestID() = %q, want empty", id)
	}
	if a, b := NewRequestID(), NewRequestID(); a == b {
		t.Error("NewRequestID returned duplicates")
	}
}
