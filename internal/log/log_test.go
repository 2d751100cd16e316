package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{
		Handler: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	base := newBufferLogger(&buf)
	if base.Component() != ComponentApp {
		t.Errorf("default component = %q", base.Component())
	}

	logger := base.With("queue", "mirror").WithComponent(ComponentWorker).With("attempt", 2)
	logger.Info("started")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=worker") {
		t.Errorf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "queue=mirror") || !strings.Contains(out, "attempt=2") {
		t.Errorf("attributes lost: %s", out)
	}
}

func TestContext(t *testing.T) {
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Errorf("default component = %q", got)
	}

	var buf bytes.Buffer
	logger := newBufferLogger(&buf).WithComponent(ComponentAuth)
	ctx := NewContext(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatalf("FromContext() = %+v", got)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf).With(FieldRequestID, "req_1"))
	ctx := context.Background()

	sl.LogRecordCreated(ctx, "u1", "r1", -1250, "Food")
	sl.LogBudgetSet(ctx, "u1", "b1", "Food", 3, 2024)
	sl.LogError(ctx, "Store operation failed", errors.New("disk full"), ComponentStorage, OpCreate, nil)

	out := buf.String()
	for _, want := range []string{
		"record_id=r1", "amount_cents=-1250", "budget_id=b1", "month=3",
		"component=finance", "error=\"disk full\"", "component=storage", "request_id=req_1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "component=app") {
		t.Errorf("records should carry only their own component:\n%s", out)
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{503, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		NewStructuredLogger(newBufferLogger(&buf)).LogHTTPEnd(context.Background(), tt.status, 12, "")
		out := buf.String()
		if !strings.Contains(out, tt.level) || strings.Contains(out, "client_ip") {
			t.Errorf("status %d: %s", tt.status, out)
		}
	}

	var buf bytes.Buffer
	r := httptest.NewRequest("GET", "/api/transactions?type=expense", nil)
	NewStructuredLogger(newBufferLogger(&buf)).LogHTTPStart(context.Background(), r, "203.0.113.9")
	out := buf.String()
	if !strings.Contains(out, `query="type=expense"`) || !strings.Contains(out, "client_ip=203.0.113.9") {
		t.Errorf("start record: %s", out)
	}
}
