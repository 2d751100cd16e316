package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger writes the fixed-shape records shared by several
// packages: request start/end, ledger writes and store failures.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) emit(ctx context.Context, level slog.Level, component, msg string, fields LogFields) {
	sl.logger.WithComponent(component).Log(ctx, level, msg, fields.ToSlice()...)
}

// LogHTTPStart logs the start of an HTTP request. Query strings are logged,
// bodies never are.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)
	sl.emit(ctx, slog.LevelDebug, ComponentHTTP, "HTTP request started", fields)
}

// LogHTTPEnd logs request completion at a level derived from the status:
// info below 400, warn for 4xx, error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)
	sl.emit(ctx, level, ComponentHTTP, "HTTP request completed", fields)
}

// LogRecordCreated logs a stored transaction. Descriptions stay out of logs.
func (sl *StructuredLogger) LogRecordCreated(ctx context.Context, userID, recordID string, amountCents int64, category string) {
	fields := NewFields().
		WithRecord(userID, recordID, amountCents, category).
		WithOperation(OpCreate)
	sl.emit(ctx, slog.LevelInfo, ComponentFinance, "Transaction created", fields)
}

// LogBudgetSet logs a budget upsert.
func (sl *StructuredLogger) LogBudgetSet(ctx context.Context, userID, budgetID, category string, month, year int) {
	fields := NewFields().
		WithBudget(userID, budgetID, category, month, year).
		WithOperation(OpUpdate)
	sl.emit(ctx, slog.LevelInfo, ComponentFinance, "Budget set", fields)
}

// LogError logs err under component with any extra fields.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.emit(ctx, slog.LevelError, component, msg, fields.WithError(err).WithOperation(operation))
}
