package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/sheets"
)

// MirrorWorker applies record and budget events to a spreadsheet mirror.
type MirrorWorker struct {
	mirror sheets.Mirror
}

func NewMirrorWorker(mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{mirror: mirror}
}

// Handle processes one event. A returned error makes the consumer requeue
// the message, so mirror writes must tolerate replays.
func (w *MirrorWorker) Handle(ctx context.Context, e *amqp.Event) error {
	slog.InfoContext(ctx, "Processing event",
		"type", e.Type,
		"id", e.ID,
		"user_id", e.UserID)

	switch e.Type {
	case amqp.EventRecordCreated:
		r, err := e.RecordValue()
		if err != nil {
			// Malformed payloads never get better; drop them.
			slog.ErrorContext(ctx, "Dropping record event", "id", e.ID, "error", err)
			return nil
		}
		if err := w.mirror.AppendRecord(ctx, r); err != nil {
			return fmt.Errorf("mirror record: %w", err)
		}
	case amqp.EventRecordDeleted:
		if err := w.mirror.RemoveRecord(ctx, e.UserID, e.ID); err != nil {
			return fmt.Errorf("remove mirrored record: %w", err)
		}
	case amqp.EventBudgetSet:
		b, err := e.BudgetValue()
		if err != nil {
			slog.ErrorContext(ctx, "Dropping budget event", "id", e.ID, "error", err)
			return nil
		}
		if err := w.mirror.PutBudget(ctx, b); err != nil {
			return fmt.Errorf("mirror budget: %w", err)
		}
	case amqp.EventBudgetDeleted:
		if err := w.mirror.RemoveBudget(ctx, e.UserID, e.ID); err != nil {
			return fmt.Errorf("remove mirrored budget: %w", err)
		}
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", e.Type)
	}

	slog.InfoContext(ctx, "Event mirrored", "type", e.Type, "id", e.ID)
	return nil
}
