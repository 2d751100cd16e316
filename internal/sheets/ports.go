// Package sheets defines the spreadsheet mirror the worker keeps in sync
// with committed records and budgets.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters. Implementations must be idempotent: events
// can be redelivered.
type (
	RecordMirror interface {
		AppendRecord(ctx context.Context, r core.Record) error
		RemoveRecord(ctx context.Context, userID, id string) error
	}

	BudgetMirror interface {
		PutBudget(ctx context.Context, b core.Budget) error
		RemoveBudget(ctx context.Context, userID, id string) error
	}

	Mirror interface {
		RecordMirror
		BudgetMirror
	}
)
