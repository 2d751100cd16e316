// Package store defines the persistence ports used by the finance service.
// Every operation is scoped by the owning user's identifier.
package store

import (
	"context"
	"strings"

	"fintrack/internal/core"
)

type RecordType string

const (
	TypeAll     RecordType = "all"
	TypeIncome  RecordType = "income"
	TypeExpense RecordType = "expense"
)

// ParseRecordType maps free input onto a RecordType, defaulting to TypeAll.
func ParseRecordType(s string) RecordType {
	switch RecordType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeIncome:
		return TypeIncome
	case TypeExpense:
		return TypeExpense
	default:
		return TypeAll
	}
}

// RecordFilter narrows a record listing. Zero values mean "no constraint".
type RecordFilter struct {
	From     core.Date // inclusive
	To       core.Date // inclusive
	Category string
	Type     RecordType
	Search   string // case-insensitive substring of the description
	Limit    int
}

// Match applies the filter to a single record. Stores that cannot push a
// predicate down to their backend use it client-side.
func (f RecordFilter) Match(r core.Record) bool {
	if !f.From.IsZero() && r.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To.Time) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(r.Category, f.Category) {
		return false
	}
	switch f.Type {
	case TypeIncome:
		if !r.IsIncome() {
			return false
		}
	case TypeExpense:
		if !r.IsExpense() {
			return false
		}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		if !strings.Contains(strings.ToLower(r.Description), strings.ToLower(s)) {
			return false
		}
	}
	return true
}

// Ports for persistence adapters.
type (
	// RecordStore lists records ordered by date descending. Deleting a record
	// owned by another user reports core.ErrNotFound.
	RecordStore interface {
		CreateRecord(ctx context.Context, r core.Record) (core.Record, error)
		GetRecord(ctx context.Context, userID, id string) (core.Record, error)
		DeleteRecord(ctx context.Context, userID, id string) error
		ListRecords(ctx context.Context, userID string, f RecordFilter) ([]core.Record, error)
	}

	// BudgetStore keeps at most one budget per (user, category, month, year).
	// UpsertBudget returns the stored budget, which keeps its original ID when
	// it replaced an existing one.
	BudgetStore interface {
		UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		ListBudgets(ctx context.Context, userID string, month, year int) ([]core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id string) error
	}

	UserStore interface {
		UpsertUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
	}

	// Store is a complete persistence backend.
	Store interface {
		RecordStore
		BudgetStore
		UserStore
		Close() error
	}
)
