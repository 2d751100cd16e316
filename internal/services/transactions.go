package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fintrack/internal/ai"
	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/export"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// TransactionInput is an unvalidated transaction as submitted by a user.
// Amount accepts anything core.ParseAmount does; its sign is the direction.
type TransactionInput struct {
	Description string
	// Amount may be an arithmetic expression such as "12.50*3".
	Amount         string
	Direction      Direction
	Category       string
	Date           string // YYYY-MM-DD, empty means today
	AutoCategorize bool
}

// Direction forces the sign of an evaluated amount.
type Direction int

const (
	// AsEntered keeps the sign of the evaluated amount.
	AsEntered Direction = iota
	Income
	Expense
)

// ParseDirection maps a form's "income"/"expense" choice to a Direction.
// Anything else keeps the amount as entered.
func ParseDirection(kind string) Direction {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "income":
		return Income
	case "expense":
		return Expense
	default:
		return AsEntered
	}
}

func (d Direction) apply(m core.Money) core.Money {
	switch d {
	case Income:
		return m.Abs()
	case Expense:
		return m.Abs().Neg()
	default:
		return m
	}
}

// AddTransaction validates and stores a transaction. With AutoCategorize the
// classifier's guess is stored alongside, and used as the category when none
// was submitted.
func (s *FinanceService) AddTransaction(ctx context.Context, user *core.User, in TransactionInput) (core.Record, error) {
	if err := requireUser(user); err != nil {
		return core.Record{}, err
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Record{}, err
	}
	amount = in.Direction.apply(amount)
	if amount.Cents == 0 {
		return core.Record{}, core.ErrInvalidAmount
	}

	date := s.today()
	if strings.TrimSpace(in.Date) != "" {
		if date, err = core.ParseDate(in.Date); err != nil {
			return core.Record{}, err
		}
	}

	r := core.Record{
		UserID:      user.ID,
		Description: core.NormalizeDescription(in.Description),
		Amount:      amount,
		Category:    normalizeCategory(in.Category),
		Date:        date,
	}
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}

	if in.AutoCategorize && s.classifier != nil {
		p := s.classify(ctx, user.ID, r.Description, r.Amount)
		r.AICategory = p.Category
		r.AIConfidence = p.Confidence
		if strings.TrimSpace(in.Category) == "" {
			r.Category = p.Category
		}
	}

	created, err := s.store.CreateRecord(ctx, r)
	if err != nil {
		return core.Record{}, storeError(ctx, "add transaction", err)
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogRecordCreated(ctx, user.ID, created.ID, created.Amount.Cents, created.Category)

	s.invalidate(user.ID)
	s.publish(ctx, amqp.NewRecordCreated(created))
	return created, nil
}

// Categorize suggests a category without storing anything.
func (s *FinanceService) Categorize(ctx context.Context, user *core.User, description, amount string) (ai.Prediction, error) {
	if err := requireUser(user); err != nil {
		return ai.Prediction{}, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return ai.Prediction{}, core.ErrEmptyDescription
	}
	m, err := core.ParseAmount(amount)
	if err != nil {
		return ai.Prediction{}, err
	}
	if s.classifier == nil {
		return ai.FallbackPrediction, nil
	}
	return s.classify(ctx, user.ID, description, m), nil
}

func (s *FinanceService) classify(ctx context.Context, userID, description string, amount core.Money) ai.Prediction {
	recent, err := s.store.ListRecords(ctx, userID, store.RecordFilter{Limit: HistorySize})
	if err != nil {
		// History only improves the guess.
		slog.WarnContext(ctx, "Failed to load categorization history", "error", err)
		recent = nil
	}
	history := make([]ai.HistoryEntry, 0, len(recent))
	for _, r := range recent {
		history = append(history, ai.HistoryEntry{Description: r.Description, Category: r.Category})
	}
	return s.classifier.Classify(ctx, description, amount, history)
}

// QuickAdd turns free text such as "spent 12 on lunch" into a transaction.
func (s *FinanceService) QuickAdd(ctx context.Context, user *core.User, text string) (core.Record, error) {
	if err := requireUser(user); err != nil {
		return core.Record{}, err
	}
	if s.parser == nil {
		return core.Record{}, core.ErrCouldNotParse
	}
	parsed, ok := s.parser.Parse(ctx, text)
	if !ok {
		return core.Record{}, core.ErrCouldNotParse
	}
	return s.AddTransaction(ctx, user, TransactionInput{
		Description: parsed.Description,
		Amount:      parsed.SignedAmount().String(),
		Category:    parsed.Category,
		Date:        parsed.Date.String(),
	})
}

// DeleteTransaction removes one of the user's records. Records of other
// users are reported as core.ErrNotFound.
func (s *FinanceService) DeleteTransaction(ctx context.Context, user *core.User, id string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return core.ErrNotFound
	}
	if err := s.store.DeleteRecord(ctx, user.ID, id); err != nil {
		return storeError(ctx, "delete transaction", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "user_id", user.ID, "id", id)

	s.invalidate(user.ID)
	s.publish(ctx, amqp.NewDeleted(amqp.EventRecordDeleted, user.ID, id))
	return nil
}

// ListTransactions returns the user's records, newest first.
func (s *FinanceService) ListTransactions(ctx context.Context, user *core.User, f store.RecordFilter) ([]core.Record, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, user.ID, f)
	if err != nil {
		return nil, storeError(ctx, "list transactions", err)
	}
	return records, nil
}

// Balance sums every record of the user.
func (s *FinanceService) Balance(ctx context.Context, user *core.User) (analytics.Totals, error) {
	if err := requireUser(user); err != nil {
		return analytics.Totals{}, err
	}
	records, err := s.store.ListRecords(ctx, user.ID, store.RecordFilter{})
	if err != nil {
		return analytics.Totals{}, storeError(ctx, "balance", err)
	}
	return analytics.Sum(records), nil
}

// ExportCSV writes all of the user's records to w and returns the suggested
// file name.
func (s *FinanceService) ExportCSV(ctx context.Context, user *core.User, w io.Writer) (string, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	records, err := s.store.ListRecords(ctx, user.ID, store.RecordFilter{})
	if err != nil {
		return "", storeError(ctx, "export transactions", err)
	}
	if err := export.WriteCSV(w, records); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return export.Filename(s.now()), nil
}

// normalizeCategory maps vocabulary names to their canonical spelling and
// keeps free text as typed. Empty becomes Other.
func normalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return core.CategoryOther
	}
	if core.IsKnownCategory(c) {
		return core.CoerceCategory(c)
	}
	return c
}
