package services

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/ai"
	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// DefaultRecommendationMonths is the history window used when none is given.
const DefaultRecommendationMonths = 3

// BudgetInput is a budget as submitted. Zero Month or Year means the
// current one.
type BudgetInput struct {
	Category string
	Limit    string
	Month    int
	Year     int
}

// SetBudget creates or replaces the user's budget for a category and month.
func (s *FinanceService) SetBudget(ctx context.Context, user *core.User, in BudgetInput) (core.Budget, error) {
	if err := requireUser(user); err != nil {
		return core.Budget{}, err
	}
	if strings.TrimSpace(in.Category) == "" {
		return core.Budget{}, core.ErrEmptyCategory
	}
	limit, err := core.ParseAmount(in.Limit)
	if err != nil {
		return core.Budget{}, core.ErrInvalidLimit
	}

	today := s.today()
	b := core.Budget{
		UserID:   user.ID,
		Category: normalizeCategory(in.Category),
		Limit:    limit,
		Month:    in.Month,
		Year:     in.Year,
	}
	if b.Month == 0 {
		b.Month = today.Month()
	}
	if b.Year == 0 {
		b.Year = today.Year()
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.store.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, storeError(ctx, "set budget", err)
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogBudgetSet(ctx, user.ID, saved.ID, saved.Category, saved.Month, saved.Year)

	s.invalidate(user.ID)
	s.publish(ctx, amqp.NewBudgetSet(saved))
	return saved, nil
}

// GetBudgets lists the user's budgets for a month in creation order.
func (s *FinanceService) GetBudgets(ctx context.Context, user *core.User, month, year int) ([]core.Budget, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	month, year = s.defaultPeriod(month, year)
	budgets, err := s.store.ListBudgets(ctx, user.ID, month, year)
	if err != nil {
		return nil, storeError(ctx, "get budgets", err)
	}
	return budgets, nil
}

func (s *FinanceService) DeleteBudget(ctx context.Context, user *core.User, id string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return core.ErrNotFound
	}
	if err := s.store.DeleteBudget(ctx, user.ID, id); err != nil {
		return storeError(ctx, "delete budget", err)
	}

	slog.InfoContext(ctx, "Budget deleted", "user_id", user.ID, "id", id)

	s.invalidate(user.ID)
	s.publish(ctx, amqp.NewDeleted(amqp.EventBudgetDeleted, user.ID, id))
	return nil
}

// GetBudgetStatus reports spending against every budget of the month.
// Unlike the AI features it does not degrade: a store failure is returned
// as core.ErrBackend.
func (s *FinanceService) GetBudgetStatus(ctx context.Context, user *core.User, month, year int) ([]core.BudgetStatus, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	month, year = s.defaultPeriod(month, year)
	budgets, records, err := s.monthData(ctx, user.ID, month, year)
	if err != nil {
		return nil, err
	}
	return analytics.BudgetStatus(budgets, records, year, month), nil
}

// monthData fetches the budgets and expenses of one month concurrently.
func (s *FinanceService) monthData(ctx context.Context, userID string, month, year int) ([]core.Budget, []core.Record, error) {
	first, last := core.MonthRange(year, month)

	var (
		budgets []core.Budget
		records []core.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgets(gctx, userID, month, year)
		if err != nil {
			return storeError(ctx, "list budgets", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.store.ListRecords(gctx, userID, store.RecordFilter{
			From: first,
			To:   last,
			Type: store.TypeExpense,
		})
		if err != nil {
			return storeError(ctx, "list expenses", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return budgets, records, nil
}

// RecommendBudgets proposes monthly limits from the expenses of the last
// months months, the current one included. Nothing is stored.
func (s *FinanceService) RecommendBudgets(ctx context.Context, user *core.User, months int) ([]ai.Recommendation, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if months <= 0 {
		months = DefaultRecommendationMonths
	}

	today := s.today()
	from := core.NewDate(today.Year(), today.Month()-(months-1), 1)
	records, err := s.store.ListRecords(ctx, user.ID, store.RecordFilter{
		From: from,
		To:   today,
		Type: store.TypeExpense,
	})
	if err != nil {
		return nil, storeError(ctx, "recommend budgets", err)
	}

	byCategory := analytics.ExpenseByCategory(records)
	history := make([]ai.CategorySpend, 0, len(byCategory))
	for _, c := range byCategory {
		history = append(history, ai.CategorySpend{Category: c.Category, Spent: c.Amount, Months: months})
	}

	if s.recommender == nil || len(history) == 0 {
		return []ai.Recommendation{}, nil
	}
	return s.recommender.Recommend(ctx, history), nil
}

// ApplyRecommendation stores a recommendation as this month's budget.
func (s *FinanceService) ApplyRecommendation(ctx context.Context, user *core.User, rec ai.Recommendation) (core.Budget, error) {
	today := s.today()
	return s.SetBudget(ctx, user, BudgetInput{
		Category: rec.Category,
		Limit:    rec.RecommendedBudget.String(),
		Month:    today.Month(),
		Year:     today.Year(),
	})
}

func (s *FinanceService) defaultPeriod(month, year int) (int, int) {
	today := s.today()
	if month == 0 {
		month = today.Month()
	}
	if year == 0 {
		year = today.Year()
	}
	return month, year
}
