package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/ai"
	"fintrack/internal/analytics"
	"fintrack/internal/charts"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

const (
	TopCategoryCount = 5
	TrendMonths      = 6
	RecentCount      = 10
)

// Dashboard is everything the main page shows.
type Dashboard struct {
	Totals        analytics.Totals
	Stats         analytics.QuickStats
	TopCategories []analytics.CategoryAmount
	Trend         []analytics.MonthTotals
	Budgets       []core.BudgetStatus
	Recent        []core.Record
}

// GetAIInsights summarizes the current month and asks the insight generator
// for suggestions. Results are cached per user and month until the user
// writes something.
func (s *FinanceService) GetAIInsights(ctx context.Context, user *core.User) ([]string, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	today := s.today()
	key := fmt.Sprintf("insights|%d-%02d", today.Year(), today.Month())
	if cached, ok := s.insightCache.Get(user.ID, key); ok {
		return cached, nil
	}

	in, err := s.insightInput(ctx, user.ID, today)
	if err != nil {
		return nil, err
	}

	insights := []string{}
	if s.insights != nil {
		insights = s.insights.Generate(ctx, in)
	}
	// A failed generation is not cached so the next request retries.
	if len(insights) > 0 {
		s.insightCache.Set(user.ID, key, insights)
	}
	return insights, nil
}

func (s *FinanceService) insightInput(ctx context.Context, userID string, today core.Date) (ai.InsightInput, error) {
	year, month := today.Year(), today.Month()
	prevYear, prevMonth := core.PreviousMonth(year, month)
	from, _ := core.MonthRange(prevYear, prevMonth)
	_, to := core.MonthRange(year, month)

	var (
		records []core.Record
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.store.ListRecords(gctx, userID, store.RecordFilter{From: from, To: to})
		if err != nil {
			return storeError(ctx, "list records", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgets(gctx, userID, month, year)
		if err != nil {
			return storeError(ctx, "list budgets", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ai.InsightInput{}, err
	}

	current := analytics.InMonth(records, year, month)
	previous := analytics.Sum(analytics.InMonth(records, prevYear, prevMonth))
	totals := analytics.Sum(current)

	return ai.InsightInput{
		Income:        totals.Income,
		Expense:       totals.Expense,
		SavingsRate:   analytics.SavingsRate(totals),
		TopCategories: analytics.TopCategories(current, TopCategoryCount),
		Trend:         analytics.ClassifyTrend(totals.Expense, previous.Expense),
		Budgets:       analytics.BudgetStatus(budgets, current, year, month),
	}, nil
}

// Dashboard loads all records and the current month's budgets concurrently
// and derives every dashboard figure from them.
func (s *FinanceService) Dashboard(ctx context.Context, user *core.User) (*Dashboard, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	today := s.today()
	var (
		records []core.Record
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.store.ListRecords(gctx, user.ID, store.RecordFilter{})
		if err != nil {
			return storeError(ctx, "list records", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgets(gctx, user.ID, today.Month(), today.Year())
		if err != nil {
			return storeError(ctx, "list budgets", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recent := records
	if len(recent) > RecentCount {
		recent = recent[:RecentCount]
	}
	return &Dashboard{
		Totals:        analytics.Sum(records),
		Stats:         analytics.Stats(records),
		TopCategories: analytics.TopCategories(records, TopCategoryCount),
		Trend:         analytics.MonthlySeries(records, today.Year(), today.Month(), TrendMonths),
		Budgets:       analytics.BudgetStatus(budgets, records, today.Year(), today.Month()),
		Recent:        recent,
	}, nil
}

// TrendChart renders income and expense over the last TrendMonths months.
// charts.ErrNoData is returned when there is nothing to plot.
func (s *FinanceService) TrendChart(ctx context.Context, user *core.User) ([]byte, error) {
	return s.chart(ctx, user, "trend", func(records []core.Record, today core.Date) ([]byte, error) {
		return charts.Trend(analytics.MonthlySeries(records, today.Year(), today.Month(), TrendMonths))
	})
}

// CategoryChart renders the top expense categories of all time.
func (s *FinanceService) CategoryChart(ctx context.Context, user *core.User) ([]byte, error) {
	return s.chart(ctx, user, "categories", func(records []core.Record, _ core.Date) ([]byte, error) {
		return charts.Categories(analytics.TopCategories(records, TopCategoryCount))
	})
}

func (s *FinanceService) chart(ctx context.Context, user *core.User, name string, render func([]core.Record, core.Date) ([]byte, error)) ([]byte, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if png, ok := s.chartCache.Get(user.ID, name); ok {
		return png, nil
	}

	records, err := s.store.ListRecords(ctx, user.ID, store.RecordFilter{})
	if err != nil {
		return nil, storeError(ctx, "chart "+name, err)
	}
	png, err := render(records, s.today())
	if err != nil {
		return nil, err
	}
	s.chartCache.Set(user.ID, name, png)
	return png, nil
}
