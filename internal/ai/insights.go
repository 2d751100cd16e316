package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

const (
	MaxInsights      = 4
	MaxInsightLength = 100
)

// InsightInput is the aggregated month the insights are written about.
type InsightInput struct {
	Income        core.Money
	Expense       core.Money
	SavingsRate   float64
	TopCategories []analytics.CategoryAmount
	Trend         analytics.Trend
	Budgets       []core.BudgetStatus
}

type Insights struct {
	completer Completer
}

func NewInsights(c Completer) *Insights {
	return &Insights{completer: c}
}

// Generate returns up to MaxInsights short suggestions, or an empty list
// when the completion fails.
func (g *Insights) Generate(ctx context.Context, in InsightInput) []string {
	raw, err := complete(ctx, g.completer,
		"You are a helpful financial advisor. Always respond with valid JSON only.",
		insightPrompt(in), 0.6, 500)
	if err != nil {
		slog.WarnContext(ctx, "Insight generation failed", "error", err)
		return []string{}
	}
	items, err := decodeList(raw, "insights")
	if err != nil {
		slog.WarnContext(ctx, "Insight response unreadable", "error", err)
		return []string{}
	}

	out := make([]string, 0, MaxInsights)
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) != nil {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, truncate(s, MaxInsightLength))
		if len(out) == MaxInsights {
			break
		}
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

func insightPrompt(in InsightInput) string {
	var b strings.Builder
	b.WriteString("You are a financial advisor. Analyze this financial data and provide 3-4 actionable insights:\n\n")
	b.WriteString("Financial Summary:\n")
	fmt.Fprintf(&b, "- Total Income: $%s\n", in.Income)
	fmt.Fprintf(&b, "- Total Expenses: $%s\n", in.Expense)
	fmt.Fprintf(&b, "- Savings Rate: %.1f%%\n", in.SavingsRate)
	fmt.Fprintf(&b, "- Spending Trend: %s\n\n", in.Trend)

	b.WriteString("Top Spending Categories:\n")
	for _, c := range in.TopCategories {
		fmt.Fprintf(&b, "- %s: $%s\n", c.Category, c.Amount)
	}

	b.WriteString("\nBudget Status:\n")
	for _, s := range in.Budgets {
		fmt.Fprintf(&b, "- %s: $%s / $%s (%.0f%%)\n", s.Category, s.Spent, s.Limit, s.Percentage)
	}

	b.WriteString("\nProvide 3-4 specific, actionable insights as a JSON array of strings. Each insight should be:\n")
	b.WriteString("- Personalized to this data\n")
	b.WriteString("- Actionable (suggest what to do)\n")
	b.WriteString("- Concise (max 100 characters)\n\n")
	b.WriteString(`Format: {"insights": ["insight 1", "insight 2", "insight 3"]}`)
	return b.String()
}
