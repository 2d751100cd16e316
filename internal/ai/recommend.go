package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// CategorySpend is the expense total of one category over Months months.
type CategorySpend struct {
	Category string
	Spent    core.Money
	Months   int
}

type Recommendation struct {
	Category          string
	RecommendedBudget core.Money
	Reasoning         string
}

type Recommender struct {
	completer Completer
}

func NewRecommender(c Completer) *Recommender {
	return &Recommender{completer: c}
}

// Recommend proposes one monthly limit per category. It only reads; applying
// a recommendation is a separate budget update. Failure yields an empty list.
func (r *Recommender) Recommend(ctx context.Context, history []CategorySpend) []Recommendation {
	if len(history) == 0 {
		return []Recommendation{}
	}
	raw, err := complete(ctx, r.completer,
		"You are a financial advisor. Always respond with valid JSON only.",
		recommendPrompt(history), 0.4, 800)
	if err != nil {
		slog.WarnContext(ctx, "Budget recommendation failed", "error", err)
		return []Recommendation{}
	}
	items, err := decodeList(raw, "recommendations")
	if err != nil {
		slog.WarnContext(ctx, "Budget recommendation unreadable", "error", err)
		return []Recommendation{}
	}

	out := make([]Recommendation, 0, len(items))
	seen := map[string]bool{}
	for _, item := range items {
		var o object
		if json.Unmarshal(item, &o) != nil || o == nil {
			continue
		}
		rec := Recommendation{Category: core.CategoryOther}
		if cat, ok := o.str("category"); ok {
			rec.Category = core.CoerceCategory(cat)
		}
		if seen[rec.Category] {
			continue
		}
		seen[rec.Category] = true
		if amt, ok := o.number("recommendedBudget"); ok && amt > 0 {
			if m, err := core.MoneyFromFloat(amt); err == nil {
				rec.RecommendedBudget = m
			}
		}
		rec.Reasoning, _ = o.str("reasoning")
		out = append(out, rec)
	}
	return out
}

func recommendPrompt(history []CategorySpend) string {
	var b strings.Builder
	b.WriteString("You are a financial advisor. Based on this spending history, recommend monthly budgets for each category:\n\n")
	for _, h := range history {
		months := max(h.Months, 1)
		avg := h.Spent.Decimal().Div(decimal.NewFromInt(int64(months)))
		fmt.Fprintf(&b, "- %s: $%s over %d months (avg: $%s/month)\n", h.Category, h.Spent, months, avg.StringFixed(2))
	}
	b.WriteString("\nFor each category, provide:\n")
	b.WriteString("- category: the category name\n")
	b.WriteString("- recommendedBudget: suggested monthly budget (number, realistic but encourages some savings)\n")
	b.WriteString("- reasoning: brief explanation (max 30 words)\n\n")
	b.WriteString("Consider:\n")
	b.WriteString("- Past average spending\n")
	b.WriteString("- Some buffer for flexibility (10-15%)\n")
	b.WriteString("- Encouraging modest savings where possible\n\n")
	b.WriteString(`Respond with a JSON object {"recommendations": [...]}. Use valid JSON only.`)
	return b.String()
}
