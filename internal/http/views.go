package http

import (
	"fmt"
	"math"
	"time"

	"fintrack/internal/ai"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

// JSON representations. Amounts are in currency units.
type (
	transactionJSON struct {
		ID           string    `json:"id"`
		Description  string    `json:"description"`
		Amount       float64   `json:"amount"`
		Category     string    `json:"category"`
		Date         string    `json:"date"`
		Type         string    `json:"type"`
		AICategory   string    `json:"aiCategory,omitempty"`
		AIConfidence float64   `json:"aiConfidence,omitempty"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	budgetJSON struct {
		ID       string  `json:"id"`
		Category string  `json:"category"`
		Limit    float64 `json:"limit"`
		Month    int     `json:"month"`
		Year     int     `json:"year"`
	}

	budgetStatusJSON struct {
		BudgetID   string  `json:"budgetId"`
		Category   string  `json:"category"`
		Limit      float64 `json:"limit"`
		Spent      float64 `json:"spent"`
		Percentage float64 `json:"percentage"`
		Level      string  `json:"level"`
	}

	totalsJSON struct {
		Balance float64 `json:"balance"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}

	categoryJSON struct {
		Category   string  `json:"category"`
		Amount     float64 `json:"amount"`
		Percentage float64 `json:"percentage"`
		Count      int     `json:"count"`
	}

	monthJSON struct {
		Month   string  `json:"month"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}

	statsJSON struct {
		TotalTransactions    int     `json:"totalTransactions"`
		AverageExpense       float64 `json:"averageExpense"`
		BiggestExpense       float64 `json:"biggestExpense"`
		SavingsRate          float64 `json:"savingsRate"`
		MostFrequentCategory string  `json:"mostFrequentCategory"`
	}

	dashboardJSON struct {
		Totals        totalsJSON         `json:"totals"`
		Stats         statsJSON          `json:"stats"`
		TopCategories []categoryJSON     `json:"topCategories"`
		Trend         []monthJSON        `json:"trend"`
		Budgets       []budgetStatusJSON `json:"budgets"`
		Recent        []transactionJSON  `json:"recent"`
	}

	predictionJSON struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}

	recommendationJSON struct {
		Category          string  `json:"category"`
		RecommendedBudget float64 `json:"recommendedBudget"`
		Reasoning         string  `json:"reasoning"`
	}
)

func recordType(r core.Record) string {
	if r.IsIncome() {
		return "income"
	}
	return "expense"
}

func toTransactionJSON(r core.Record) transactionJSON {
	return transactionJSON{
		ID:           r.ID,
		Description:  r.Description,
		Amount:       r.Amount.Float(),
		Category:     r.Category,
		Date:         r.Date.String(),
		Type:         recordType(r),
		AICategory:   r.AICategory,
		AIConfidence: r.AIConfidence,
		CreatedAt:    r.CreatedAt,
	}
}

func toTransactionsJSON(records []core.Record) []transactionJSON {
	out := make([]transactionJSON, 0, len(records))
	for _, r := range records {
		out = append(out, toTransactionJSON(r))
	}
	return out
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{ID: b.ID, Category: b.Category, Limit: b.Limit.Float(), Month: b.Month, Year: b.Year}
}

func toBudgetStatusesJSON(statuses []core.BudgetStatus) []budgetStatusJSON {
	out := make([]budgetStatusJSON, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, budgetStatusJSON{
			BudgetID:   st.BudgetID,
			Category:   st.Category,
			Limit:      st.Limit.Float(),
			Spent:      st.Spent.Float(),
			Percentage: st.Percentage,
			Level:      st.Level(),
		})
	}
	return out
}

func toTotalsJSON(t analytics.Totals) totalsJSON {
	return totalsJSON{Balance: t.Balance.Float(), Income: t.Income.Float(), Expense: t.Expense.Float()}
}

func toRecommendationsJSON(recs []ai.Recommendation) []recommendationJSON {
	out := make([]recommendationJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recommendationJSON{
			Category:          rec.Category,
			RecommendedBudget: rec.RecommendedBudget.Float(),
			Reasoning:         rec.Reasoning,
		})
	}
	return out
}

func toDashboardJSON(d *services.Dashboard) dashboardJSON {
	out := dashboardJSON{
		Totals: toTotalsJSON(d.Totals),
		Stats: statsJSON{
			TotalTransactions:    d.Stats.TotalTransactions,
			AverageExpense:       d.Stats.AverageExpense.Float(),
			BiggestExpense:       d.Stats.BiggestExpense.Float(),
			SavingsRate:          d.Stats.SavingsRate,
			MostFrequentCategory: d.Stats.MostFrequentCategory,
		},
		TopCategories: make([]categoryJSON, 0, len(d.TopCategories)),
		Trend:         make([]monthJSON, 0, len(d.Trend)),
		Budgets:       toBudgetStatusesJSON(d.Budgets),
		Recent:        toTransactionsJSON(d.Recent),
	}
	for _, c := range d.TopCategories {
		out.TopCategories = append(out.TopCategories, categoryJSON{
			Category: c.Category, Amount: c.Amount.Float(), Percentage: c.Percentage, Count: c.Count,
		})
	}
	for _, m := range d.Trend {
		out.Trend = append(out.Trend, monthJSON{Month: m.Label(), Income: m.Income.Float(), Expense: m.Expense.Float()})
	}
	return out
}

// Template views. Values are formatted here so templates stay logic-free.
type (
	transactionRow struct {
		ID          string
		Description string
		Amount      string
		Category    string
		Date        string
		Income      bool
		AIHint      string
	}

	transactionsView struct {
		Items    []transactionRow
		Search   string
		Category string
		Type     string
	}

	budgetRow struct {
		ID        string
		Category  string
		Limit     string
		Spent     string
		Remaining string
		Percent   string
		Width     int
		Level     string
		Warning   string
	}

	budgetsView struct {
		Month string
		Items []budgetRow
	}

	categoryRow struct {
		Category string
		Amount   string
		Percent  string
		Width    int
	}

	recommendationRow struct {
		Category  string
		Amount    string
		Reasoning string
	}

	insightsView struct {
		Insights []string
	}

	recommendationsView struct {
		Items []recommendationRow
	}

	indexView struct {
		UserName      string
		Today         string
		Balance       string
		Income        string
		Expense       string
		Stats         statsRow
		TopCategories []categoryRow
		Transactions  transactionsView
		Budgets       budgetsView
		Categories    []string
	}

	statsRow struct {
		TotalTransactions    int
		AverageExpense       string
		BiggestExpense       string
		SavingsRate          string
		MostFrequentCategory string
	}
)

func toTransactionRows(records []core.Record) []transactionRow {
	rows := make([]transactionRow, 0, len(records))
	for _, r := range records {
		row := transactionRow{
			ID:          r.ID,
			Description: r.Description,
			Amount:      formatMoney(r.Amount),
			Category:    r.Category,
			Date:        r.Date.Format("Jan 2, 2006"),
			Income:      r.IsIncome(),
		}
		if r.AICategory != "" {
			row.AIHint = fmt.Sprintf("AI: %s (%.0f%%)", r.AICategory, r.AIConfidence*100)
		}
		rows = append(rows, row)
	}
	return rows
}

func toBudgetsView(year, month int, statuses []core.BudgetStatus) budgetsView {
	v := budgetsView{
		Month: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006"),
		Items: make([]budgetRow, 0, len(statuses)),
	}
	for _, st := range statuses {
		row := budgetRow{
			ID:        st.BudgetID,
			Category:  st.Category,
			Limit:     formatMoney(st.Limit),
			Spent:     formatMoney(st.Spent),
			Remaining: formatMoney(st.Remaining()),
			Percent:   fmt.Sprintf("%.0f%%", st.Percentage),
			Width:     barWidth(st.Percentage),
			Level:     st.Level(),
		}
		switch row.Level {
		case "exceeded":
			row.Warning = "Budget exceeded"
		case "warning":
			row.Warning = "Approaching budget limit"
		}
		v.Items = append(v.Items, row)
	}
	return v
}

// barWidth turns a percentage into a progress bar width, capped at 100 and
// at least 2 for any non-zero value so small amounts stay visible.
func barWidth(pct float64) int {
	if pct <= 0 || math.IsNaN(pct) {
		return 0
	}
	w := int(math.Round(pct))
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}

func toCategoryRows(cats []analytics.CategoryAmount) []categoryRow {
	rows := make([]categoryRow, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, categoryRow{
			Category: c.Category,
			Amount:   formatMoney(c.Amount),
			Percent:  fmt.Sprintf("%.1f%%", c.Percentage),
			Width:    barWidth(c.Percentage),
		})
	}
	return rows
}

func toRecommendationRows(recs []ai.Recommendation) []recommendationRow {
	rows := make([]recommendationRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, recommendationRow{
			Category:  rec.Category,
			Amount:    rec.RecommendedBudget.String(),
			Reasoning: rec.Reasoning,
		})
	}
	return rows
}

func toStatsRow(st analytics.QuickStats) statsRow {
	return statsRow{
		TotalTransactions:    st.TotalTransactions,
		AverageExpense:       formatMoney(st.AverageExpense),
		BiggestExpense:       formatMoney(st.BiggestExpense),
		SavingsRate:          fmt.Sprintf("%.1f%%", st.SavingsRate),
		MostFrequentCategory: st.MostFrequentCategory,
	}
}
