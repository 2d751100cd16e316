// Package analytics derives budget status, trends and summary figures from
// records. Everything here is pure; callers fetch the data.
package analytics

import "fintrack/internal/core"

// BudgetStatus joins budgets with the expenses of the given month. Only
// budgeted categories are reported, in budget order; spending in other
// categories is ignored. Records outside the month are skipped, so callers
// may pass a wider slice.
func BudgetStatus(budgets []core.Budget, records []core.Record, year, month int) []core.BudgetStatus {
	spent := make(map[string]int64)
	for _, r := range records {
		if !r.IsExpense() || !r.Date.In(year, month) {
			continue
		}
		spent[r.Category] += r.Amount.Abs().Cents
	}

	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		s := core.BudgetStatus{
			BudgetID: b.ID,
			Category: b.Category,
			Limit:    b.Limit,
			Spent:    core.Money{Cents: spent[b.Category]},
		}
		if b.Limit.Cents > 0 {
			s.Percentage = float64(s.Spent.Cents) / float64(b.Limit.Cents) * 100
		}
		out = append(out, s)
	}
	return out
}
