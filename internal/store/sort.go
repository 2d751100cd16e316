package store

import (
	"fmt"
	"sort"

	"fintrack/internal/core"
)

// SortRecords orders records newest first; records on the same day are
// ordered by creation time, newest first.
func SortRecords(rs []core.Record) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].Date.Equal(rs[j].Date.Time) {
			return rs[i].Date.After(rs[j].Date.Time)
		}
		return rs[i].CreatedAt.After(rs[j].CreatedAt)
	})
}

// BudgetKey identifies the single budget slot of a user.
func BudgetKey(b core.Budget) string {
	return fmt.Sprintf("%s|%s|%d|%d", b.UserID, b.Category, b.Month, b.Year)
}
