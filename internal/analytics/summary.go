package analytics

import (
	"math"
	"sort"
	"time"

	"fintrack/internal/core"
)

// Totals is the income/expense split of a set of records. Expense is
// reported as a positive amount.
type Totals struct {
	Income  core.Money
	Expense core.Money
	Balance core.Money
}

// CategoryAmount is an expense total for one category.
type CategoryAmount struct {
	Category   string
	Amount     core.Money
	Percentage float64 // share of all expenses
	Count      int
}

// MonthTotals is one point of a monthly income/expense series.
type MonthTotals struct {
	Year    int
	Month   int
	Income  core.Money
	Expense core.Money
}

// Label formats the month as "Jan 2025".
func (m MonthTotals) Label() string {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

type QuickStats struct {
	TotalTransactions    int
	AverageExpense       core.Money
	BiggestExpense       core.Money
	SavingsRate          float64
	MostFrequentCategory string // "None" without expenses
}

func Sum(records []core.Record) Totals {
	var t Totals
	for _, r := range records {
		switch {
		case r.IsIncome():
			t.Income.Cents += r.Amount.Cents
		case r.IsExpense():
			t.Expense.Cents -= r.Amount.Cents
		}
	}
	t.Balance = core.Money{Cents: t.Income.Cents - t.Expense.Cents}
	return t
}

// InMonth keeps the records dated in the given month.
func InMonth(records []core.Record, year, month int) []core.Record {
	var out []core.Record
	for _, r := range records {
		if r.Date.In(year, month) {
			out = append(out, r)
		}
	}
	return out
}

// SavingsRate is (income-expense)/income*100 rounded to one decimal, or 0
// without income.
func SavingsRate(t Totals) float64 {
	if t.Income.Cents <= 0 {
		return 0
	}
	rate := float64(t.Income.Cents-t.Expense.Cents) / float64(t.Income.Cents) * 100
	return math.Round(rate*10) / 10
}

// ExpenseByCategory totals expenses per category, largest first. Ties keep
// alphabetical order.
func ExpenseByCategory(records []core.Record) []CategoryAmount {
	idx := map[string]int{}
	var (
		out   []CategoryAmount
		total int64
	)
	for _, r := range records {
		if !r.IsExpense() {
			continue
		}
		i, ok := idx[r.Category]
		if !ok {
			i = len(out)
			idx[r.Category] = i
			out = append(out, CategoryAmount{Category: r.Category})
		}
		out[i].Amount.Cents += r.Amount.Abs().Cents
		out[i].Count++
		total += r.Amount.Abs().Cents
	}
	for i := range out {
		out[i].Percentage = float64(out[i].Amount.Cents) / float64(total) * 100
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TopCategories returns at most n expense categories, largest first.
func TopCategories(records []core.Record, n int) []CategoryAmount {
	all := ExpenseByCategory(records)
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// MonthlySeries returns the last n months ending at (year, month), oldest
// first.
func MonthlySeries(records []core.Record, year, month, n int) []MonthTotals {
	series := make([]MonthTotals, n)
	y, m := year, month
	for i := n - 1; i >= 0; i-- {
		series[i] = MonthTotals{Year: y, Month: m}
		y, m = core.PreviousMonth(y, m)
	}
	pos := make(map[[2]int]int, n)
	for i, p := range series {
		pos[[2]int{p.Year, p.Month}] = i
	}
	for _, r := range records {
		i, ok := pos[[2]int{r.Date.Year(), r.Date.Month()}]
		if !ok {
			continue
		}
		switch {
		case r.IsIncome():
			series[i].Income.Cents += r.Amount.Cents
		case r.IsExpense():
			series[i].Expense.Cents -= r.Amount.Cents
		}
	}
	return series
}

func Stats(records []core.Record) QuickStats {
	totals := Sum(records)
	qs := QuickStats{
		TotalTransactions:    len(records),
		SavingsRate:          SavingsRate(totals),
		MostFrequentCategory: "None",
	}

	var (
		expenses int64
		counts   = map[string]int{}
		order    []string
	)
	for _, r := range records {
		if !r.IsExpense() {
			continue
		}
		expenses++
		abs := r.Amount.Abs()
		if abs.Cents > qs.BiggestExpense.Cents {
			qs.BiggestExpense = abs
		}
		if _, seen := counts[r.Category]; !seen {
			order = append(order, r.Category)
		}
		counts[r.Category]++
	}
	if expenses > 0 {
		qs.AverageExpense = core.Money{Cents: int64(math.Round(float64(totals.Expense.Cents) / float64(expenses)))}
	}
	best := 0
	for _, c := range order {
		if counts[c] > best {
			best = counts[c]
			qs.MostFrequentCategory = c
		}
	}
	return qs
}
