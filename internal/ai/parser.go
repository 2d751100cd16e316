package ai

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"fintrack/internal/core"
)

// ParsedTransaction is the structured form of a free-text entry. Amount is
// never negative; IsIncome carries the direction.
type ParsedTransaction struct {
	Description string
	Amount      core.Money
	Category    string
	Date        core.Date
	IsIncome    bool
}

// SignedAmount applies the income/expense direction to Amount.
func (p ParsedTransaction) SignedAmount() core.Money {
	if p.IsIncome {
		return p.Amount
	}
	return p.Amount.Neg()
}

type Parser struct {
	completer Completer
	now       func() time.Time
}

func NewParser(c Completer) *Parser {
	return &Parser{completer: c, now: time.Now}
}

// Parse extracts a transaction from text such as "Spent $45 on groceries
// yesterday". The boolean is false when nothing usable came back; that is
// different from a parsed zero amount.
func (p *Parser) Parse(ctx context.Context, text string) (*ParsedTransaction, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	today := core.DateOf(p.now())

	raw, err := complete(ctx, p.completer,
		"You are a financial data parser. Always respond with valid JSON only.",
		parsePrompt(text, today), 0.2, 300)
	if err != nil {
		slog.WarnContext(ctx, "Natural language parse failed", "error", err)
		return nil, false
	}
	o, err := decodeObject(raw)
	if err != nil {
		slog.WarnContext(ctx, "Natural language parse unreadable", "error", err)
		return nil, false
	}

	out := &ParsedTransaction{
		Description: "Transaction",
		Category:    core.CategoryOther,
		Date:        today,
		IsIncome:    o.isTrue("isIncome"),
	}
	if d, ok := o.str("description"); ok {
		out.Description = d
	}
	if amt, ok := o.number("amount"); ok {
		m, err := core.MoneyFromFloat(math.Abs(amt))
		if err != nil {
			slog.WarnContext(ctx, "Natural language parse returned an unusable amount", "amount", amt)
			return nil, false
		}
		out.Amount = m
	}
	if cat, ok := o.str("category"); ok {
		out.Category = core.CoerceCategory(cat)
	}
	if ds, ok := o.str("date"); ok {
		if d, err := core.ParseDate(ds); err == nil {
			out.Date = d
		}
	}
	return out, true
}

func parsePrompt(text string, today core.Date) string {
	var b strings.Builder
	b.WriteString("Parse this natural language transaction into structured data:\n\n")
	fmt.Fprintf(&b, "%q\n\n", text)
	b.WriteString("Extract:\n")
	b.WriteString("- description: what was purchased/received (concise)\n")
	b.WriteString("- amount: numeric value (positive number)\n")
	fmt.Fprintf(&b, "- category: choose from [%s]\n", strings.Join(core.Categories, ", "))
	b.WriteString("- date: ISO format (YYYY-MM-DD), default to today if not specified\n")
	b.WriteString("- isIncome: true if it's income, false if expense\n\n")
	fmt.Fprintf(&b, "Today's date: %s\n\n", today)
	b.WriteString("Examples:\n")
	fmt.Fprintf(&b, `- "Spent $45 on groceries yesterday" → {"description": "Groceries", "amount": 45, "category": "Food", "date": "%s", "isIncome": false}`+"\n",
		today.AddDate(0, 0, -1).Format(time.DateOnly))
	fmt.Fprintf(&b, `- "Got paid $2000 salary" → {"description": "Salary payment", "amount": 2000, "category": "Salary", "date": "%s", "isIncome": true}`+"\n\n",
		today)
	b.WriteString("Respond ONLY with valid JSON, no additional text.")
	return b.String()
}
