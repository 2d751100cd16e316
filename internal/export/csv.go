// Package export writes a user's transactions as a spreadsheet-friendly CSV.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"fintrack/internal/core"
)

var header = []string{"Date", "Description", "Category", "Amount", "Type"}

// Filename is the download name for an export made on day.
func Filename(day time.Time) string {
	return "transactions_" + day.Format("2006-01-02") + ".csv"
}

// WriteCSV writes one header line and one line per record, in the order
// given. Amounts are unsigned; the Type column carries the direction.
func WriteCSV(w io.Writer, records []core.Record) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(header, ",") + "\n"); err != nil {
		return err
	}
	for _, r := range records {
		kind := "Expense"
		if r.IsIncome() {
			kind = "Income"
		}
		_, err := fmt.Fprintf(bw, "%d/%d/%d,%s,%s,%s,%s\n",
			r.Date.Month(), r.Date.Day(), r.Date.Year(),
			quote(r.Description),
			field(r.Category),
			r.Amount.Abs().String(),
			kind,
		)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// lineBreaks keeps every record on one line so the file stays one row per
// transaction for line-based readers.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// quote always wraps s in double quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(lineBreaks.Replace(s), `"`, `""`) + `"`
}

// field quotes s only when it contains a comma or a quote.
func field(s string) string {
	s = lineBreaks.Replace(s)
	if strings.ContainsAny(s, ",\"") {
		return quote(s)
	}
	return s
}
