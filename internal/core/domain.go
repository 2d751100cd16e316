package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLength bounds record descriptions, in characters, after
// trimming.
const MaxDescriptionLength = 200

type (
	Date struct {
		time.Time
	}

	// Record is a single income or expense transaction. The sign of Amount is
	// the only income/expense discriminator.
	Record struct {
		ID           string
		UserID       string
		Description  string
		Amount       Money
		Category     string
		Date         Date
		CreatedAt    time.Time
		AICategory   string  // empty when no suggestion was requested
		AIConfidence float64 // 0-1, meaningful only with AICategory
	}

	// Budget is a monthly spending limit for one category.
	Budget struct {
		ID        string
		UserID    string
		Category  string
		Limit     Money
		Month     int // 1-12
		Year      int
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// BudgetStatus joins a budget with the spending of its period. It is
	// always derived, never stored.
	BudgetStatus struct {
		BudgetID   string
		Category   string
		Limit      Money
		Spent      Money
		Percentage float64
	}

	User struct {
		ID        string
		Email     string
		FirstName string
		LastName  string
		ImageURL  string
		CreatedAt time.Time
	}
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrBackend       = errors.New("backend failure")
	ErrCouldNotParse = errors.New("could not parse")

	ErrInvalidDay         = fmt.Errorf("%w: invalid day", ErrValidation)
	ErrInvalidMonth       = fmt.Errorf("%w: invalid month", ErrValidation)
	ErrInvalidYear        = fmt.Errorf("%w: invalid year", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidLimit       = fmt.Errorf("%w: budget limit must be positive", ErrValidation)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, MaxDescriptionLength)
	ErrMultilineText      = fmt.Errorf("%w: description must be a single line", ErrValidation)
	ErrEmptyCategory      = fmt.Errorf("%w: empty category", ErrValidation)
	ErrMissingDate        = fmt.Errorf("%w: date cannot be zero", ErrValidation)
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMissingDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// In reports whether the date falls in the given year and month (1-12).
func (d Date) In(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return DateOf(t), nil
}

// PreviousMonth returns the year and month before the given one.
func PreviousMonth(year, month int) (int, int) {
	if month <= 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// MonthRange returns the first and last day of the given month.
func MonthRange(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}

// IsIncome reports whether the record adds money.
func (r Record) IsIncome() bool {
	return r.Amount.Cents > 0
}

// IsExpense reports whether the record spends money.
func (r Record) IsExpense() bool {
	return r.Amount.Cents < 0
}

// NormalizeDescription collapses every run of whitespace, line breaks
// included, into a single space and trims the ends.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (r Record) Validate() error {
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if strings.ContainsAny(desc, "\r\n") {
		return ErrMultilineText
	}
	if r.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if r.AIConfidence < 0 || r.AIConfidence > 1 {
		return fmt.Errorf("%w: ai confidence out of range", ErrValidation)
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Limit.Cents <= 0 {
		return ErrInvalidLimit
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1970 || b.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// Level buckets the status for display.
func (s BudgetStatus) Level() string {
	switch {
	case s.Percentage >= 100:
		return "exceeded"
	case s.Percentage >= 80:
		return "warning"
	default:
		return "ok"
	}
}

// Remaining is the money left before the limit; negative when exceeded.
func (s BudgetStatus) Remaining() Money {
	return Money{Cents: s.Limit.Cents - s.Spent.Cents}
}

// DisplayName joins first and last name, falling back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
