// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user input,
// including simple arithmetic such as "12.50*3", and for converting between
// cents and decimal representations.
package core

import (
	"math"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/shopspring/decimal"
)

// Money is a signed amount in cents.
type Money struct {
	Cents int64
}

// MaxAmountUnits bounds the magnitude of any amount, in currency units.
const MaxAmountUnits = 1_000_000_000_000

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(MaxAmountUnits).Mul(hundred)

	plainNumber = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
	expression  = regexp.MustCompile(`^[0-9+\-*/(). ]+$`)
)

// MoneyFromDecimal rounds d half away from zero to whole cents. Amounts
// larger than MaxAmountUnits in magnitude are rejected with ErrInvalidAmount.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MoneyFromFloat converts a float amount (e.g. from a model response).
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(decimal.NewFromFloat(f))
}

// ParseAmount parses user-entered amounts.
//
// Accepted forms:
//
//	ParseAmount("12.34")    -> 1234
//	ParseAmount("12,34")    -> 1234 (decimal comma)
//	ParseAmount("$1,200")   -> 120000 (thousands separator)
//	ParseAmount("12.5*3")   -> 3750
//	ParseAmount("-40")      -> -4000
//
// Division by zero, non-finite results and amounts beyond MaxAmountUnits
// are rejected with ErrInvalidAmount.
// Zero is accepted here; callers decide whether zero is valid.
func ParseAmount(s string) (Money, error) {
	s = normalizeAmount(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}

	if plainNumber.MatchString(s) {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Money{}, ErrInvalidAmount
		}
		return MoneyFromDecimal(d)
	}

	if !expression.MatchString(s) {
		return Money{}, ErrInvalidAmount
	}
	expr, err := govaluate.NewEvaluableExpression(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	result, err := expr.Evaluate(nil)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	v, ok := result.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromFloat(v)
}

func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", "€", "", " ", "").Replace(s)
	if s == "" {
		return s
	}
	hasDot := strings.Contains(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case commas == 0:
	case hasDot:
		s = strings.ReplaceAll(s, ",", "")
	case commas == 1 && len(s)-strings.Index(s, ",")-1 <= 2:
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

// Decimal returns the amount as a decimal number of currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in currency units for display and prompts.
// Use cents for arithmetic.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Neg flips the sign of m.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// String formats the amount with two decimals, e.g. "-12.30".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
