package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"fintrack/internal/core"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{core.ErrUnauthorized, http.StatusUnauthorized, "Please sign in"},
		{fmt.Errorf("quick add: %w", core.ErrCouldNotParse), http.StatusUnprocessableEntity, "Could not understand that transaction"},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity, "Invalid amount"},
		{fmt.Errorf("create: %w", core.ErrEmptyDescription), http.StatusUnprocessableEntity, "Empty description"},
		{core.ErrNotFound, http.StatusNotFound, "Not found"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "Failed"},
	}
	for _, tt := range tests {
		status, msg := errorStatus(tt.err, "Failed")
		if status != tt.wantStatus || msg != tt.wantMsg {
			t.Errorf("errorStatus(%v) = %d %q, want %d %q", tt.err, status, msg, tt.wantStatus, tt.wantMsg)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{123450, "$1,234.50"},
		{-1200, "-$12.00"},
		{123456789, "$1,234,567.89"},
	}
	for _, tt := range tests {
		if got := formatMoney(core.Money{Cents: tt.cents}); got != tt.want {
			t.Errorf("formatMoney(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		pct  float64
		want int
	}{
		{0, 0},
		{0.4, 2},
		{55.5, 56},
		{180, 100},
	}
	for _, tt := range tests {
		if got := barWidth(tt.pct); got != tt.want {
			t.Errorf("barWidth(%v) = %d, want %d", tt.pct, got, tt.want)
		}
	}
}
