package http

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
	}{
		{"defaults to now", url.Values{}, 2024, 3},
		{"explicit values", url.Values{"year": {"2023"}, "month": {"11"}}, 2023, 11},
		{"out of range month", url.Values{"month": {"13"}}, 2024, 3},
		{"malformed year", url.Values{"year": {"abc"}}, 2024, 3},
		{"year too small", url.Values{"year": {"1900"}, "month": {"1"}}, 2024, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMonthParams(tt.query, now)
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("ParseMonthParams() = %+v, want %d-%d", got, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseRecordFilter(t *testing.T) {
	f, err := ParseRecordFilter(url.Values{
		"search":   {"  coffee "},
		"category": {"Food"},
		"type":     {"expense"},
		"from":     {"2024-01-01"},
		"to":       {"2024-01-31"},
		"limit":    {"10"},
	})
	if err != nil {
		t.Fatalf("ParseRecordFilter() error = %v", err)
	}
	if f.Search != "coffee" || f.Category != "Food" || f.Type != store.TypeExpense || f.Limit != 10 {
		t.Errorf("filter = %+v", f)
	}
	if f.From != core.NewDate(2024, 1, 1) || f.To != core.NewDate(2024, 1, 31) {
		t.Errorf("range = %v..%v", f.From, f.To)
	}

	all, err := ParseRecordFilter(url.Values{"category": {"all"}})
	if err != nil || all.Category != "" || all.Type != store.TypeAll {
		t.Errorf("category=all gave %+v, %v", all, err)
	}

	for _, bad := range []url.Values{
		{"from": {"01/02/2024"}},
		{"to": {"2024-02-30"}},
		{"limit": {"-1"}},
	} {
		if _, err := ParseRecordFilter(bad); !errors.Is(err, core.ErrValidation) {
			t.Errorf("ParseRecordFilter(%v) error = %v, want validation error", bad, err)
		}
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"description":"Lunch","amount":12.5,"month":3,"autoCategorize":true}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.IsJSON() {
		t.Error("IsJSON() = false")
	}
	if p.Get("description") != "Lunch" || p.Get("amount") != "12.5" {
		t.Errorf("values = %q %q", p.Get("description"), p.Get("amount"))
	}
	if p.GetInt("month") != 3 || !p.GetBool("autoCategorize") {
		t.Errorf("month = %d, autoCategorize = %v", p.GetInt("month"), p.GetBool("autoCategorize"))
	}
	if p.Get("missing") != "" || p.GetInt("missing") != 0 {
		t.Error("missing keys must be empty")
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("description=Bus+ticket&amount=2.40&autoCategorize=on&note=a%00b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.IsJSON() {
		t.Error("IsJSON() = true for a form")
	}
	if p.Get("description") != "Bus ticket" || !p.GetBool("autoCategorize") {
		t.Errorf("description = %q", p.Get("description"))
	}
	if p.Get("note") != "ab" {
		t.Errorf("control characters not stripped: %q", p.Get("note"))
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"broken"`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("Parse() accepted malformed JSON")
	}
	if err := p.Parse(); err == nil {
		t.Error("second Parse() must return the same error")
	}
}
