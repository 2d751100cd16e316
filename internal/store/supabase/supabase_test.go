package supabase

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func TestRecordRowMapping(t *testing.T) {
	in := core.Record{
		ID:           "r1",
		UserID:       "u1",
		Description:  "Train ticket",
		Amount:       core.Money{Cents: -2350},
		Category:     "Transportation",
		Date:         core.NewDate(2025, 2, 28),
		CreatedAt:    time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC),
		AICategory:   "Transportation",
		AIConfidence: 0.9,
	}
	row := toRecordRow(in)
	if row.Date != "2025-02-28" || row.AmountCents != -2350 {
		t.Fatalf("unexpected row: %+v", row)
	}
	out, err := row.toRecord()
	if err != nil {
		t.Fatalf("toRecord: %v", err)
	}
	if out.Amount != in.Amount || !out.Date.Equal(in.Date.Time) || !out.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("mapping lost data: %+v", out)
	}
}

func TestBudgetRowOmitsIDForUpsert(t *testing.T) {
	b, err := json.Marshal(budgetRow{UserID: "u1", Category: "Food", LimitCents: 100, Month: 1, Year: 2025})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), `"id"`) || strings.Contains(string(b), `"created_at"`) {
		t.Fatalf("upsert payload must not carry id or created_at: %s", b)
	}
}

func TestDeletedNone(t *testing.T) {
	if !deletedNone([]byte(`[]`)) {
		t.Fatal("empty array means nothing was deleted")
	}
	if deletedNone([]byte(`[{"id":"x"}]`)) {
		t.Fatal("one row means something was deleted")
	}
}

func TestDecodeUpsertedBudget(t *testing.T) {
	b, err := decodeUpsertedBudget([]byte(`[{"id":"b1","user_id":"u1","category":"Food","limit_cents":5000,"month":3,"year":2025}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.ID != "b1" || b.Limit.Cents != 5000 || b.Month != 3 {
		t.Fatalf("unexpected budget: %+v", b)
	}

	_, err = decodeUpsertedBudget([]byte(`[]`))
	if !errors.Is(err, errNoRowReturned) {
		t.Fatalf("empty result error = %v, want errNoRowReturned", err)
	}
	if strings.Contains(err.Error(), "%!") {
		t.Fatalf("malformed error message: %q", err)
	}

	if _, err := decodeUpsertedBudget([]byte(`{`)); err == nil || errors.Is(err, errNoRowReturned) {
		t.Fatalf("bad JSON error = %v", err)
	}
}

func TestServerLimit(t *testing.T) {
	tests := []struct {
		name   string
		filter store.RecordFilter
		want   int
		wantOK bool
	}{
		{"no limit", store.RecordFilter{}, 0, false},
		{"limit only", store.RecordFilter{Limit: 5}, 5, true},
		{"limit with pushed predicates", store.RecordFilter{Limit: 10, Category: "Food", Type: store.TypeExpense}, 10, true},
		{"search is client-side", store.RecordFilter{Limit: 5, Search: "coffee"}, 0, false},
		{"blank search", store.RecordFilter{Limit: 5, Search: "  "}, 5, true},
		{"wildcard category", store.RecordFilter{Limit: 5, Category: "Food_Drink"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := serverLimit(tt.filter)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("serverLimit() = %d, %v; want %d, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
