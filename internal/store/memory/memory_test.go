package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func rec(user, desc string, cents int64, cat string, d core.Date) core.Record {
	return core.Record{UserID: user, Description: desc, Amount: core.Money{Cents: cents}, Category: cat, Date: d}
}

func TestRecordsListedNewestFirstAndFiltered(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, r := range []core.Record{
		rec("u1", "Lunch", -1200, "Food", core.NewDate(2025, 3, 2)),
		rec("u1", "Salary", 300000, "Salary", core.NewDate(2025, 3, 1)),
		rec("u1", "Bus pass", -4000, "Transportation", core.NewDate(2025, 3, 5)),
		rec("u2", "Other user", -100, "Food", core.NewDate(2025, 3, 3)),
	} {
		if _, err := s.CreateRecord(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := s.ListRecords(ctx, "u1", store.RecordFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 records, got %d (err=%v)", len(all), err)
	}
	if all[0].Description != "Bus pass" || all[2].Description != "Salary" {
		t.Fatalf("unexpected order: %v, %v, %v", all[0].Description, all[1].Description, all[2].Description)
	}

	exp, _ := s.ListRecords(ctx, "u1", store.RecordFilter{Type: store.TypeExpense})
	if len(exp) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(exp))
	}
	food, _ := s.ListRecords(ctx, "u1", store.RecordFilter{Category: "food", Search: "LUN"})
	if len(food) != 1 || food[0].Description != "Lunch" {
		t.Fatalf("unexpected filtered result: %+v", food)
	}
	limited, _ := s.ListRecords(ctx, "u1", store.RecordFilter{Limit: 1})
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestDeleteRecordOwnership(t *testing.T) {
	ctx := context.Background()
	s := New()
	r, err := s.CreateRecord(ctx, rec("owner", "Rent", -90000, "Bills", core.NewDate(2025, 1, 1)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.DeleteRecord(ctx, "intruder", r.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if _, err := s.GetRecord(ctx, "owner", r.ID); err != nil {
		t.Fatalf("record must survive foreign delete: %v", err)
	}
	if err := s.DeleteRecord(ctx, "owner", r.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := s.DeleteRecord(ctx, "owner", r.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUpsertBudgetKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	s := New()
	b := core.Budget{UserID: "u1", Category: "Food", Limit: core.Money{Cents: 20000}, Month: 4, Year: 2025}

	first, err := s.UpsertBudget(ctx, b)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	b.Limit = core.Money{Cents: 35000}
	second, err := s.UpsertBudget(ctx, b)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("upsert must keep the original id: %s != %s", first.ID, second.ID)
	}

	list, _ := s.ListBudgets(ctx, "u1", 4, 2025)
	if len(list) != 1 || list[0].Limit.Cents != 35000 {
		t.Fatalf("expected one budget with latest limit, got %+v", list)
	}

	if err := s.DeleteBudget(ctx, "u2", first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign budget delete, got %v", err)
	}
}

func TestUpsertUserKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := New()
	u, err := s.UpsertUser(ctx, core.User{ID: "u1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	u2, _ := s.UpsertUser(ctx, core.User{ID: "u1", Email: "b@example.com"})
	if !u2.CreatedAt.Equal(u.CreatedAt) || u2.Email != "b@example.com" {
		t.Fatalf("unexpected user after second upsert: %+v", u2)
	}
}
