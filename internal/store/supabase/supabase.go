// Package supabase stores records, budgets and users in Supabase tables
// through the PostgREST API. See schema.sql for the expected tables.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

const (
	tableRecords = "records"
	tableBudgets = "budgets"
	tableUsers   = "users"

	budgetConflict = "user_id,category,month,year"
)

var errNoRowReturned = errors.New("no row returned")

var newestFirst = &postgrest.OrderOpts{Ascending: false}

type Store struct {
	client *supabase.Client
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

func New(url, key string) (*Store, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Store{client: client, now: time.Now}, nil
}

type recordRow struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	Description  string  `json:"description"`
	AmountCents  int64   `json:"amount_cents"`
	Category     string  `json:"category"`
	Date         string  `json:"date"`
	CreatedAt    string  `json:"created_at"`
	AICategory   string  `json:"ai_category"`
	AIConfidence float64 `json:"ai_confidence"`
}

// budgetRow omits id and created_at when empty so an upsert that hits an
// existing row keeps them.
type budgetRow struct {
	ID         string `json:"id,omitempty"`
	UserID     string `json:"user_id"`
	Category   string `json:"category"`
	LimitCents int64  `json:"limit_cents"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at"`
}

type userRow struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
	CreatedAt string `json:"created_at,omitempty"`
}

func toRecordRow(r core.Record) recordRow {
	return recordRow{
		ID:           r.ID,
		UserID:       r.UserID,
		Description:  r.Description,
		AmountCents:  r.Amount.Cents,
		Category:     r.Category,
		Date:         r.Date.String(),
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339Nano),
		AICategory:   r.AICategory,
		AIConfidence: r.AIConfidence,
	}
}

func (row recordRow) toRecord() (core.Record, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Record{}, err
	}
	created, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
	return core.Record{
		ID:           row.ID,
		UserID:       row.UserID,
		Description:  row.Description,
		Amount:       core.Money{Cents: row.AmountCents},
		Category:     row.Category,
		Date:         d,
		CreatedAt:    created,
		AICategory:   row.AICategory,
		AIConfidence: row.AIConfidence,
	}, nil
}

func (row budgetRow) toBudget() core.Budget {
	created, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
	updated, _ := time.Parse(time.RFC3339Nano, row.UpdatedAt)
	return core.Budget{
		ID:        row.ID,
		UserID:    row.UserID,
		Category:  row.Category,
		Limit:     core.Money{Cents: row.LimitCents},
		Month:     row.Month,
		Year:      row.Year,
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

func (s *Store) CreateRecord(ctx context.Context, r core.Record) (core.Record, error) {
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	if _, _, err := s.client.From(tableRecords).Insert(toRecordRow(r), false, "", "minimal", "").Execute(); err != nil {
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}
	slog.InfoContext(ctx, "Record saved to Supabase", "id", r.ID, "user_id", r.UserID, "amount_cents", r.Amount.Cents)
	return r, nil
}

func (s *Store) GetRecord(_ context.Context, userID, id string) (core.Record, error) {
	data, _, err := s.client.From(tableRecords).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return core.Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	var rows []recordRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.Record{}, fmt.Errorf("decode record: %w", err)
	}
	if len(rows) == 0 {
		return core.Record{}, core.ErrNotFound
	}
	return rows[0].toRecord()
}

func (s *Store) DeleteRecord(ctx context.Context, userID, id string) error {
	data, _, err := s.client.From(tableRecords).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if deletedNone(data) {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Record deleted from Supabase", "id", id, "user_id", userID)
	return nil
}

// ListRecords pushes the date, category and sign predicates to PostgREST and
// applies the description search client-side. The limit is pushed down only
// when no row can be dropped after the fetch.
func (s *Store) ListRecords(_ context.Context, userID string, f store.RecordFilter) ([]core.Record, error) {
	query := s.client.From(tableRecords).
		Select("*", "", false).
		Eq("user_id", userID)
	if !f.From.IsZero() {
		query = query.Gte("date", f.From.String())
	}
	if !f.To.IsZero() {
		query = query.Lte("date", f.To.String())
	}
	if f.Category != "" {
		query = query.Ilike("category", f.Category)
	}
	switch f.Type {
	case store.TypeIncome:
		query = query.Gt("amount_cents", "0")
	case store.TypeExpense:
		query = query.Lt("amount_cents", "0")
	}
	query = query.Order("date", newestFirst).Order("created_at", newestFirst)
	if n, ok := serverLimit(f); ok {
		query = query.Limit(n, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	var rows []recordRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	out := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		r, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		if f.Match(r) {
			out = append(out, r)
		}
	}
	store.SortRecords(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	row := budgetRow{
		UserID:     b.UserID,
		Category:   b.Category,
		LimitCents: b.Limit.Cents,
		Month:      b.Month,
		Year:       b.Year,
		UpdatedAt:  s.now().UTC().Format(time.RFC3339Nano),
	}
	data, _, err := s.client.From(tableBudgets).
		Insert(row, true, budgetConflict, "representation", "").
		Execute()
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	saved, err := decodeUpsertedBudget(data)
	if err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "Budget upserted in Supabase", "id", saved.ID, "user_id", b.UserID, "category", b.Category)
	return saved, nil
}

func decodeUpsertedBudget(data []byte) (core.Budget, error) {
	var rows []budgetRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.Budget{}, fmt.Errorf("decode upserted budget: %w", err)
	}
	if len(rows) == 0 {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", errNoRowReturned)
	}
	return rows[0].toBudget(), nil
}

func (s *Store) ListBudgets(_ context.Context, userID string, month, year int) ([]core.Budget, error) {
	data, _, err := s.client.From(tableBudgets).
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("month", fmt.Sprint(month)).
		Eq("year", fmt.Sprint(year)).
		Order("created_at", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	var rows []budgetRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toBudget())
	}
	return out, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	data, _, err := s.client.From(tableBudgets).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	if deletedNone(data) {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertUser(_ context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		return core.User{}, core.ErrUnauthorized
	}
	row := userRow{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, ImageURL: u.ImageURL}
	data, _, err := s.client.From(tableUsers).Insert(row, true, "id", "representation", "").Execute()
	if err != nil {
		return core.User{}, fmt.Errorf("upsert user: %w", err)
	}
	var rows []userRow
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) > 0 {
		u.CreatedAt, _ = time.Parse(time.RFC3339Nano, rows[0].CreatedAt)
	}
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	data, _, err := s.client.From(tableUsers).Select("*", "", false).Eq("id", id).Execute()
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	var rows []userRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return core.User{}, fmt.Errorf("decode user: %w", err)
	}
	if len(rows) == 0 {
		return core.User{}, core.ErrNotFound
	}
	row := rows[0]
	created, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
	return core.User{ID: row.ID, Email: row.Email, FirstName: row.FirstName, LastName: row.LastName, ImageURL: row.ImageURL, CreatedAt: created}, nil
}

func (s *Store) Close() error { return nil }

// serverLimit reports the row limit PostgREST can apply on its own. The
// description search runs client-side, and ILIKE treats % and _ in a
// category as wildcards, so either one makes the server return every
// candidate.
func serverLimit(f store.RecordFilter) (int, bool) {
	if f.Limit <= 0 {
		return 0, false
	}
	if strings.TrimSpace(f.Search) != "" || strings.ContainsAny(f.Category, `%_\`) {
		return 0, false
	}
	return f.Limit, true
}

func deletedNone(data []byte) bool {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return false
	}
	return len(rows) == 0
}
