package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateUp(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateRecord(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO records (id, user_id, description, amount_cents, category, date, created_at, ai_category, ai_confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Description, rec.Amount.Cents, rec.Category,
		rec.Date.String(), rec.CreatedAt.UTC().Format(timeLayout), rec.AICategory, rec.AIConfidence)
	if err != nil {
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", rec.ID,
		"user_id", rec.UserID,
		"amount_cents", rec.Amount.Cents,
		"category", rec.Category,
		"date", rec.Date.String())

	return rec, nil
}

const recordColumns = `id, user_id, description, amount_cents, category, date, created_at, ai_category, ai_confidence`

func (r *SQLiteRepository) GetRecord(ctx context.Context, userID, id string) (core.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ? AND user_id = ?`, id, userID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Record deleted from SQLite", "id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) ListRecords(ctx context.Context, userID string, f store.RecordFilter) ([]core.Record, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.String())
	}
	if f.Category != "" {
		where = append(where, "lower(category) = lower(?)")
		args = append(args, f.Category)
	}
	switch f.Type {
	case store.TypeIncome:
		where = append(where, "amount_cents > 0")
	case store.TypeExpense:
		where = append(where, "amount_cents < 0")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "instr(lower(description), lower(?)) > 0")
		args = append(args, s)
	}

	query := `SELECT ` + recordColumns + ` FROM records WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := r.now().UTC().Format(timeLayout)

	var createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO budgets (id, user_id, category, limit_cents, month, year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category, month, year)
		DO UPDATE SET limit_cents = excluded.limit_cents, updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at`,
		b.ID, b.UserID, b.Category, b.Limit.Cents, b.Month, b.Year, now, now,
	).Scan(&b.ID, &createdAt, &updatedAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	b.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	b.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)

	slog.InfoContext(ctx, "Budget upserted in SQLite",
		"id", b.ID,
		"user_id", b.UserID,
		"category", b.Category,
		"limit_cents", b.Limit.Cents,
		"month", b.Month,
		"year", b.Year)

	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string, month, year int) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category, limit_cents, month, year, created_at, updated_at
		FROM budgets WHERE user_id = ? AND month = ? AND year = ?
		ORDER BY created_at, category`, userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b                    core.Budget
			createdAt, updatedAt string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Limit.Cents, &b.Month, &b.Year, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		b.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		return core.User{}, core.ErrUnauthorized
	}
	var createdAt string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			image_url = excluded.image_url
		RETURNING created_at`,
		u.ID, u.Email, u.FirstName, u.LastName, u.ImageURL, r.now().UTC().Format(timeLayout),
	).Scan(&createdAt)
	if err != nil {
		return core.User{}, fmt.Errorf("upsert user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	var (
		u         core.User
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, image_url, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.ImageURL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (core.Record, error) {
	var (
		rec             core.Record
		date, createdAt string
	)
	if err := s.Scan(&rec.ID, &rec.UserID, &rec.Description, &rec.Amount.Cents, &rec.Category,
		&date, &createdAt, &rec.AICategory, &rec.AIConfidence); err != nil {
		return core.Record{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Record{}, err
	}
	rec.Date = d
	rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return rec, nil
}
