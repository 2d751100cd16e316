// Package backend opens the store selected by DATA_BACKEND.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/config"
	"fintrack/internal/storage"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/supabase"
)

// Kind names a store implementation.
type Kind string

const (
	Memory   Kind = "memory"
	SQLite   Kind = "sqlite"
	Supabase Kind = "supabase"
)

// Kinds lists every supported backend.
func Kinds() []Kind {
	return []Kind{Memory, SQLite, Supabase}
}

func (k Kind) valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Config carries the settings the selected backend needs. Settings of other
// backends are ignored.
type Config struct {
	Kind        Kind
	SQLitePath  string
	SupabaseURL string
	SupabaseKey string
}

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("app config is nil")
	}
	c := Config{
		Kind:        Kind(cfg.DataBackend),
		SQLitePath:  cfg.SQLiteDBPath,
		SupabaseURL: cfg.SupabaseURL,
		SupabaseKey: cfg.SupabaseKey,
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Kind {
	case SQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_DB_PATH is required for the sqlite backend")
		}
	case Supabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
		}
	case Memory:
	default:
		return fmt.Errorf("unknown backend %q (want one of %v)", c.Kind, Kinds())
	}
	return nil
}

// Open returns a ready store. Stores that can be pinged are checked before
// they are handed out.
func Open(ctx context.Context, c Config, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var s store.Store
	switch c.Kind {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(c.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("Opened SQLite store", "db_path", c.SQLitePath)
		s = repo
	case Supabase:
		sb, err := supabase.New(c.SupabaseURL, c.SupabaseKey)
		if err != nil {
			return nil, fmt.Errorf("open supabase store: %w", err)
		}
		logger.Info("Opened Supabase store", "url", c.SupabaseURL)
		s = sb
	case Memory:
		logger.Warn("Using in-memory store; data is lost on restart")
		s = memory.New()
	}

	if p, ok := s.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("%s store unreachable: %w", c.Kind, err)
		}
	}
	return s, nil
}
