package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/storage"
	"fintrack/internal/store/memory"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Kind: Memory}, nil)
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", s)
	}

	s, err = Open(ctx, Config{Kind: SQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")}, nil)
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	if _, ok := s.(*storage.SQLiteRepository); !ok {
		t.Fatalf("expected *storage.SQLiteRepository, got %T", s)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Kind: Memory}, ""},
		{"sqlite", Config{Kind: SQLite, SQLitePath: "x.db"}, ""},
		{"sqlite without path", Config{Kind: SQLite}, "SQLITE_DB_PATH"},
		{"supabase", Config{Kind: Supabase, SupabaseURL: "https://x.supabase.co", SupabaseKey: "k"}, ""},
		{"supabase without key", Config{Kind: Supabase, SupabaseURL: "https://x.supabase.co"}, "SUPABASE_KEY"},
		{"unknown", Config{Kind: "sheets"}, `unknown backend "sheets"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Open(context.Background(), Config{Kind: Supabase}, nil); err == nil {
		t.Fatal("expected supabase backend without credentials to fail")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "supabase", SupabaseURL: "https://x.supabase.co", SupabaseKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Kind != Supabase || cfg.SupabaseKey != "k" {
		t.Fatalf("unexpected backend config: %+v", cfg)
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected unknown backend to fail")
	}
}
