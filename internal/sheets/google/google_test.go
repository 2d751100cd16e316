package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"fintrack/internal/core"
)

func TestNewClient_MissingSpreadsheetID(t *testing.T) {
	_, err := NewClient(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), Config{SpreadsheetID: "sheet"})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{
		{"ID"},
		{},
		{"abc"},
		{" def "},
	}
	tests := []struct {
		id   string
		want int
	}{
		{"abc", 3},
		{"def", 4},
		{"missing", 0},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestFindOwnedRow(t *testing.T) {
	values := [][]any{
		{"ID", "User"},
		{"r1", "alice"},
		{"r2"},
		{"r2", "bob"},
	}
	if got := findOwnedRow(values, "alice", "r1"); got != 2 {
		t.Errorf("own row = %d, want 2", got)
	}
	if got := findOwnedRow(values, "alice", "r2"); got != 0 {
		t.Errorf("foreign row = %d, want 0", got)
	}
	if got := findOwnedRow(values, "bob", "r2"); got != 4 {
		t.Errorf("bob row = %d, want 4", got)
	}
}

func TestRecordRow(t *testing.T) {
	r := core.Record{
		ID:           "r1",
		UserID:       "u1",
		Description:  "Taxi",
		Amount:       core.Money{Cents: -1850},
		Category:     "Transportation",
		Date:         core.NewDate(2024, 3, 9),
		AICategory:   "Transportation",
		AIConfidence: 0.875,
		CreatedAt:    time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC),
	}
	row := recordRow(r)
	if len(row) != len(recordHeader) {
		t.Fatalf("row has %d cells, header %d", len(row), len(recordHeader))
	}
	if row[2] != "2024-03-09" || row[5] != 18.5 || row[6] != "Expense" || row[8] != "0.88" {
		t.Errorf("row = %v", row)
	}
	if row[9] != "2024-03-09T08:30:00Z" {
		t.Errorf("created = %v", row[9])
	}

	r.Amount = core.Money{Cents: 100}
	r.AICategory = ""
	row = recordRow(r)
	if row[6] != "Income" || row[8] != "" {
		t.Errorf("row = %v", row)
	}
}

func TestBudgetRow(t *testing.T) {
	b := core.Budget{ID: "b1", UserID: "u1", Category: "Food", Limit: core.Money{Cents: 20000}, Month: 3, Year: 2024}
	row := budgetRow(b)
	if len(row) != len(budgetHeader) {
		t.Fatalf("row has %d cells, header %d", len(row), len(budgetHeader))
	}
	if row[2] != "Food" || row[3] != 3 || row[5] != 200.0 {
		t.Errorf("row = %v", row)
	}
}

func TestOAuthClientConfig(t *testing.T) {
	if _, err := OAuthClientConfig("", ""); err == nil {
		t.Fatal("expected error without an OAuth client")
	}

	client := `{"installed":{"client_id":"cid","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	cfg, err := OAuthClientConfig(client, "")
	if err != nil {
		t.Fatalf("OAuthClientConfig() error = %v", err)
	}
	if cfg.ClientID != "cid" || len(cfg.Scopes) != 1 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if _, err := ReadToken(path); err == nil {
		t.Fatal("expected error for a missing token file")
	}

	if err := SaveToken(path, &oauth2.Token{RefreshToken: "refresh", TokenType: "Bearer"}); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %v, want 0600", perm)
	}
	tok, err := ReadToken(path)
	if err != nil || tok.RefreshToken != "refresh" {
		t.Errorf("ReadToken() = %+v, %v", tok, err)
	}

	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadToken(path); err == nil {
		t.Error("ReadToken() accepted an empty token")
	}
}

func TestNewClient_OAuthTokenMissing(t *testing.T) {
	_, err := NewClient(context.Background(), Config{
		SpreadsheetID:   "sheet",
		OAuthClientJSON: `{"installed":{"client_id":"cid","client_secret":"s","auth_uri":"https://a","token_uri":"https://t"}}`,
		OAuthTokenFile:  filepath.Join(t.TempDir(), "absent.json"),
	})
	if err == nil {
		t.Fatal("expected error when the token file is missing")
	}
}
