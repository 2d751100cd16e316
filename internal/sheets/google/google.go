// Package google mirrors records and budgets into a Google spreadsheet using
// a service account or a stored OAuth token of a personal account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

const DefaultBudgetSheet = "Budgets"

var (
	recordHeader = []any{"ID", "User", "Date", "Description", "Category", "Amount", "Type", "AI Category", "AI Confidence", "Created"}
	budgetHeader = []any{"ID", "User", "Category", "Month", "Year", "Limit", "Updated"}
)

var _ ports.Mirror = (*Client)(nil)

// Config selects the spreadsheet and the credentials. A service account
// (CredentialsJSON wins over CredentialsFile) is preferred; otherwise the
// OAuth client and the token written by fintrack-sheets-auth are used.
type Config struct {
	SpreadsheetID   string
	RecordSheet     string
	BudgetSheet     string
	CredentialsFile string
	CredentialsJSON string

	OAuthClientFile string
	OAuthClientJSON string
	OAuthTokenFile  string
}

// Client writes one row per record to RecordSheet and one row per budget to
// BudgetSheet. Column A holds the entity ID and is used to find rows again.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	recordSheet   string
	budgetSheet   string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if cfg.RecordSheet == "" {
		cfg.RecordSheet = "Transactions"
	}
	if cfg.BudgetSheet == "" {
		cfg.BudgetSheet = DefaultBudgetSheet
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		recordSheet:   cfg.RecordSheet,
		budgetSheet:   cfg.BudgetSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service from the configured credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var creds goption.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		creds = goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		creds = goption.WithCredentialsFile(cfg.CredentialsFile)
	case strings.TrimSpace(cfg.OAuthTokenFile) != "":
		oauthCfg, err := OAuthClientConfig(cfg.OAuthClientJSON, cfg.OAuthClientFile)
		if err != nil {
			return nil, err
		}
		tok, err := ReadToken(cfg.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Using OAuth user token", "path", cfg.OAuthTokenFile)
		creds = goption.WithHTTPClient(oauthCfg.Client(ctx, tok))
	default:
		return nil, errors.New("missing Google credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE or GOOGLE_OAUTH_TOKEN_FILE)")
	}

	opts := []goption.ClientOption{creds}
	if strings.TrimSpace(cfg.CredentialsJSON) != "" || strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, goption.WithScopes(gsheet.SpreadsheetsScope))
	}
	service, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// EnsureHeaders writes the header rows when the sheets are empty.
func (c *Client) EnsureHeaders(ctx context.Context) error {
	for sheet, header := range map[string][]any{c.recordSheet: recordHeader, c.budgetSheet: budgetHeader} {
		ids, err := c.readIDs(ctx, sheet)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			continue
		}
		rng := fmt.Sprintf("%s!A1", sheet)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header of %s: %w", sheet, err)
		}
	}
	return nil
}

// AppendRecord adds the record unless a row with its ID already exists.
func (c *Client) AppendRecord(ctx context.Context, r core.Record) error {
	ids, err := c.readIDs(ctx, c.recordSheet)
	if err != nil {
		return err
	}
	if findRow(ids, r.ID) > 0 {
		slog.InfoContext(ctx, "Record already mirrored", "id", r.ID)
		return nil
	}
	return c.append(ctx, c.recordSheet, recordRow(r))
}

func (c *Client) RemoveRecord(ctx context.Context, userID, id string) error {
	return c.clearRow(ctx, c.recordSheet, userID, id)
}

// PutBudget updates the budget row in place or appends it.
func (c *Client) PutBudget(ctx context.Context, b core.Budget) error {
	ids, err := c.readIDs(ctx, c.budgetSheet)
	if err != nil {
		return err
	}
	row := findRow(ids, b.ID)
	if row == 0 {
		return c.append(ctx, c.budgetSheet, budgetRow(b))
	}
	rng := fmt.Sprintf("%s!A%d:G%d", c.budgetSheet, row, row)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{budgetRow(b)}}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) RemoveBudget(ctx context.Context, userID, id string) error {
	return c.clearRow(ctx, c.budgetSheet, userID, id)
}

func (c *Client) append(ctx context.Context, sheet string, row []any) error {
	rng := fmt.Sprintf("%s!A:A", sheet)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	return nil
}

// clearRow blanks the row of id. Rows are cleared rather than deleted so
// concurrent writers never see row numbers shift.
func (c *Client) clearRow(ctx context.Context, sheet, userID, id string) error {
	rng := fmt.Sprintf("%s!A:B", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	row := findOwnedRow(resp.Values, userID, id)
	if row == 0 {
		slog.InfoContext(ctx, "Row already absent", "sheet", sheet, "id", id)
		return nil
	}
	target := fmt.Sprintf("%s!A%d:J%d", sheet, row, row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, target, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", target, err)
	}
	return nil
}

func (c *Client) readIDs(ctx context.Context, sheet string) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// findRow returns the 1-based row whose first cell is id, or 0.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// findOwnedRow is findRow restricted to rows whose second cell is userID.
func findOwnedRow(values [][]any, userID, id string) int {
	for i, row := range values {
		if len(row) < 2 {
			continue
		}
		if fmt.Sprint(row[0]) == id && fmt.Sprint(row[1]) == userID {
			return i + 1
		}
	}
	return 0
}

func recordRow(r core.Record) []any {
	kind := "Expense"
	if r.IsIncome() {
		kind = "Income"
	}
	aiConfidence := ""
	if r.AICategory != "" {
		aiConfidence = fmt.Sprintf("%.2f", r.AIConfidence)
	}
	return []any{
		r.ID,
		r.UserID,
		r.Date.String(),
		r.Description,
		r.Category,
		r.Amount.Abs().Float(),
		kind,
		r.AICategory,
		aiConfidence,
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func budgetRow(b core.Budget) []any {
	return []any{
		b.ID,
		b.UserID,
		b.Category,
		b.Month,
		b.Year,
		b.Limit.Float(),
		b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
