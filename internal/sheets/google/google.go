package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	LedgerSheet     string
	SummarySheet    string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	summarySheet  string
}

// Ensure interface conformance
var _ ports.SnapshotWriter = (*Client)(nil)

// NewFromConfig creates a Sheets client authenticated with a service account.
// Credentials come from cfg, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func NewFromConfig(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	creds, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", spreadsheetID,
		"ledger_sheet", sheetName(cfg.LedgerSheet, "Transactions"),
		"summary_sheet", sheetName(cfg.SummarySheet, "Summary"))

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerSheet:   sheetName(cfg.LedgerSheet, "Transactions"),
		summarySheet:  sheetName(cfg.SummarySheet, "Summary"),
	}, nil
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func sheetName(name, fallback string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return fallback
}

// WriteSnapshot clears both target sheets and writes the new content in one
// batch, so a shrinking ledger leaves no stale rows behind.
func (c *Client) WriteSnapshot(ctx context.Context, snap ports.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ledgerRange := quoteSheet(c.ledgerSheet) + "!A:G"
	summaryRange := quoteSheet(c.summarySheet) + "!A:D"

	_, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{
		Ranges: []string{ledgerRange, summaryRange},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheets %s and %s: %w", c.ledgerSheet, c.summarySheet, err)
	}

	ledger := ledgerRows(snap)
	summary := summaryRows(snap)
	_, err = c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*gsheet.ValueRange{
			{Range: quoteSheet(c.ledgerSheet) + "!A1", Values: ledger},
			{Range: quoteSheet(c.summarySheet) + "!A1", Values: summary},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheets %s and %s: %w", c.ledgerSheet, c.summarySheet, err)
	}

	slog.InfoContext(ctx, "Snapshot written to Google Sheets",
		"ledger_rows", len(ledger)-1,
		"summary_rows", len(summary))
	return nil
}

// quoteSheet wraps a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
