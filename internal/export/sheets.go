// Package export mirrors per-user spending summaries to a Google Sheet so
// household members can eyeball the numbers outside the app.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetbridge/internal/analysis"
	"budgetbridge/internal/core"
)

// ExpenseLister is the read surface the exporter needs.
type ExpenseLister interface {
	ListExpenses(ctx context.Context, user string) ([]core.ExpenseRecord, error)
}

type Client struct {
	svc           *gsheet.Service
	reader        ExpenseLister
	spreadsheetID string
	sheetName     string
	now           func() time.Time
}

// NewFromEnv creates a Sheets exporter from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials in
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_SHEET_NAME (default
// "Resumen").
func NewFromEnv(ctx context.Context, reader ExpenseLister) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Resumen"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		reader:        reader,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		now:           time.Now,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportSummary appends one row per spending category for the user, stamped
// with the export time. Rows accumulate; the sheet is a log, not a mirror.
func (c *Client) ExportSummary(ctx context.Context, user string) error {
	records, err := c.reader.ListExpenses(ctx, user)
	if err != nil {
		return fmt.Errorf("load expenses for export: %w", err)
	}
	if len(records) == 0 {
		slog.InfoContext(ctx, "No expenses to export", "user", user)
		return nil
	}

	summary := analysis.AnalyzeCategories(records)
	stamp := c.now().UTC().Format(time.RFC3339)

	values := make([][]any, 0, len(summary.Categories))
	for _, cat := range summary.Categories {
		values = append(values, []any{
			stamp,
			user,
			cat.Category,
			cat.Total.Units(),
			cat.Percentage,
		})
	}

	rangeRef := fmt.Sprintf("%s!A:E", c.sheetName)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rangeRef,
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append summary rows: %w", err)
	}

	slog.InfoContext(ctx, "Summary exported",
		"user", user,
		"rows", len(values),
		"sheet", c.sheetName)
	return nil
}
