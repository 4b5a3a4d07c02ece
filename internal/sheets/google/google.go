package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"budgie/internal/services"
	ports "budgie/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client writes budget snapshots into a Google spreadsheet, one sheet per
// table. Sheet titles are "<prefix> <table>".
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	prefix        string
}

// Ensure interface conformance
var _ ports.SnapshotWriter = (*Client)(nil)

// Options configures the client. Credentials come from CredentialsJSON,
// then CredentialsFile, then GOOGLE_APPLICATION_CREDENTIALS.
type Options struct {
	SpreadsheetID   string
	SheetPrefix     string
	CredentialsJSON string
	CredentialsFile string

	// ClientOptions replace the credential options entirely; tests point
	// the client at a local endpoint with them.
	ClientOptions []goption.ClientOption
}

// New creates a Sheets client using Service Account credentials.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		credentialsJSON, err := loadCredentials(ctx, opts)
		if err != nil {
			return nil, err
		}
		clientOpts = []goption.ClientOption{
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		prefix:        strings.TrimSpace(opts.SheetPrefix),
	}, nil
}

func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// SheetTitle returns the sheet title used for a table.
func (c *Client) SheetTitle(table string) string {
	if c.prefix == "" {
		return table
	}
	return c.prefix + " " + table
}

// WriteSnapshot replaces the content of every table's sheet, creating
// missing sheets first.
func (c *Client) WriteSnapshot(ctx context.Context, snap *services.Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	tables := ports.Tables(snap)
	titles := make([]string, len(tables))
	for i, t := range tables {
		titles[i] = c.SheetTitle(t.Name)
	}
	if err := c.ensureSheets(ctx, titles); err != nil {
		return err
	}

	for i, t := range tables {
		rng := fmt.Sprintf("'%s'!A:Z", titles[i])
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear %s: %w", titles[i], err)
		}
		vr := &gsheet.ValueRange{Values: t.Values()}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("'%s'!A1", titles[i]), vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("update %s: %w", titles[i], err)
		}
	}

	slog.InfoContext(ctx, "Wrote snapshot to Google Sheets",
		"as_of", snap.AsOf.String(),
		"event_count", snap.EventCount,
		"sheets", len(tables))
	return nil
}

// ensureSheets adds every missing sheet in one batch update.
func (c *Client) ensureSheets(ctx context.Context, titles []string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	existing := make(map[string]struct{}, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = struct{}{}
		}
	}

	var reqs []*gsheet.Request
	for _, title := range titles {
		if _, ok := existing[title]; ok {
			continue
		}
		reqs = append(reqs, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		})
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheets: %w", err)
	}
	return nil
}
