package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	ports "pmtrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client writes timesheet rows to "<year> <base>" sheets of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string

	// seen caches row keys per sheet so a redelivered message does not
	// rescan the whole sheet.
	mu     sync.Mutex
	seen   map[string]map[ports.RowKey]string
	headed map[string]bool
}

var (
	_ ports.TimesheetWriter = (*Client)(nil)
	_ ports.TimesheetReader = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, spreadsheetID, sheetBase string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = "Timesheet"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
		seen:          make(map[string]map[ports.RowKey]string),
		headed:        make(map[string]bool),
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := serviceAccountCredentials()
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func serviceAccountCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// AppendEntry appends row to the sheet of its year unless its key is
// already there.
func (c *Client) AppendEntry(ctx context.Context, row ports.TimesheetRow) (string, error) {
	if row.EntryID <= 0 {
		return "", errors.New("timesheet row without entry id")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, row.Date.Year())

	keys, err := c.keys(ctx, sheet)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	ref, ok := keys[row.Key()]
	c.mu.Unlock()
	if ok {
		slog.InfoContext(ctx, "Timesheet row already exported", "entry_id", row.EntryID, "version", row.Version, "ref", ref)
		return ref, nil
	}

	values := [][]any{rowValues(row)}
	c.mu.Lock()
	needHeader := !c.headed[sheet]
	c.mu.Unlock()
	if needHeader {
		header := make([]any, len(timesheetHeader))
		for i, h := range timesheetHeader {
			header[i] = h
		}
		values = append([][]any{header}, values...)
	}

	vr := &gsheet.ValueRange{Values: values}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:K", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref = sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.mu.Lock()
	c.seen[sheet][row.Key()] = ref
	c.headed[sheet] = true
	c.mu.Unlock()
	return ref, nil
}

// ListRows reads every exported row of year.
func (c *Client) ListRows(ctx context.Context, year int) ([]ports.TimesheetRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	return c.readRows(ctx, yearPrefixedName(c.sheetBase, year))
}

func (c *Client) readRows(ctx context.Context, sheet string) ([]ports.TimesheetRow, error) {
	rng := sheet + "!A:K"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseTimesheet(resp.Values), nil
}

func (c *Client) keys(ctx context.Context, sheet string) (map[ports.RowKey]string, error) {
	c.mu.Lock()
	keys, ok := c.seen[sheet]
	c.mu.Unlock()
	if ok {
		return keys, nil
	}

	rng := sheet + "!A:K"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := parseTimesheet(resp.Values)
	keys = make(map[ports.RowKey]string, len(rows))
	for _, r := range rows {
		keys[r.Key()] = sheet
	}

	c.mu.Lock()
	c.seen[sheet] = keys
	c.headed[sheet] = len(resp.Values) > 0
	c.mu.Unlock()
	return keys, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
