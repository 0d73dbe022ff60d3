package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"petspese/internal/core"
	"petspese/internal/ports"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config names the spreadsheet, its tabs and the service account credentials.
type Config struct {
	SpreadsheetID      string
	ExpensesSheet      string
	PetsSheet          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	expensesSheet string
	petsSheet     string
}

// Ensure interface conformance
var (
	_ ports.StateLoader    = (*Client)(nil)
	_ ports.StateCommitter = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg)
}

// NewWithService wraps an existing service, e.g. one pointed at a test endpoint.
func NewWithService(svc *gsheet.Service, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	c := &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		expensesSheet: cfg.ExpensesSheet,
		petsSheet:     cfg.PetsSheet,
	}
	if c.expensesSheet == "" {
		c.expensesSheet = "Expenses"
	}
	if c.petsSheet == "" {
		c.petsSheet = "Pets"
	}
	return c, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
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

// logRange covers the whole tab so columns beyond D are read too.
func (c *Client) logRange() string { return c.expensesSheet }
func (c *Client) petsRange() string { return fmt.Sprintf("%s!A:C", c.petsSheet) }

// Load reads both tabs with one BatchGet request.
func (c *Client) Load(ctx context.Context) (ports.State, error) {
	st, _, err := c.load(ctx)
	return st, err
}

// logLayout is where and how new rows go on the expenses tab.
type logLayout struct {
	usedRows int
	cols     core.Columns
}

func (c *Client) load(ctx context.Context) (ports.State, logLayout, error) {
	if c.svc == nil {
		return ports.State{}, logLayout{}, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
		Ranges(c.logRange(), c.petsRange()).
		Context(ctx).Do()
	if err != nil {
		return ports.State{}, logLayout{}, fmt.Errorf("batch get %s: %w", c.spreadsheetID, err)
	}
	if len(resp.ValueRanges) != 2 {
		return ports.State{}, logLayout{}, fmt.Errorf("batch get: expected 2 ranges, got %d", len(resp.ValueRanges))
	}

	logValues := resp.ValueRanges[0].Values
	log, skipped, cols, err := decodeLog(logValues)
	if err != nil {
		return ports.State{}, logLayout{}, fmt.Errorf("read %s: %w", c.expensesSheet, err)
	}
	reg, err := decodeRegistry(resp.ValueRanges[1].Values)
	if err != nil {
		return ports.State{}, logLayout{}, fmt.Errorf("read %s: %w", c.petsSheet, err)
	}
	st := ports.State{Log: log, Registry: reg, Skipped: skipped}
	return st, logLayout{usedRows: len(logValues), cols: cols}, nil
}

// Commit writes the new log rows below the existing ones and rewrites the pets
// tab, both in a single BatchUpdate request so the two tabs change together.
func (c *Client) Commit(ctx context.Context, st ports.State) error {
	current, layout, err := c.load(ctx)
	if err != nil {
		return err
	}
	if len(st.Log) < len(current.Log) {
		return fmt.Errorf("commit: log has fewer rows than stored (%d < %d)", len(st.Log), len(current.Log))
	}

	appended := st.Log[len(current.Log):]
	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	if len(appended) > 0 {
		rows := encodeLog(layout.cols, appended)
		start := layout.usedRows + 1
		if layout.usedRows == 0 {
			rows = append([][]interface{}{headerRow()}, rows...)
		}
		req.Data = append(req.Data, &gsheet.ValueRange{
			Range:  fmt.Sprintf("%s!A%d", c.expensesSheet, start),
			Values: rows,
		})
	}
	// The registry never shrinks, so rewriting from A1 covers every old cell.
	req.Data = append(req.Data, &gsheet.ValueRange{
		Range:  fmt.Sprintf("%s!A1", c.petsSheet),
		Values: encodeRegistry(st.Registry),
	})

	resp, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update %s: %w", c.spreadsheetID, err)
	}

	slog.InfoContext(ctx, "State saved to Google Sheets",
		"appended", len(appended),
		"profiles", len(st.Registry),
		"updated_cells", resp.TotalUpdatedCells)
	return nil
}
