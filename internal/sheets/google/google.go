package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/log"
	"budget/internal/sheets"
	"budget/internal/table"
)

var _ sheets.TableStore = (*Client)(nil)

// Config selects the spreadsheet and how to authenticate against it.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	// TabPrefix is prepended to every table name to form the tab title.
	TabPrefix string

	// Endpoint and HTTPClient replace the Google API endpoint and
	// authenticated client. Tests point them at a fake server.
	Endpoint   string
	HTTPClient *http.Client
}

// Client stores each table in its own tab of one spreadsheet. Every API
// call goes through a circuit breaker so an unreachable Sheets API fails fast.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabPrefix     string
	breaker       *gobreaker.CircuitBreaker
	logger        *log.Logger

	mu   sync.Mutex
	tabs map[string]int64
}

// New creates a Sheets client using service account credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Default(log.ComponentSheets)
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	c := &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		tabPrefix:     cfg.TabPrefix,
		logger:        logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "google-sheets",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c, nil
}

// newSheetsService builds the API client from inline JSON, a credentials file,
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	if cfg.Endpoint != "" {
		opts = append(opts, goption.WithEndpoint(cfg.Endpoint))
	}
	if cfg.HTTPClient != nil {
		return gsheet.NewService(ctx, append(opts, goption.WithHTTPClient(cfg.HTTPClient))...)
	}

	credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	file := strings.TrimSpace(cfg.CredentialsFile)
	if len(credentialsJSON) == 0 && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case len(credentialsJSON) > 0:
		logger.InfoContext(ctx, "Using inline service account credentials")
	case file != "":
		logger.InfoContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx, append(opts, goption.WithCredentialsJSON(credentialsJSON))...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (c *Client) call(fn func() error) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// tabTitle maps a table name to its tab.
func (c *Client) tabTitle(name string) string {
	return c.tabPrefix + name
}

// loadTabs fetches the tab titles once. A failed listing is retried on the next call.
func (c *Client) loadTabs(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.tabs != nil
	c.mu.Unlock()
	if loaded {
		return nil
	}

	var resp *gsheet.Spreadsheet
	err := c.call(func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Get(c.spreadsheetID).
			Fields("sheets.properties(sheetId,title)").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("list tabs: %w", err)
	}

	tabs := make(map[string]int64, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			tabs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	c.mu.Lock()
	c.tabs = tabs
	c.mu.Unlock()
	return nil
}

// Exists reports whether the table's tab is present.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	if err := c.loadTabs(ctx); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tabs[c.tabTitle(name)]
	return ok, nil
}

// Read returns the whole tab as a table. The first non-empty row is the header.
func (c *Client) Read(ctx context.Context, name string) (table.Table, error) {
	ok, err := c.Exists(ctx, name)
	if err != nil {
		return table.Table{}, err
	}
	if !ok {
		return table.Table{}, sheets.ErrNotExist
	}

	rng := quoteTab(c.tabTitle(name))
	var resp *gsheet.ValueRange
	err = c.call(func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
			ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()
		return err
	})
	if err != nil {
		return table.Table{}, fmt.Errorf("read %s: %w", rng, err)
	}
	return fromValues(resp.Values)
}

// Write clears the tab and writes header and rows as raw strings, creating
// the tab when missing.
func (c *Client) Write(ctx context.Context, name string, t table.Table) error {
	if err := c.ensureTab(ctx, name); err != nil {
		return err
	}
	rng := quoteTab(c.tabTitle(name))

	err := c.call(func() error {
		_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	vr := &gsheet.ValueRange{Values: toValues(t)}
	err = c.call(func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng+"!A1", vr).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	c.logger.DebugContext(ctx, "Tab rewritten", log.FieldTable, name, log.FieldRows, t.Len())
	return nil
}

func (c *Client) ensureTab(ctx context.Context, name string) error {
	ok, err := c.Exists(ctx, name)
	if err != nil || ok {
		return err
	}

	title := c.tabTitle(name)
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	var resp *gsheet.BatchUpdateSpreadsheetResponse
	err = c.call(func() error {
		var err error
		resp, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("add tab %s: %w", title, err)
	}

	var id int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		id = resp.Replies[0].AddSheet.Properties.SheetId
	}
	c.mu.Lock()
	if c.tabs != nil {
		c.tabs[title] = id
	}
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "Tab created", log.FieldTable, name, "tab", title)
	return nil
}

// State returns the circuit breaker state, for readiness checks.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
