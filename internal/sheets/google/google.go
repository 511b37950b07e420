package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"bizdash/internal/core"
	ports "bizdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base names without year; the ledger is prefixed with the invoice year.
	invoicesBase    string
	categoriesSheet string
}

// Ensure interface conformance
var (
	_ ports.InvoiceLedger  = (*Client)(nil)
	_ ports.CategorySource = (*Client)(nil)
)

// Config names the spreadsheet and its sheets.
type Config struct {
	SpreadsheetID   string
	InvoicesSheet   string // default "Invoices"
	CategoriesSheet string // default "Categories"
	CredentialsJSON []byte
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if len(opts) == 0 {
		creds, err := loadCredentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: GOOGLE_INVOICES_SHEET_NAME (default "Invoices"),
// GOOGLE_CATEGORIES_SHEET_NAME (default "Categories").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	cfg := Config{
		SpreadsheetID:   spreadsheetID,
		InvoicesSheet:   os.Getenv("GOOGLE_INVOICES_SHEET_NAME"),
		CategoriesSheet: os.Getenv("GOOGLE_CATEGORIES_SHEET_NAME"),
		CredentialsJSON: []byte(strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))),
		CredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	}
	if len(cfg.CredentialsJSON) == 0 && cfg.CredentialsFile == "" {
		cfg.CredentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx, cfg, goption.WithHTTPClient(newHTTPClientWithPooling()))
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	invoices := strings.TrimSpace(cfg.InvoicesSheet)
	if invoices == "" {
		invoices = "Invoices"
	}
	cats := strings.TrimSpace(cfg.CategoriesSheet)
	if cats == "" {
		cats = "Categories"
	}
	return &Client{
		svc:             svc,
		spreadsheetID:   cfg.SpreadsheetID,
		invoicesBase:    invoices,
		categoriesSheet: cats,
	}
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	switch {
	case len(cfg.CredentialsJSON) > 0:
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return cfg.CredentialsJSON, nil
	case cfg.CredentialsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// AppendInvoice writes the invoice summary to the next empty row of the
// ledger sheet for the invoice's year.
func (c *Client) AppendInvoice(ctx context.Context, doc core.InvoiceDocument, file string) (string, error) {
	if doc.Invoice.InvoiceNumber == "" {
		return "", errors.New("invoice has no number")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	year := doc.Invoice.InvoiceDate.Year()
	if doc.Invoice.InvoiceDate.IsEmpty() {
		year = time.Now().Year()
	}
	sheet := yearPrefixedName(c.invoicesBase, year)

	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}
	nextRow := len(resp.Values) + 1

	row := invoiceRow(doc, file)
	values := [][]any{row}
	firstRow := nextRow
	if nextRow == 1 {
		// fresh sheet, write the header first
		values = [][]any{headerRow(), row}
		nextRow = 2
	}
	col := lastColumn(len(row))
	writeRange := fmt.Sprintf("%s!A%d:%s%d", sheet, firstRow, col, nextRow)
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", writeRange, err)
	}
	return fmt.Sprintf("%s!A%d:%s%d", sheet, nextRow, col, nextRow), nil
}

// ListCategoryNames reads the category column of the categories sheet.
func (c *Client) ListCategoryNames(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:A200", c.categoriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return columnValues(resp.Values), nil
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
