// Package google mirrors recorded transactions to a Google Sheets spreadsheet
// and can serve the category set from it.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"carteira/internal/core"
	"carteira/internal/log"
)

// Config selects the spreadsheet and how to authenticate against it.
type Config struct {
	SpreadsheetID string
	// SheetName is the transactions tab base name; the transaction's year is
	// prefixed unless the name already starts with one.
	SheetName          string
	CategoriesSheet    string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	sheetName       string
	categoriesSheet string
	now             func() time.Time
	logger          *log.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg, logger), nil
}

func newClient(svc *gsheet.Service, cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	sheet := cfg.SheetName
	if strings.TrimSpace(sheet) == "" {
		sheet = "Registros"
	}
	cats := cfg.CategoriesSheet
	if strings.TrimSpace(cats) == "" {
		cats = "Categorias"
	}
	return &Client{
		svc:             svc,
		spreadsheetID:   strings.TrimSpace(cfg.SpreadsheetID),
		sheetName:       sheet,
		categoriesSheet: strings.TrimSpace(cats),
		now:             time.Now,
		logger:          logger.WithComponent(log.ComponentSheets),
	}
}

// newSheetsService authenticates with inline JSON credentials or a
// credentials file, in that order.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		credentialsJSON = []byte(cfg.ServiceAccountJSON)
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Append writes tx as a new row and returns its A1 reference. A row that
// already carries tx.ID is not written again, so redelivered events are
// harmless.
func (c *Client) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := c.transactionsSheet(tx)
	rng := fmt.Sprintf("%s!A:%s", sheet, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if row := findRow(resp.Values, tx.ID); row > 0 {
		c.logger.InfoContext(ctx, "Transaction already in sheet",
			log.FieldTransactionID, tx.ID, log.FieldSheetsRef, rowRef(sheet, row))
		return rowRef(sheet, row), nil
	}

	nextRow := len(resp.Values) + 1
	ref := rowRef(sheet, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(tx)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", ref, err)
	}
	return ref, nil
}

// transactionsSheet is the year tab tx belongs to, by its own date.
func (c *Client) transactionsSheet(tx core.Transaction) string {
	at := tx.Timestamp
	if at.IsZero() {
		at = c.now()
	}
	return yearPrefixedName(c.sheetName, at.Year())
}

func rowRef(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, lastColumn, row)
}

// Categories reads expense categories from column A and income categories
// from column B of the categories tab, skipping the header row.
func (c *Client) Categories(ctx context.Context) (core.CategorySet, error) {
	if c.svc == nil {
		return core.CategorySet{}, errors.New("sheets service not initialized")
	}
	expense, err := c.readCol(ctx, c.categoriesSheet, "A2:A100")
	if err != nil {
		return core.CategorySet{}, fmt.Errorf("failed to read expense categories: %w", err)
	}
	income, err := c.readCol(ctx, c.categoriesSheet, "B2:B100")
	if err != nil {
		return core.CategorySet{}, fmt.Errorf("failed to read income categories: %w", err)
	}
	return core.CategorySet{Expense: expense, Income: income}, nil
}

func (c *Client) readCol(ctx context.Context, sheetName, col string) ([]string, error) {
	rng := fmt.Sprintf("%s!%s", sheetName, col)
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
