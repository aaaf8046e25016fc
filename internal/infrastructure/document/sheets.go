package document

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/entitleops/licensesync/internal/shared/logger"
)

// valueInputOption keeps dates and codes as typed text instead of letting
// Sheets coerce them.
const valueInputOption = "RAW"

// SheetsProvider opens Google Sheets spreadsheets by spreadsheet ID.
type SheetsProvider struct {
	service *sheets.Service
	logger  logger.Interface
}

// NewSheetsProvider builds a Sheets client. An empty credentialsFile uses
// Application Default Credentials.
func NewSheetsProvider(ctx context.Context, credentialsFile string, log logger.Interface, opts ...option.ClientOption) (*SheetsProvider, error) {
	base := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if strings.TrimSpace(credentialsFile) != "" {
		base = append(base, option.WithCredentialsFile(credentialsFile))
	}

	srv, err := sheets.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsProvider{service: srv, logger: log}, nil
}

func (p *SheetsProvider) Open(ctx context.Context, target Target) (Document, error) {
	if target.IsZero() {
		return nil, fmt.Errorf("%w: empty spreadsheet id", ErrDocumentNotFound)
	}
	return &sheetsDocument{
		values:        p.service.Spreadsheets.Values,
		spreadsheetID: target.DocumentID,
		sheet:         target.Sheet,
		logger:        p.logger,
	}, nil
}

type sheetsDocument struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	sheet         string
	logger        logger.Interface
}

func (d *sheetsDocument) ReadCell(ctx context.Context, addr string) (string, error) {
	if _, _, _, err := ParseCell(addr); err != nil {
		return "", err
	}
	rng := Qualify(d.sheet, addr)
	resp, err := d.values.Get(d.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return stringify(resp.Values[0][0]), nil
}

func (d *sheetsDocument) WriteCell(ctx context.Context, addr string, value any) error {
	return d.WriteRange(ctx, addr, [][]any{{value}})
}

func (d *sheetsDocument) WriteRange(ctx context.Context, addr string, rows [][]any) error {
	r, err := ParseRange(addr)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	// anchor at the start cell so the payload decides the extent
	start := CellName(r.StartCol, r.StartRow)
	if r.Sheet != "" {
		start = Qualify(r.Sheet, start)
	}
	rng := Qualify(d.sheet, start)

	vr := &sheets.ValueRange{Range: rng, Values: rows}
	_, err = d.values.Update(d.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", rng, err)
	}
	d.logger.Debugw("sheet range written", "spreadsheet_id", d.spreadsheetID, "range", rng, "rows", len(rows))
	return nil
}

func (d *sheetsDocument) ClearRange(ctx context.Context, addr string) error {
	if _, err := ParseRange(addr); err != nil {
		return err
	}
	rng := Qualify(d.sheet, addr)
	if _, err := d.values.Clear(d.spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", rng, err)
	}
	return nil
}
