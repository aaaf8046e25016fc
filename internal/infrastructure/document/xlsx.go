package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/entitleops/licensesync/internal/shared/logger"
)

const defaultXLSXSheet = "Sheet1"

// XLSXProvider opens local workbooks. The document ID is the file path.
// The file is reopened for every call so edits made by an operator between
// ticks are seen, and saved after every write.
type XLSXProvider struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	logger logger.Interface
}

// NewXLSXProvider creates a new XLSXProvider.
func NewXLSXProvider(log logger.Interface) *XLSXProvider {
	return &XLSXProvider{
		locks:  make(map[string]*sync.Mutex),
		logger: log,
	}
}

func (p *XLSXProvider) Open(ctx context.Context, target Target) (Document, error) {
	if target.IsZero() {
		return nil, fmt.Errorf("%w: empty workbook path", ErrDocumentNotFound)
	}
	sheet := target.Sheet
	if sheet == "" {
		sheet = defaultXLSXSheet
	}
	return &xlsxDocument{
		path:   target.DocumentID,
		sheet:  sheet,
		lock:   p.fileLock(target.DocumentID),
		logger: p.logger,
	}, nil
}

func (p *XLSXProvider) fileLock(path string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.Mutex{}
		p.locks[path] = l
	}
	return l
}

type xlsxDocument struct {
	path   string
	sheet  string
	lock   *sync.Mutex
	logger logger.Interface
}

func (d *xlsxDocument) resolve(sheet string) string {
	if sheet == "" {
		return d.sheet
	}
	return sheet
}

func (d *xlsxDocument) open(create bool) (*excelize.File, error) {
	f, err := excelize.OpenFile(d.path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) || !create {
		return nil, fmt.Errorf("failed to open workbook %s: %w", d.path, err)
	}
	f = excelize.NewFile()
	if d.sheet != defaultXLSXSheet {
		if err := f.SetSheetName(defaultXLSXSheet, d.sheet); err != nil {
			return nil, fmt.Errorf("failed to name sheet %s: %w", d.sheet, err)
		}
	}
	return f, nil
}

func (d *xlsxDocument) ReadCell(ctx context.Context, addr string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sheet, col, row, err := ParseCell(addr)
	if err != nil {
		return "", err
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	f, err := d.open(false)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sheet = d.resolve(sheet)
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return "", nil
	}
	return f.GetCellValue(sheet, CellName(col, row))
}

func (d *xlsxDocument) WriteCell(ctx context.Context, addr string, value any) error {
	sheet, col, row, err := ParseCell(addr)
	if err != nil {
		return err
	}
	return d.update(ctx, d.resolve(sheet), func(f *excelize.File, sheet string) error {
		return f.SetCellValue(sheet, CellName(col, row), value)
	})
}

func (d *xlsxDocument) WriteRange(ctx context.Context, addr string, rows [][]any) error {
	r, err := ParseRange(addr)
	if err != nil {
		return err
	}
	return d.update(ctx, d.resolve(r.Sheet), func(f *excelize.File, sheet string) error {
		for i, values := range rows {
			if len(values) == 0 {
				continue
			}
			row := values
			if err := f.SetSheetRow(sheet, CellName(r.StartCol, r.StartRow+i), &row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *xlsxDocument) ClearRange(ctx context.Context, addr string) error {
	r, err := ParseRange(addr)
	if err != nil {
		return err
	}
	return d.update(ctx, d.resolve(r.Sheet), func(f *excelize.File, sheet string) error {
		last := r.EndRow
		if r.Open() {
			rows, err := f.GetRows(sheet)
			if err != nil {
				return err
			}
			last = len(rows)
		}
		for row := r.StartRow; row <= last; row++ {
			for col := r.StartCol; col <= r.EndCol; col++ {
				if err := f.SetCellValue(sheet, CellName(col, row), ""); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (d *xlsxDocument) update(ctx context.Context, sheet string, fn func(f *excelize.File, sheet string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	f, err := d.open(true)
	if err != nil {
		return err
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}
	if err := fn(f, sheet); err != nil {
		return fmt.Errorf("failed to update workbook %s: %w", d.path, err)
	}
	if err := f.SaveAs(d.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", d.path, err)
	}
	d.logger.Debugw("workbook saved", "path", d.path, "sheet", sheet)
	return nil
}
