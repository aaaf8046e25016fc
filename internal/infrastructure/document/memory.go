package document

import (
	"context"
	"fmt"
	"sync"
)

type cellKey struct {
	col int
	row int
}

// Workbook is an in-process document. It backs tests and dry runs.
type Workbook struct {
	mu       sync.RWMutex
	sheets   map[string]map[cellKey]string
	writeErr error
	readErr  error
	writes   int
}

// NewWorkbook creates an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{sheets: make(map[string]map[cellKey]string)}
}

// FailWrites makes subsequent writes return err; nil clears it.
func (w *Workbook) FailWrites(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writeErr = err
}

// FailReads makes subsequent reads return err; nil clears it.
func (w *Workbook) FailReads(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.readErr = err
}

// Writes counts successful write and clear calls.
func (w *Workbook) Writes() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.writes
}

// Get returns a cell value without going through a Document.
func (w *Workbook) Get(sheet, addr string) string {
	s, col, row, err := ParseCell(addr)
	if err != nil {
		return ""
	}
	if s != "" {
		sheet = s
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sheets[sheet][cellKey{col, row}]
}

// Set writes a cell value without going through a Document.
func (w *Workbook) Set(sheet, addr, value string) {
	s, col, row, err := ParseCell(addr)
	if err != nil {
		return
	}
	if s != "" {
		sheet = s
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sheet(sheet)[cellKey{col, row}] = value
}

// Rows returns the values of a range as strings, trimming trailing empty rows
// of open-ended ranges.
func (w *Workbook) Rows(sheet, addr string) [][]string {
	r, err := ParseRange(addr)
	if err != nil {
		return nil
	}
	if r.Sheet != "" {
		sheet = r.Sheet
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	cells := w.sheets[sheet]
	last := r.EndRow
	if r.Open() {
		last = r.StartRow - 1
		for k, v := range cells {
			if v != "" && k.col >= r.StartCol && k.col <= r.EndCol && k.row > last {
				last = k.row
			}
		}
	}
	var out [][]string
	for row := r.StartRow; row <= last; row++ {
		line := make([]string, 0, r.Width())
		for col := r.StartCol; col <= r.EndCol; col++ {
			line = append(line, cells[cellKey{col, row}])
		}
		out = append(out, line)
	}
	return out
}

func (w *Workbook) sheet(name string) map[cellKey]string {
	s, ok := w.sheets[name]
	if !ok {
		s = make(map[cellKey]string)
		w.sheets[name] = s
	}
	return s
}

type memoryDocument struct {
	wb    *Workbook
	sheet string
}

func (d *memoryDocument) resolve(sheet string) string {
	if sheet == "" {
		return d.sheet
	}
	return sheet
}

func (d *memoryDocument) ReadCell(ctx context.Context, addr string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sheet, col, row, err := ParseCell(addr)
	if err != nil {
		return "", err
	}
	d.wb.mu.RLock()
	defer d.wb.mu.RUnlock()
	if d.wb.readErr != nil {
		return "", d.wb.readErr
	}
	return d.wb.sheets[d.resolve(sheet)][cellKey{col, row}], nil
}

func (d *memoryDocument) WriteCell(ctx context.Context, addr string, value any) error {
	sheet, col, row, err := ParseCell(addr)
	if err != nil {
		return err
	}
	return d.write(ctx, func() {
		d.wb.sheet(d.resolve(sheet))[cellKey{col, row}] = stringify(value)
	})
}

func (d *memoryDocument) WriteRange(ctx context.Context, addr string, rows [][]any) error {
	r, err := ParseRange(addr)
	if err != nil {
		return err
	}
	return d.write(ctx, func() {
		cells := d.wb.sheet(d.resolve(r.Sheet))
		for i, values := range rows {
			for j, v := range values {
				cells[cellKey{r.StartCol + j, r.StartRow + i}] = stringify(v)
			}
		}
	})
}

func (d *memoryDocument) ClearRange(ctx context.Context, addr string) error {
	r, err := ParseRange(addr)
	if err != nil {
		return err
	}
	return d.write(ctx, func() {
		cells := d.wb.sheet(d.resolve(r.Sheet))
		for k := range cells {
			if k.col < r.StartCol || k.col > r.EndCol || k.row < r.StartRow {
				continue
			}
			if r.Open() || k.row <= r.EndRow {
				delete(cells, k)
			}
		}
	})
}

func (d *memoryDocument) write(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.wb.mu.Lock()
	defer d.wb.mu.Unlock()
	if d.wb.writeErr != nil {
		return d.wb.writeErr
	}
	fn()
	d.wb.writes++
	return nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// MemoryProvider hands out in-process workbooks keyed by document ID.
type MemoryProvider struct {
	mu        sync.Mutex
	workbooks map[string]*Workbook
}

// NewMemoryProvider creates a provider with no documents.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{workbooks: make(map[string]*Workbook)}
}

// Workbook returns the workbook for id, creating it when absent.
func (p *MemoryProvider) Workbook(id string) *Workbook {
	p.mu.Lock()
	defer p.mu.Unlock()
	wb, ok := p.workbooks[id]
	if !ok {
		wb = NewWorkbook()
		p.workbooks[id] = wb
	}
	return wb
}

func (p *MemoryProvider) Open(ctx context.Context, target Target) (Document, error) {
	if target.IsZero() {
		return nil, fmt.Errorf("%w: empty document id", ErrDocumentNotFound)
	}
	return &memoryDocument{wb: p.Workbook(target.DocumentID), sheet: target.Sheet}, nil
}
