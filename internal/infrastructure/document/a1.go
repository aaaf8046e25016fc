package document

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellRange is a parsed A1 range. EndRow is 0 when the range is open-ended.
type CellRange struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// Open reports whether the range extends to the last used row.
func (r CellRange) Open() bool {
	return r.EndRow == 0
}

// Width is the number of columns covered.
func (r CellRange) Width() int {
	return r.EndCol - r.StartCol + 1
}

// SplitSheet separates an optional "Sheet!" prefix from a cell reference.
func SplitSheet(addr string) (sheet, ref string) {
	i := strings.LastIndex(addr, "!")
	if i < 0 {
		return "", strings.TrimSpace(addr)
	}
	sheet = strings.TrimSpace(addr[:i])
	sheet = strings.TrimSuffix(strings.TrimPrefix(sheet, "'"), "'")
	sheet = strings.ReplaceAll(sheet, "''", "'")
	return sheet, strings.TrimSpace(addr[i+1:])
}

// Qualify prefixes addr with sheet unless it already names one.
func Qualify(sheet, addr string) string {
	if sheet == "" || strings.Contains(addr, "!") {
		return addr
	}
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + addr
}

// ParseCell parses a single-cell address like "B2" or "Data!B2".
func ParseCell(addr string) (sheet string, col, row int, err error) {
	sheet, ref := SplitSheet(addr)
	col, row, err = excelize.CellNameToCoordinates(strings.ReplaceAll(ref, "$", ""))
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w %q: %v", ErrInvalidAddress, addr, err)
	}
	return sheet, col, row, nil
}

// ParseRange parses "D2:E7", "A14:G" or a single cell "B2".
func ParseRange(addr string) (CellRange, error) {
	sheet, ref := SplitSheet(addr)
	ref = strings.ReplaceAll(ref, "$", "")

	start, end, isRange := strings.Cut(ref, ":")
	startCol, startRow, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return CellRange{}, fmt.Errorf("%w %q: %v", ErrInvalidAddress, addr, err)
	}
	r := CellRange{Sheet: sheet, StartCol: startCol, StartRow: startRow, EndCol: startCol, EndRow: startRow}
	if !isRange {
		return r, nil
	}

	if endCol, endRow, err := excelize.CellNameToCoordinates(end); err == nil {
		r.EndCol, r.EndRow = endCol, endRow
	} else {
		endCol, colErr := excelize.ColumnNameToNumber(end)
		if colErr != nil {
			return CellRange{}, fmt.Errorf("%w %q: %v", ErrInvalidAddress, addr, colErr)
		}
		r.EndCol, r.EndRow = endCol, 0
	}
	if r.EndCol < r.StartCol || (!r.Open() && r.EndRow < r.StartRow) {
		return CellRange{}, fmt.Errorf("%w %q: end before start", ErrInvalidAddress, addr)
	}
	return r, nil
}

// CellName renders 1-based coordinates as an A1 reference.
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}
