package sheets

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrNoSheet is returned when a workbook has no sheet to read.
var ErrNoSheet = errors.New("workbook has no sheets")

// Table is a rectangular block of cells with a header row.
// Widths, when set, carry one column width per header cell.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	Widths []float64
}

// Ports for tabular adapters (XLSX files, Google Sheets tabs, memory).
type (
	TableReader interface {
		// ReadTable returns the first sheet; the first row is the header.
		ReadTable(ctx context.Context) (Table, error)
	}

	TableWriter interface {
		// WriteTable replaces the sheet named t.Name with t.
		WriteTable(ctx context.Context, t Table) error
	}
)

// FromValues splits raw grid values into a header and data rows.
// Trailing empty cells are preserved as "" so rows line up with the header.
func FromValues(name string, values [][]string) Table {
	t := Table{Name: name}
	if len(values) == 0 {
		return t
	}
	t.Header = values[0]
	for _, row := range values[1:] {
		padded := make([]string, len(t.Header))
		copy(padded, row)
		if len(row) > len(t.Header) {
			padded = append(padded, row[len(t.Header):]...)
		}
		t.Rows = append(t.Rows, padded)
	}
	return t
}

// Values returns header followed by rows.
func (t Table) Values() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	if len(t.Header) > 0 {
		out = append(out, t.Header)
	}
	return append(out, t.Rows...)
}

// Column returns the index of the header cell equal to name, ignoring case
// and surrounding space, or -1.
func (t Table) Column(name string) int {
	want := normalizeHeader(name)
	for i, h := range t.Header {
		if normalizeHeader(h) == want {
			return i
		}
	}
	return -1
}

// Cell returns row[col] trimmed, or "" when out of range.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
