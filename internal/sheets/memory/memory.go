// Package memory is an in-process workbook implementing the sheets ports.
package memory

import (
	"context"
	"slices"
	"sync"

	"tracker/internal/sheets"
)

// Workbook keeps sheets in insertion order. The first sheet is what
// ReadTable returns.
type Workbook struct {
	mu     sync.Mutex
	order  []string
	tables map[string]sheets.Table
	writes int
	// ReadErr, when set, is returned by ReadTable.
	ReadErr error
}

func New(tables ...sheets.Table) *Workbook {
	w := &Workbook{tables: map[string]sheets.Table{}}
	for _, t := range tables {
		w.put(t)
	}
	return w
}

// FromValues builds a one-sheet workbook from raw rows, header first.
func FromValues(name string, values [][]string) *Workbook {
	return New(sheets.FromValues(name, values))
}

func (w *Workbook) ReadTable(_ context.Context) (sheets.Table, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ReadErr != nil {
		return sheets.Table{}, w.ReadErr
	}
	if len(w.order) == 0 {
		return sheets.Table{}, sheets.ErrNoSheet
	}
	return cloneTable(w.tables[w.order[0]]), nil
}

func (w *Workbook) WriteTable(_ context.Context, t sheets.Table) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.put(cloneTable(t))
	w.writes++
	return nil
}

// Sheet returns the sheet called name.
func (w *Workbook) Sheet(name string) (sheets.Table, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tables[name]
	return cloneTable(t), ok
}

// Names lists sheet names in insertion order.
func (w *Workbook) Names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.order)
}

// Writes counts WriteTable calls.
func (w *Workbook) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

func (w *Workbook) put(t sheets.Table) {
	if _, ok := w.tables[t.Name]; !ok {
		w.order = append(w.order, t.Name)
	}
	w.tables[t.Name] = t
}

func cloneTable(t sheets.Table) sheets.Table {
	out := sheets.Table{
		Name:   t.Name,
		Header: slices.Clone(t.Header),
		Widths: slices.Clone(t.Widths),
	}
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, slices.Clone(r))
	}
	return out
}
