// Package xlsx reads and writes sheets.Table values as Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"tracker/internal/sheets"
)

// Source reads the first sheet of a workbook, either from a path or from r.
type Source struct {
	path string
	r    io.Reader
}

func FileSource(path string) *Source { return &Source{path: path} }

func ReaderSource(r io.Reader) *Source { return &Source{r: r} }

func (s *Source) ReadTable(ctx context.Context) (sheets.Table, error) {
	if err := ctx.Err(); err != nil {
		return sheets.Table{}, err
	}
	f, err := s.open()
	if err != nil {
		return sheets.Table{}, err
	}
	defer f.Close()

	list := f.GetSheetList()
	if len(list) == 0 {
		return sheets.Table{}, sheets.ErrNoSheet
	}
	rows, err := f.GetRows(list[0])
	if err != nil {
		return sheets.Table{}, fmt.Errorf("read sheet %q: %w", list[0], err)
	}
	return sheets.FromValues(list[0], rows), nil
}

func (s *Source) open() (*excelize.File, error) {
	if s.r != nil {
		return excelize.OpenReader(s.r)
	}
	return excelize.OpenFile(s.path)
}

// Sink writes a single-sheet workbook. With a path it saves to disk,
// otherwise it streams to w.
type Sink struct {
	path string
	w    io.Writer
}

func FileSink(path string) *Sink { return &Sink{path: path} }

func WriterSink(w io.Writer) *Sink { return &Sink{w: w} }

func (s *Sink) WriteTable(ctx context.Context, t sheets.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := Build(t)
	if err != nil {
		return err
	}
	defer f.Close()

	if s.w != nil {
		if _, err := f.WriteTo(s.w); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		return nil
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", s.path, err)
	}
	return nil
}

// Build lays t out on a sheet named t.Name, header first, applying Widths
// column by column.
func Build(t sheets.Table) (*excelize.File, error) {
	f := excelize.NewFile()
	name := t.Name
	if name == "" {
		name = "Sheet1"
	}
	if name != "Sheet1" {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			f.Close()
			return nil, fmt.Errorf("name sheet %q: %w", name, err)
		}
	}
	for i, row := range t.Values() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(name, cell, &vals); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	for i, w := range t.Widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(name, col, col, w); err != nil {
			f.Close()
			return nil, fmt.Errorf("width of column %s: %w", col, err)
		}
	}
	return f, nil
}
