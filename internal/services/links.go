package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/records"
	"tracker/internal/sheets"
)

var (
	// ErrMalformedFile aborts an import before any row is processed.
	ErrMalformedFile = errors.New("failed to parse Excel file, make sure it is a valid Excel file")
	// ErrNothingToExport is returned when there are no links to export.
	ErrNothingToExport = errors.New("no links to export")
)

const (
	linkSheetName    = "Links"
	TemplateFileName = "links_template.xlsx"
)

var (
	linkHeader = []string{"Title", "URL", "Description", "Category", "Created At", "Updated At"}
	linkWidths = []float64{30, 40, 50, 20, 15, 15}
)

type NewLink struct {
	Title       string
	URL         string
	Description string
	Category    string
}

type LinkPatch struct {
	Title       *string
	URL         *string
	Description *string
	Category    *string
}

// ImportResult summarizes an import: Errors holds one message per rejected row.
type ImportResult struct {
	Success int      `json:"success"`
	Errors  []string `json:"errors"`
}

type LinkService struct {
	links  *records.Collection[core.Link]
	change change
	now    func() time.Time
	loc    *time.Location
	log    *log.Logger
}

func NewLinkService(d Deps) *LinkService {
	d = d.withDefaults()
	var seedFn func(time.Time) []core.Link
	if d.Seed != nil {
		seedFn = d.Seed.LinksAt
	}
	logger := d.Logger.WithComponent(log.ComponentLinks)
	return &LinkService{
		links:  records.NewCollection(d.Store, KeyLinks, seedFn, d.recordOptions()),
		change: change{notifier: d.Notifier, log: logger},
		now:    d.Clock,
		loc:    d.Location,
		log:    logger,
	}
}

func (s *LinkService) Load(ctx context.Context) error { return s.links.Load(ctx) }

func (s *LinkService) Reload(ctx context.Context) error { return s.links.Reload(ctx) }

// Create inserts the link at the head.
func (s *LinkService) Create(ctx context.Context, in NewLink) (core.Link, error) {
	l, err := s.links.Insert(ctx, records.Head, func(id int64, now time.Time) (core.Link, error) {
		l := core.Link{
			ID:          id,
			Title:       strings.TrimSpace(in.Title),
			URL:         strings.TrimSpace(in.URL),
			Description: in.Description,
			Category:    in.Category,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return l, l.Validate()
	})
	if err != nil {
		return core.Link{}, fmt.Errorf("create link: %w", err)
	}
	s.log.InfoContext(ctx, "link created", log.FieldOperation, log.OpCreate, log.FieldID, l.ID)
	s.change.publish(ctx, KeyLinks, l.ID, ChangeCreate)
	return l, nil
}

func (s *LinkService) Update(ctx context.Context, id int64, patch LinkPatch) (core.Link, bool, error) {
	l, ok, err := s.links.Update(ctx, id, func(l *core.Link, now time.Time) error {
		if patch.Title != nil {
			l.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.URL != nil {
			l.URL = strings.TrimSpace(*patch.URL)
		}
		if patch.Description != nil {
			l.Description = *patch.Description
		}
		if patch.Category != nil {
			l.Category = *patch.Category
		}
		l.UpdatedAt = now
		return l.Validate()
	})
	if err != nil {
		return core.Link{}, false, fmt.Errorf("update link %d: %w", id, err)
	}
	if ok {
		s.log.InfoContext(ctx, "link updated", log.FieldOperation, log.OpUpdate, log.FieldID, id)
		s.change.publish(ctx, KeyLinks, id, ChangeUpdate)
	}
	return l, ok, nil
}

func (s *LinkService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.links.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete link %d: %w", id, err)
	}
	if ok {
		s.log.InfoContext(ctx, "link deleted", log.FieldOperation, log.OpDelete, log.FieldID, id)
		s.change.publish(ctx, KeyLinks, id, ChangeDelete)
	}
	return ok, nil
}

func (s *LinkService) Get(id int64) (core.Link, bool) { return s.links.Get(id) }

func (s *LinkService) List() []core.Link { return s.links.All() }

func (s *LinkService) ByCategory(category string) []core.Link {
	return s.links.Filter(func(l core.Link) bool { return l.Category == category })
}

// Import creates one link per data row of the first sheet. Bad rows are
// reported and skipped. Blank rows are dropped before numbering, and the
// header counts as row 1.
func (s *LinkService) Import(ctx context.Context, r sheets.TableReader) (ImportResult, error) {
	t, err := r.ReadTable(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	cols := struct{ title, url, desc, cat int }{
		t.Column("Title"), t.Column("URL"), t.Column("Description"), t.Column("Category"),
	}
	res := ImportResult{Errors: []string{}}
	rowNumber := 1
	for _, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		rowNumber++
		title, url := sheets.Cell(row, cols.title), sheets.Cell(row, cols.url)
		if title == "" || url == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: Missing required fields (Title and URL are required)", rowNumber))
			continue
		}
		if err := core.ValidateURL(url); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: Invalid URL format", rowNumber))
			continue
		}
		_, err := s.Create(ctx, NewLink{
			Title:       title,
			URL:         url,
			Description: sheets.Cell(row, cols.desc),
			Category:    sheets.Cell(row, cols.cat),
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: Failed to create link - %v", rowNumber, err))
			continue
		}
		res.Success++
	}
	s.log.InfoContext(ctx, "links imported", log.FieldOperation, log.OpImport, log.FieldCount, res.Success, "rejected", len(res.Errors))
	return res, nil
}

// ExportTable renders every link with timestamps.
func (s *LinkService) ExportTable() (sheets.Table, error) {
	links := s.links.All()
	if len(links) == 0 {
		return sheets.Table{}, ErrNothingToExport
	}
	t := sheets.Table{Name: linkSheetName, Header: linkHeader, Widths: linkWidths}
	for _, l := range links {
		t.Rows = append(t.Rows, []string{
			l.Title, l.URL, l.Description, l.Category,
			formatDay(l.CreatedAt, s.loc),
			formatDay(l.UpdatedAt, s.loc),
		})
	}
	return t, nil
}

// Export writes the export table through w.
func (s *LinkService) Export(ctx context.Context, w sheets.TableWriter) (int, error) {
	t, err := s.ExportTable()
	if err != nil {
		return 0, err
	}
	if err := w.WriteTable(ctx, t); err != nil {
		return 0, fmt.Errorf("export links: %w", err)
	}
	s.log.InfoContext(ctx, "links exported", log.FieldOperation, log.OpExport, log.FieldCount, len(t.Rows))
	return len(t.Rows), nil
}

// ExportFileName is links_export_YYYY-MM-DD.xlsx for the current day.
func (s *LinkService) ExportFileName() string {
	return "links_export_" + core.Today(s.now(), s.loc).String() + ".xlsx"
}

// TemplateTable is a two-row sample of the import layout.
func (s *LinkService) TemplateTable() sheets.Table {
	return sheets.Table{
		Name:   linkSheetName,
		Header: linkHeader[:4],
		Rows: [][]string{
			{"Example Link 1", "https://example.com", "This is a sample description", "General"},
			{"Example Link 2", "https://example2.com", "Another sample description", "Work"},
		},
		Widths: linkWidths[:4],
	}
}

// Table is the export table, empty rather than an error when there are no links.
func (s *LinkService) Table() sheets.Table {
	t, err := s.ExportTable()
	if err != nil {
		return sheets.Table{Name: linkSheetName, Header: linkHeader, Widths: linkWidths}
	}
	return t
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
