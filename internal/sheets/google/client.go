// Package google mirrors sheets.Table values to tabs of a Google spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gsheet "google.golang.org/api/sheets/v4"

	"tracker/internal/cache"
	"tracker/internal/log"
	"tracker/internal/sheets"
)

const (
	tabCacheSize = 32
	tabCacheTTL  = 5 * time.Minute
	// pixels per width unit when applying Table.Widths
	pixelsPerChar = 7
)

var _ sheets.TableWriter = (*Client)(nil)

// Client reads and rewrites whole tabs. Tab ids are cached by title since
// every write needs one and they only change when a tab is added.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabs          *cache.LRUCache[int64]
	log           *log.Logger
}

type Options struct {
	Logger *log.Logger
	// TabCache overrides the tab id cache, mostly for tests.
	TabCache *cache.LRUCache[int64]
}

func New(svc *gsheet.Service, spreadsheetID string, opts Options) (*Client, error) {
	if svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	tabs := opts.TabCache
	if tabs == nil {
		tabs = cache.NewLRUCache[int64](tabCacheSize, tabCacheTTL)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabs:          tabs,
		log:           logger.WithComponent(log.ComponentSheets),
	}, nil
}

// TabCache exposes the tab id cache so a cache.Manager can sweep it.
func (c *Client) TabCache() *cache.LRUCache[int64] { return c.tabs }

// ReadTab returns the contents of the named tab, first row as header.
func (c *Client) ReadTab(ctx context.Context, name string) (sheets.Table, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quoteTab(name)).Context(ctx).Do()
	if err != nil {
		return sheets.Table{}, fmt.Errorf("read tab %s: %w", name, err)
	}
	values := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		values = append(values, toStrings(row))
	}
	return sheets.FromValues(name, values), nil
}

// Tab adapts one named tab to sheets.TableReader.
func (c *Client) Tab(name string) sheets.TableReader { return tabReader{c: c, name: name} }

type tabReader struct {
	c    *Client
	name string
}

func (r tabReader) ReadTable(ctx context.Context) (sheets.Table, error) {
	return r.c.ReadTab(ctx, r.name)
}

// WriteTable replaces the tab named t.Name with t, creating the tab if it
// does not exist yet.
func (c *Client) WriteTable(ctx context.Context, t sheets.Table) error {
	if t.Name == "" {
		return errors.New("table has no name")
	}
	sheetID, err := c.ensureTab(ctx, t.Name)
	if err != nil {
		return err
	}
	rng := quoteTab(t.Name)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear tab %s: %w", t.Name, err)
	}

	values := t.Values()
	vr := &gsheet.ValueRange{Values: make([][]interface{}, len(values))}
	for i, row := range values {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		vr.Values[i] = cells
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update tab %s: %w", t.Name, err)
	}

	if len(t.Widths) > 0 {
		if err := c.applyWidths(ctx, sheetID, t.Widths); err != nil {
			// Widths are cosmetic; the data is already written.
			c.log.WarnContext(ctx, "failed to set column widths", log.FieldSheet, t.Name, log.FieldError, err)
		}
	}
	c.log.DebugContext(ctx, "tab written", log.FieldSheet, t.Name, log.FieldCount, len(t.Rows))
	return nil
}

func (c *Client) ensureTab(ctx context.Context, name string) (int64, error) {
	if id, ok := c.tabs.Get(name); ok {
		return id, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("list tabs: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		c.tabs.Set(s.Properties.Title, s.Properties.SheetId)
	}
	if id, ok := c.tabs.Get(name); ok {
		return id, nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
	}}}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add tab %s: %w", name, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add tab %s: empty reply", name)
	}
	id := resp.Replies[0].AddSheet.Properties.SheetId
	c.tabs.Set(name, id)
	c.log.InfoContext(ctx, "tab created", log.FieldSheet, name)
	return id, nil
}

func (c *Client) applyWidths(ctx context.Context, sheetID int64, widths []float64) error {
	reqs := make([]*gsheet.Request, 0, len(widths))
	for i, w := range widths {
		reqs = append(reqs, &gsheet.Request{UpdateDimensionProperties: &gsheet.UpdateDimensionPropertiesRequest{
			Range: &gsheet.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: int64(i),
				EndIndex:   int64(i + 1),
			},
			Properties: &gsheet.DimensionProperties{PixelSize: int64(w * pixelsPerChar)},
			Fields:     "pixelSize",
		}})
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
	return err
}

func quoteTab(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
