package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tracker/internal/cache"
	"tracker/internal/sheets"
)

const testSpreadsheet = "sheet-123"

// fakeSheets serves the handful of Sheets v4 endpoints the client uses.
type fakeSheets struct {
	mu       sync.Mutex
	ids      map[string]int64
	values   map[string][][]string
	widths   map[int64][]int64
	nextID   int64
	listHits int
	addHits  int
}

func newFakeSheets(tabs ...string) *fakeSheets {
	f := &fakeSheets{ids: map[string]int64{}, values: map[string][][]string{}, widths: map[int64][]int64{}}
	for _, t := range tabs {
		f.ids[t] = f.nextID
		f.nextID++
	}
	return f
}

func tabFromRange(rng string) string {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[:i]
	}
	rng = strings.TrimSuffix(strings.TrimPrefix(rng, "'"), "'")
	return strings.ReplaceAll(rng, "''", "'")
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/"+testSpreadsheet)
	switch {
	case p == "" && r.Method == http.MethodGet:
		f.listHits++
		ss := &gsheet.Spreadsheet{SpreadsheetId: testSpreadsheet}
		for title, id := range f.ids {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title, SheetId: id}})
		}
		writeJSON(w, ss)
	case p == ":batchUpdate":
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := &gsheet.BatchUpdateSpreadsheetResponse{SpreadsheetId: testSpreadsheet}
		for _, rq := range req.Requests {
			switch {
			case rq.AddSheet != nil:
				f.addHits++
				id := f.nextID
				f.nextID++
				f.ids[rq.AddSheet.Properties.Title] = id
				resp.Replies = append(resp.Replies, &gsheet.Response{AddSheet: &gsheet.AddSheetResponse{
					Properties: &gsheet.SheetProperties{Title: rq.AddSheet.Properties.Title, SheetId: id},
				}})
			case rq.UpdateDimensionProperties != nil:
				u := rq.UpdateDimensionProperties
				f.widths[u.Range.SheetId] = append(f.widths[u.Range.SheetId], u.Properties.PixelSize)
				resp.Replies = append(resp.Replies, &gsheet.Response{})
			}
		}
		writeJSON(w, resp)
	case strings.HasPrefix(p, "/values/"):
		rng := strings.TrimPrefix(p, "/values/")
		if strings.HasSuffix(rng, ":clear") {
			delete(f.values, tabFromRange(strings.TrimSuffix(rng, ":clear")))
			writeJSON(w, &gsheet.ClearValuesResponse{SpreadsheetId: testSpreadsheet})
			return
		}
		tab := tabFromRange(rng)
		switch r.Method {
		case http.MethodPut:
			if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
				http.Error(w, "want RAW input, got "+got, http.StatusBadRequest)
				return
			}
			var vr gsheet.ValueRange
			if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rows := make([][]string, len(vr.Values))
			for i, row := range vr.Values {
				rows[i] = toStrings(row)
			}
			f.values[tab] = rows
			writeJSON(w, &gsheet.UpdateValuesResponse{SpreadsheetId: testSpreadsheet})
		case http.MethodGet:
			if _, ok := f.ids[tab]; !ok {
				http.Error(w, `{"error":{"code":400,"message":"Unable to parse range"}}`, http.StatusBadRequest)
				return
			}
			vr := &gsheet.ValueRange{Range: rng}
			for _, row := range f.values[tab] {
				cells := make([]interface{}, len(row))
				for i, v := range row {
					cells[i] = v
				}
				vr.Values = append(vr.Values, cells)
			}
			writeJSON(w, vr)
		}
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithHTTPClient(srv.Client()),
		goption.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	c, err := New(svc, testSpreadsheet, Options{})
	require.NoError(t, err)
	return c
}

var linksTable = sheets.Table{
	Name:   "Links",
	Header: []string{"Title", "URL"},
	Rows:   [][]string{{"Go", "https://go.dev"}, {"Vue", "https://vuejs.org"}},
	Widths: []float64{30, 40},
}

func TestWriteTableCreatesMissingTab(t *testing.T) {
	ctx := context.Background()
	f := newFakeSheets("Tasks")
	c := newTestClient(t, f)

	require.NoError(t, c.WriteTable(ctx, linksTable))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, 1, f.addHits)
	id, ok := f.ids["Links"]
	require.True(t, ok)
	assert.Equal(t, [][]string{{"Title", "URL"}, {"Go", "https://go.dev"}, {"Vue", "https://vuejs.org"}}, f.values["Links"])
	assert.Equal(t, []int64{210, 280}, f.widths[id])
}

func TestWriteTableReusesCachedTabID(t *testing.T) {
	ctx := context.Background()
	f := newFakeSheets("Links")
	c := newTestClient(t, f)

	require.NoError(t, c.WriteTable(ctx, linksTable))
	shorter := sheets.Table{Name: "Links", Header: linksTable.Header, Rows: linksTable.Rows[:1]}
	require.NoError(t, c.WriteTable(ctx, shorter))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, 1, f.listHits)
	assert.Zero(t, f.addHits)
	assert.Len(t, f.values["Links"], 2, "old rows are cleared before the rewrite")
}

func TestTabCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }

	f := newFakeSheets("Links")
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(srv.Client()), goption.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	c, err := New(svc, testSpreadsheet, Options{TabCache: cache.NewLRUCacheWithClock[int64](4, time.Minute, clock)})
	require.NoError(t, err)

	require.NoError(t, c.WriteTable(ctx, linksTable))
	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()
	require.NoError(t, c.WriteTable(ctx, linksTable))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, 2, f.listHits)
}

func TestReadTab(t *testing.T) {
	ctx := context.Background()
	f := newFakeSheets("Links")
	f.values["Links"] = [][]string{{"Title", "URL", "Category"}, {"Go", "https://go.dev"}}
	c := newTestClient(t, f)

	got, err := c.Tab("Links").ReadTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Links", got.Name)
	assert.Equal(t, []string{"Title", "URL", "Category"}, got.Header)
	assert.Equal(t, [][]string{{"Go", "https://go.dev", ""}}, got.Rows)

	_, err = c.ReadTab(ctx, "Missing")
	assert.Error(t, err)
}

func TestNewRequiresServiceAndID(t *testing.T) {
	_, err := New(nil, testSpreadsheet, Options{})
	assert.Error(t, err)
	_, err = New(&gsheet.Service{}, " ", Options{})
	assert.Error(t, err)
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "'Links'", quoteTab("Links"))
	assert.Equal(t, "'Bob''s tab'", quoteTab("Bob's tab"))
	assert.Equal(t, "Bob's tab", tabFromRange(quoteTab("Bob's tab")+"!A1"))
}
