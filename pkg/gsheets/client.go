package gsheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sentinel errors surfaced to callers. Remote failure detail is logged
// server-side only; the caller sees one opaque access error.
var (
	ErrAccess    = errors.New("gsheets: spreadsheet access error")
	ErrKeyColumn = errors.New("gsheets: key column not present in headers")
)

// Default grid size for worksheets created on demand.
const (
	newSheetRows = 1000
	newSheetCols = 40
)

// Client wraps the Google Sheets API service.
type Client struct {
	svc *sheets.Service
}

// NewClient builds a Sheets client from a service-account credential blob
// with spreadsheet read/write scope.
func NewClient(ctx context.Context, credentialsJSON []byte) (*Client, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// RowRef is one indexed data row: its 1-based row number and a snapshot
// of its cell values at index time.
type RowRef struct {
	Row    int
	Values []string
}

// Worksheet is a handle on one worksheet of one spreadsheet, bound to a
// column schema. Headers are cached after EnsureHeaders.
type Worksheet struct {
	svc           *sheets.Service
	spreadsheetID string
	title         string
	schema        []string
	headers       []string
}

// Worksheet resolves a worksheet by exact title. When absent and create is
// set, the worksheet is added with a fixed default grid; the schema header
// row is seeded by the first EnsureHeaders call.
func (c *Client) Worksheet(ctx context.Context, spreadsheetID, title string, schema []string, create bool) (*Worksheet, error) {
	meta, err := c.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, accessErr("get spreadsheet", err)
	}

	found := false
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			found = true
			break
		}
	}
	if !found {
		if !create {
			log.Error().Str("worksheet", title).Msg("worksheet not found and auto-create disabled")
			return nil, fmt.Errorf("%w: worksheet %q not found", ErrAccess, title)
		}
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: title,
						GridProperties: &sheets.GridProperties{
							RowCount:    newSheetRows,
							ColumnCount: newSheetCols,
						},
					},
				},
			}},
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
			return nil, accessErr("add worksheet", err)
		}
		log.Info().Str("worksheet", title).Msg("worksheet created")
	}

	return &Worksheet{
		svc:           c.svc,
		spreadsheetID: spreadsheetID,
		title:         title,
		schema:        schema,
	}, nil
}

// Headers returns the header row cached by EnsureHeaders.
func (w *Worksheet) Headers() []string {
	return w.headers
}

// EnsureHeaders reconciles row 1 with the worksheet's schema. An empty
// header row is seeded with the full schema; an existing row missing
// schema columns gets them appended at the end, leaving existing column
// order untouched. Data rows are never rewritten here, so pre-existing
// rows show blanks under appended columns.
func (w *Worksheet) EnsureHeaders(ctx context.Context) ([]string, error) {
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, w.rangeName("1:1")).Context(ctx).Do()
	if err != nil {
		return nil, accessErr("read headers", err)
	}

	var existing []string
	if len(resp.Values) > 0 {
		existing = toStrings(resp.Values[0])
	}

	headers := existing
	rewrite := false
	if len(existing) == 0 {
		headers = append([]string{}, w.schema...)
		rewrite = true
	} else {
		have := make(map[string]bool, len(existing))
		for _, h := range existing {
			have[strings.TrimSpace(h)] = true
		}
		for _, col := range w.schema {
			if !have[col] {
				headers = append(headers, col)
				rewrite = true
			}
		}
	}

	if rewrite {
		rng := fmt.Sprintf("A1:%s1", columnLetter(len(headers)))
		vr := &sheets.ValueRange{Values: [][]interface{}{toCells(headers)}}
		_, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, w.rangeName(rng), vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return nil, accessErr("write headers", err)
		}
	}

	w.headers = headers
	return headers, nil
}

// KeyIndex scans rows 2..n and maps each trimmed key value to its row.
// Blank keys are skipped; on duplicate keys the first occurrence wins.
func (w *Worksheet) KeyIndex(ctx context.Context, keyColumn string) (map[string]RowRef, error) {
	keyIdx := w.columnIndex(keyColumn)
	if keyIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrKeyColumn, keyColumn)
	}

	rng := fmt.Sprintf("A2:%s", columnLetter(len(w.headers)))
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, w.rangeName(rng)).Context(ctx).Do()
	if err != nil {
		return nil, accessErr("read data rows", err)
	}

	index := make(map[string]RowRef, len(resp.Values))
	for i, raw := range resp.Values {
		row := toStrings(raw)
		key := ""
		if keyIdx < len(row) {
			key = strings.TrimSpace(row[keyIdx])
		}
		if key == "" {
			continue
		}
		if _, seen := index[key]; seen {
			continue
		}
		index[key] = RowRef{Row: i + 2, Values: row}
	}
	return index, nil
}

// WriteRow overwrites exactly one row across the full header width.
// Values beyond the header width are dropped; missing values are written
// as empty strings.
func (w *Worksheet) WriteRow(ctx context.Context, row int, values []string) error {
	width := len(w.headers)
	cells := make([]interface{}, width)
	for i := 0; i < width; i++ {
		if i < len(values) {
			cells[i] = values[i]
		} else {
			cells[i] = ""
		}
	}

	rng := fmt.Sprintf("A%d:%s%d", row, columnLetter(width), row)
	vr := &sheets.ValueRange{Values: [][]interface{}{cells}}
	_, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, w.rangeName(rng), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return accessErr("write row", err)
	}
	return nil
}

// AppendRows writes rows starting at the first row strictly below all
// existing content in the key column. The free row is computed by
// counting non-empty cells in that column, not from a stored cursor.
func (w *Worksheet) AppendRows(ctx context.Context, keyColumn string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	keyIdx := w.columnIndex(keyColumn)
	if keyIdx < 0 {
		return fmt.Errorf("%w: %q", ErrKeyColumn, keyColumn)
	}

	col := columnLetter(keyIdx + 1)
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, w.rangeName(col+":"+col)).Context(ctx).Do()
	if err != nil {
		return accessErr("read key column", err)
	}
	used := 0
	for _, raw := range resp.Values {
		cells := toStrings(raw)
		if len(cells) > 0 && strings.TrimSpace(cells[0]) != "" {
			used++
		}
	}
	start := used + 1
	if start < 2 {
		start = 2
	}

	width := len(w.headers)
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		cells := make([]interface{}, width)
		for i := 0; i < width; i++ {
			if i < len(r) {
				cells[i] = r[i]
			} else {
				cells[i] = ""
			}
		}
		values = append(values, cells)
	}

	rng := fmt.Sprintf("A%d:%s%d", start, columnLetter(width), start+len(rows)-1)
	vr := &sheets.ValueRange{Values: values}
	_, err = w.svc.Spreadsheets.Values.Update(w.spreadsheetID, w.rangeName(rng), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return accessErr("append rows", err)
	}
	return nil
}

// ClearDataRows blanks every row below the header across the header width.
func (w *Worksheet) ClearDataRows(ctx context.Context) error {
	rng := fmt.Sprintf("A2:%s", columnLetter(len(w.headers)))
	_, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, w.rangeName(rng), &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return accessErr("clear data rows", err)
	}
	return nil
}

func (w *Worksheet) columnIndex(name string) int {
	for i, h := range w.headers {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func (w *Worksheet) rangeName(a1 string) string {
	return fmt.Sprintf("'%s'!%s", w.title, a1)
}

// accessErr logs the underlying API failure and returns the opaque
// access error the caller is allowed to see.
func accessErr(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("sheets api call failed")
	return fmt.Errorf("%w: %s", ErrAccess, op)
}

// columnLetter converts a 1-based column number to its A1 letter form.
func columnLetter(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

// toStrings converts one API value row into trimmed-right strings.
func toStrings(raw []interface{}) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		switch t := v.(type) {
		case string:
			out[i] = t
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}

// toCells converts strings to the interface slice the API wants.
func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
