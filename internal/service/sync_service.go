package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/paytraq_sync/internal/config"
	"github.com/GTDGit/paytraq_sync/internal/models"
	"github.com/GTDGit/paytraq_sync/internal/utils"
	"github.com/GTDGit/paytraq_sync/pkg/gsheets"
)

// Mirror is the spreadsheet worksheet surface the reconciler writes
// through. Satisfied by *gsheets.Worksheet; an in-memory fake stands in
// for tests.
type Mirror interface {
	EnsureHeaders(ctx context.Context) ([]string, error)
	KeyIndex(ctx context.Context, keyColumn string) (map[string]gsheets.RowRef, error)
	WriteRow(ctx context.Context, row int, values []string) error
	AppendRows(ctx context.Context, keyColumn string, rows [][]string) error
	ClearDataRows(ctx context.Context) error
}

// SyncOptions selects the reconciler mode for one run.
type SyncOptions struct {
	// KeyColumn is the column the mirror is keyed by (ItemID or Code).
	KeyColumn string
	// LogGranularity selects one log row per changed field or one row
	// per changed record with all diffs serialized as JSON.
	LogGranularity string
	// CreateMissing makes the update-sync append records whose key is
	// absent from the mirror instead of only reporting them. Off by
	// default: creation is the creation-sync run's job, and that ordering
	// dependency is deliberate.
	CreateMissing bool
}

func (o SyncOptions) keyColumn() string {
	if o.KeyColumn == models.KeyCode {
		return models.KeyCode
	}
	return models.KeyItemID
}

// SyncResult is the per-run outcome returned to the caller.
type SyncResult struct {
	Fetched     int      `json:"fetched"`
	New         int      `json:"new"`
	Updated     int      `json:"updated"`
	Unchanged   int      `json:"unchanged"`
	NotFound    int      `json:"not_found"`
	Skipped     int      `json:"skipped"`
	WriteErrors int      `json:"write_errors"`
	RowsWritten int      `json:"rows_written"`
	LogEntries  int      `json:"log_entries"`
	Debug       []string `json:"debug,omitempty"`
}

// SyncService reconciles normalized catalog records against a spreadsheet
// mirror. It never retries or rolls back: a failed row write is logged
// and counted while the run moves on to the next record; a failed bulk
// call ends the run with rows written so far left in place.
type SyncService struct {
	loc *time.Location
}

// NewSyncService constructs a SyncService using loc for change-log
// timestamps.
func NewSyncService(loc *time.Location) *SyncService {
	return &SyncService{loc: loc}
}

// ExportAll overwrites the worksheet with the entire catalog: headers
// reconciled, data rows cleared, one row per record. Records without a
// usable key are skipped.
func (s *SyncService) ExportAll(ctx context.Context, ws Mirror, records []models.ProductRecord, opts SyncOptions) (SyncResult, error) {
	res := SyncResult{Fetched: len(records)}
	keyCol := opts.keyColumn()

	headers, err := ws.EnsureHeaders(ctx)
	if err != nil {
		return res, err
	}
	if err := ws.ClearDataRows(ctx); err != nil {
		return res, err
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		if rec.Key(keyCol) == "" {
			res.Skipped++
			continue
		}
		rows = append(rows, rowFor(headers, rec))
	}
	if err := ws.AppendRows(ctx, keyCol, rows); err != nil {
		return res, err
	}
	res.RowsWritten = len(rows)
	return res, nil
}

// SyncCreatedToday appends records created inside the window whose key is
// not yet present in the mirror. Keys already present are treated as
// synced and skipped.
func (s *SyncService) SyncCreatedToday(ctx context.Context, ws Mirror, records []models.ProductRecord, win Window, opts SyncOptions) (SyncResult, error) {
	res := SyncResult{Fetched: len(records)}
	keyCol := opts.keyColumn()

	headers, err := ws.EnsureHeaders(ctx)
	if err != nil {
		return res, err
	}
	index, err := ws.KeyIndex(ctx, keyCol)
	if err != nil {
		return res, err
	}

	var rows [][]string
	for _, rec := range records {
		if !win.ContainsISO(rec.CreatedUTC) {
			continue
		}
		key := rec.Key(keyCol)
		if key == "" {
			res.Skipped++
			log.Warn().Str("name", rec.Name).Msg("record without sync key skipped")
			continue
		}
		if _, exists := index[key]; exists {
			res.Skipped++
			continue
		}
		res.New++
		rows = append(rows, rowFor(headers, rec))
	}

	if err := ws.AppendRows(ctx, keyCol, rows); err != nil {
		return res, err
	}
	res.RowsWritten = len(rows)
	return res, nil
}

// SyncUpdatedToday reconciles records updated inside the window against
// the mirror: unchanged rows are left alone, changed rows are overwritten
// (untouched columns keep their stored values) and the diffs land in the
// change log. Keys absent from the mirror are reported as not found, or
// appended when CreateMissing is set.
func (s *SyncService) SyncUpdatedToday(ctx context.Context, ws, logWs Mirror, records []models.ProductRecord, win Window, opts SyncOptions) (SyncResult, error) {
	res := SyncResult{Fetched: len(records)}
	keyCol := opts.keyColumn()

	headers, err := ws.EnsureHeaders(ctx)
	if err != nil {
		return res, err
	}
	if logWs != nil {
		if _, err := logWs.EnsureHeaders(ctx); err != nil {
			return res, err
		}
	}
	index, err := ws.KeyIndex(ctx, keyCol)
	if err != nil {
		return res, err
	}

	now := time.Now().In(s.loc).Format("2006-01-02 15:04:05")
	var entries []models.ChangeLogEntry
	var appendRows [][]string

	for _, rec := range records {
		if !win.ContainsISO(rec.UpdatedUTC) {
			continue
		}
		key := rec.Key(keyCol)
		if key == "" {
			res.Skipped++
			log.Warn().Str("name", rec.Name).Msg("record without sync key skipped")
			continue
		}

		ref, exists := index[key]
		if !exists {
			res.NotFound++
			if opts.CreateMissing {
				appendRows = append(appendRows, rowFor(headers, rec))
			}
			continue
		}

		changes := diffRow(headers, ref.Values, rec.Fields())
		if len(changes) == 0 {
			res.Unchanged++
			continue
		}

		// Overlay only the changed fields so columns outside the record's
		// field set keep their stored values.
		newRow := overlay(headers, ref.Values, changes)
		if err := ws.WriteRow(ctx, ref.Row, newRow); err != nil {
			// No rollback, no retry: already-written rows stay, the rest
			// of the catalog still gets its chance.
			log.Error().Err(err).Str("key", key).Int("row", ref.Row).Msg("failed to write row")
			res.WriteErrors++
			continue
		}
		res.Updated++
		res.RowsWritten++

		entries = append(entries, models.ChangeLogEntry{
			TimestampRiga: now,
			ItemID:        rec.ItemID,
			Code:          rec.Code,
			Name:          rec.Name,
			Changes:       changes,
		})
	}

	if len(appendRows) > 0 {
		if err := ws.AppendRows(ctx, keyCol, appendRows); err != nil {
			return res, err
		}
		res.New = len(appendRows)
		res.RowsWritten += len(appendRows)
	}

	if logWs != nil && len(entries) > 0 {
		logRows := logRowsFor(entries, opts.LogGranularity)
		if err := logWs.AppendRows(ctx, "TimestampRiga", logRows); err != nil {
			return res, err
		}
		res.LogEntries = len(logRows)
	}

	return res, nil
}

// diffRow compares the stored row against the record's fields column by
// column, using canonical comparison so round-trip artifacts do not count.
// Only schema columns present in the record's field set participate.
func diffRow(headers, stored []string, fields map[string]string) []models.FieldChange {
	var changes []models.FieldChange
	for i, col := range headers {
		fresh, ok := fields[col]
		if !ok {
			continue
		}
		old := ""
		if i < len(stored) {
			old = stored[i]
		}
		if utils.Same(old, fresh) {
			continue
		}
		changes = append(changes, models.FieldChange{
			Field:  col,
			Old:    utils.Canonical(old),
			New:    utils.Canonical(fresh),
			NewRaw: fresh,
		})
	}
	return changes
}

// overlay builds the full-width row to write: the stored snapshot with
// changed fields replaced by the record's values as fetched.
func overlay(headers, stored []string, changes []models.FieldChange) []string {
	row := make([]string, len(headers))
	copy(row, stored)

	byField := make(map[string]string, len(changes))
	for _, ch := range changes {
		byField[ch.Field] = ch.NewRaw
	}
	for i, col := range headers {
		if v, ok := byField[col]; ok {
			row[i] = v
		}
	}
	return row
}

// rowFor projects a record onto the worksheet's header order. Columns the
// record does not carry are written as empty strings.
func rowFor(headers []string, rec models.ProductRecord) []string {
	fields := rec.Fields()
	row := make([]string, len(headers))
	for i, col := range headers {
		row[i] = fields[col]
	}
	return row
}

// logRowsFor renders change-log entries per the configured granularity.
func logRowsFor(entries []models.ChangeLogEntry, granularity string) [][]string {
	var rows [][]string
	if granularity == config.LogPerRecord {
		for _, e := range entries {
			blob, err := json.Marshal(e.Changes)
			if err != nil {
				log.Error().Err(err).Str("item_id", e.ItemID).Msg("failed to serialize change set")
				continue
			}
			rows = append(rows, []string{e.TimestampRiga, e.ItemID, e.Code, e.Name, string(blob)})
		}
		return rows
	}
	for _, e := range entries {
		for _, ch := range e.Changes {
			rows = append(rows, []string{e.TimestampRiga, e.ItemID, e.Code, e.Name, ch.Field, ch.Old, ch.New})
		}
	}
	return rows
}
