package service

import (
	"time"
)

// isoUTC is the fixed-width timestamp format used by PayTraq and in the
// window payloads: second precision, always Z-suffixed.
const isoUTC = "2006-01-02T15:04:05Z"

// Window is a half-open UTC interval [Start, End) covering one civil day
// in a fixed zone. Computed fresh per request, never persisted.
type Window struct {
	Start time.Time
	End   time.Time
}

// TodayWindow returns the window for "today" in loc. The end bound is
// local midnight plus one civil day, so across a daylight-saving
// transition the UTC span may differ from 24h while the local span is
// always exactly one calendar day.
func TodayWindow(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return Window{Start: start.UTC(), End: end.UTC()}
}

// StartISO renders the start bound as a UTC ISO string.
func (w Window) StartISO() string { return w.Start.UTC().Format(isoUTC) }

// EndISO renders the end bound as a UTC ISO string.
func (w Window) EndISO() string { return w.End.UTC().Format(isoUTC) }

// ContainsISO reports whether a PayTraq UTC timestamp string falls inside
// the window. Empty timestamps are outside by definition; strings that do
// not parse fall back to lexicographic comparison, which orders correctly
// for the fixed-width ISO UTC format.
func (w Window) ContainsISO(ts string) bool {
	if ts == "" {
		return false
	}
	t, err := time.Parse(isoUTC, ts)
	if err != nil {
		// PayTraq timestamps are fixed-width ISO UTC, so lexicographic
		// order matches chronological order.
		return ts >= w.StartISO() && ts < w.EndISO()
	}
	return !t.Before(w.Start) && t.Before(w.End)
}
