package schema

import (
	"time"
)

// Canonical column names of the posting schema. Filter and enrichment
// configuration refer to columns by these names.
const (
	ColJobTitle   = "job_title"
	ColLink       = "link"
	ColEntryTitle = "entry_title"
	ColPublished  = "published"
	ColFeedTitle  = "feed_title"
	ColReader     = "reader"
	ColTimeWindow = "time_window"
	ColSummary    = "summary"
	ColNotes      = "notes"
)

// Columns lists the canonical columns in persisted order.
var Columns = []string{
	ColJobTitle,
	ColLink,
	ColEntryTitle,
	ColPublished,
	ColFeedTitle,
	ColReader,
	ColTimeWindow,
	ColSummary,
	ColNotes,
}

// KnownColumn reports whether name is a canonical column.
func KnownColumn(name string) bool {
	for _, col := range Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Row is one job posting observation. Link is the identity key: two rows
// with the same Link denote the same posting re-observed.
//
// EffectiveFrom/EffectiveTo are set only by the history-preserving merge
// strategy; a zero EffectiveTo marks the open version. AsOf is set by the
// filter pipeline on curated rows. MatchPercentage stays nil until the
// enrichment stage scores the row (and stays nil when scoring failed).
type Row struct {
	JobTitle   string
	Link       string
	EntryTitle string
	Published  time.Time
	FeedTitle  string
	Reader     string
	TimeWindow string
	Summary    string
	Notes      string

	EffectiveFrom time.Time
	EffectiveTo   time.Time

	AsOf time.Time

	MatchPercentage *float64
	MatchedSkills   []string
	MissingSkills   []string
}

// Field returns the row's value for a canonical column as a string. The
// published instant is rendered in RFC 3339; a zero instant renders as
// the empty string. The second return value is false for unknown columns.
func (r Row) Field(col string) (string, bool) {
	switch col {
	case ColJobTitle:
		return r.JobTitle, true
	case ColLink:
		return r.Link, true
	case ColEntryTitle:
		return r.EntryTitle, true
	case ColPublished:
		if r.Published.IsZero() {
			return "", true
		}
		return r.Published.Format(time.RFC3339), true
	case ColFeedTitle:
		return r.FeedTitle, true
	case ColReader:
		return r.Reader, true
	case ColTimeWindow:
		return r.TimeWindow, true
	case ColSummary:
		return r.Summary, true
	case ColNotes:
		return r.Notes, true
	default:
		return "", false
	}
}

// Current reports whether the row is an open version under the
// history-preserving strategy. Rows produced by the other strategies
// never carry an EffectiveTo and are always current.
func (r Row) Current() bool {
	return r.EffectiveTo.IsZero()
}

// ContentEquals compares the content fields that participate in change
// detection: everything except notes, version bookkeeping and
// enrichment annotations.
func (r Row) ContentEquals(other Row) bool {
	return r.JobTitle == other.JobTitle &&
		r.EntryTitle == other.EntryTitle &&
		r.Published.Equal(other.Published) &&
		r.FeedTitle == other.FeedTitle &&
		r.Reader == other.Reader &&
		r.TimeWindow == other.TimeWindow &&
		r.Summary == other.Summary
}
