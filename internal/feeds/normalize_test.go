package feeds

import (
	"errors"
	"testing"
	"time"

	"github.com/jlrodriguez/jobsift/internal/schema"
)

func newTestNormalizer(t *testing.T, policy DateErrorPolicy) *Normalizer {
	t.Helper()
	n, err := NewNormalizer("UTC", policy)
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return n
}

func TestNormalizeEntry(t *testing.T) {
	n := newTestNormalizer(t, DateErrorKeep)
	feeder := Feeder{Title: "Data Jobs", Reader: "alerts", TimeWindow: "1d", JobTitle: "Data Engineer"}

	entry := Entry{
		Title:     "  Senior Data Engineer  ",
		Link:      " https://example.com/jobs/42 ",
		Summary:   "<p>Build <b>pipelines</b>.\n  Remote.</p>",
		Published: "2025-06-10T08:30:00Z",
	}

	row, err := n.Normalize(entry, feeder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if row.Link != "https://example.com/jobs/42" {
		t.Errorf("link = %q", row.Link)
	}
	if row.EntryTitle != "Senior Data Engineer" {
		t.Errorf("entry title = %q", row.EntryTitle)
	}
	if row.JobTitle != "Data Engineer" {
		t.Errorf("job title = %q", row.JobTitle)
	}
	if row.Summary != "Build pipelines. Remote." {
		t.Errorf("summary = %q", row.Summary)
	}
	want := time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)
	if !row.Published.Equal(want) {
		t.Errorf("published = %v, want %v", row.Published, want)
	}
	if row.Notes != "" {
		t.Errorf("fresh row must have empty notes, got %q", row.Notes)
	}
}

func TestNormalizeJobTitleFallsBackToFeedTitle(t *testing.T) {
	n := newTestNormalizer(t, DateErrorKeep)

	row, err := n.Normalize(Entry{Link: "x"}, Feeder{Title: "Platform Jobs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.JobTitle != "Platform Jobs" {
		t.Errorf("job title = %q", row.JobTitle)
	}
}

func TestNormalizeMissingLink(t *testing.T) {
	n := newTestNormalizer(t, DateErrorKeep)

	_, err := n.Normalize(Entry{Title: "no link", Link: "  "}, Feeder{Title: "f"})
	if !errors.Is(err, schema.ErrMissingIdentityKey) {
		t.Fatalf("expected ErrMissingIdentityKey, got %v", err)
	}
}

func TestNormalizeMissingDateLeavesPublishedUnset(t *testing.T) {
	n := newTestNormalizer(t, DateErrorKeep)

	row, err := n.Normalize(Entry{Link: "x"}, Feeder{Title: "f"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !row.Published.IsZero() {
		t.Fatalf("expected unset published, got %v", row.Published)
	}
}

func TestNormalizeDateParseError(t *testing.T) {
	n := newTestNormalizer(t, DateErrorKeep)

	row, err := n.Normalize(Entry{Link: "x", Published: "not a date"}, Feeder{Title: "f"})
	if !errors.Is(err, schema.ErrDateParse) {
		t.Fatalf("expected ErrDateParse, got %v", err)
	}
	if row.Link != "x" || !row.Published.IsZero() {
		t.Fatalf("expected usable row with unset published, got %+v", row)
	}
}

func TestNormalizeAllPolicies(t *testing.T) {
	entries := []Entry{
		{Link: "good", Published: "2025-06-10T08:30:00Z"},
		{Link: "bad-date", Published: "not a date"},
		{Link: "", Title: "no link"},
	}
	feeder := Feeder{Title: "f"}

	keep := newTestNormalizer(t, DateErrorKeep)
	rows, discarded := keep.NormalizeAll(entries, feeder)
	if len(rows) != 2 || len(discarded) != 1 {
		t.Fatalf("keep policy: rows=%d discarded=%d", len(rows), len(discarded))
	}
	if !errors.Is(discarded[0].Err, schema.ErrMissingIdentityKey) {
		t.Errorf("expected identity-key discard, got %v", discarded[0].Err)
	}

	drop := newTestNormalizer(t, DateErrorDrop)
	rows, discarded = drop.NormalizeAll(entries, feeder)
	if len(rows) != 1 || len(discarded) != 2 {
		t.Fatalf("drop policy: rows=%d discarded=%d", len(rows), len(discarded))
	}
	if rows[0].Link != "good" {
		t.Errorf("unexpected surviving row %+v", rows[0])
	}
}

func TestFlattenHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"spaced \n\t out", "spaced out"},
		{"<p>Go &amp; SQL <b>pipelines</b>, remote</p>", "Go & SQL pipelines, remote"},
	}
	for _, tc := range cases {
		if got := FlattenHTML(tc.in); got != tc.want {
			t.Errorf("FlattenHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseDateErrorPolicy(t *testing.T) {
	if p, err := ParseDateErrorPolicy(""); err != nil || p != DateErrorKeep {
		t.Fatalf("default policy = %q, %v", p, err)
	}
	if _, err := ParseDateErrorPolicy("ignore"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
