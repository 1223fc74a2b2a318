package feeds

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/jlrodriguez/jobsift/internal/schema"
)

// DateErrorPolicy decides what happens to an entry whose published
// date cannot be parsed.
type DateErrorPolicy string

const (
	// DateErrorKeep keeps the row with an unset published instant.
	DateErrorKeep DateErrorPolicy = "keep"
	// DateErrorDrop discards the row.
	DateErrorDrop DateErrorPolicy = "drop"
)

func ParseDateErrorPolicy(s string) (DateErrorPolicy, error) {
	switch DateErrorPolicy(s) {
	case "":
		return DateErrorKeep, nil
	case DateErrorKeep, DateErrorDrop:
		return DateErrorPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown on-date-error policy: %q", s)
	}
}

// Normalizer maps raw feed entries to canonical rows. Published
// timestamps without an explicit zone are interpreted in loc.
type Normalizer struct {
	loc    *time.Location
	policy DateErrorPolicy
}

func NewNormalizer(timezone string, policy DateErrorPolicy) (*Normalizer, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if policy == "" {
		policy = DateErrorKeep
	}
	return &Normalizer{loc: loc, policy: policy}, nil
}

// Normalize produces one row from a raw entry. A missing link returns
// ErrMissingIdentityKey. An unparseable date returns the row with an
// unset published instant together with a wrapped ErrDateParse, so the
// caller can apply its policy.
func (n *Normalizer) Normalize(entry Entry, feeder Feeder) (schema.Row, error) {
	link := strings.TrimSpace(entry.Link)
	if link == "" {
		return schema.Row{}, fmt.Errorf("entry %q: %w", entry.Title, schema.ErrMissingIdentityKey)
	}

	row := schema.Row{
		JobTitle:   feeder.Label(),
		Link:       link,
		EntryTitle: strings.TrimSpace(entry.Title),
		FeedTitle:  feeder.Title,
		Reader:     feeder.Reader,
		TimeWindow: feeder.TimeWindow,
		Summary:    FlattenHTML(entry.Summary),
	}

	raw := strings.TrimSpace(entry.Published)
	if raw == "" {
		return row, nil
	}

	published, err := dateparse.ParseIn(raw, n.loc)
	if err != nil {
		return row, fmt.Errorf("entry %q: parse %q: %w", entry.Title, raw, schema.ErrDateParse)
	}
	row.Published = published.In(n.loc)

	return row, nil
}

// Discard records an entry excluded during normalization.
type Discard struct {
	Entry Entry
	Err   error
}

// NormalizeAll normalizes a batch. Entries without a link are always
// discarded; entries with unparseable dates follow the configured
// policy.
func (n *Normalizer) NormalizeAll(entries []Entry, feeder Feeder) ([]schema.Row, []Discard) {
	rows := make([]schema.Row, 0, len(entries))
	var discarded []Discard

	for _, entry := range entries {
		row, err := n.Normalize(entry, feeder)
		if err != nil {
			if errors.Is(err, schema.ErrDateParse) && n.policy == DateErrorKeep {
				rows = append(rows, row)
				continue
			}
			discarded = append(discarded, Discard{Entry: entry, Err: err})
			continue
		}
		rows = append(rows, row)
	}

	return rows, discarded
}

// FlattenHTML strips markup from s and collapses runs of whitespace
// into single spaces.
func FlattenHTML(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
