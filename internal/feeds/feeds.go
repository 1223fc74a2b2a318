// Package feeds reads configured RSS sources and normalizes their
// entries into canonical rows for the merge engine.
package feeds

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Feeder is one configured feed source.
type Feeder struct {
	Title      string `mapstructure:"title"`
	Reader     string `mapstructure:"reader"`
	TimeWindow string `mapstructure:"time-window"`
	URL        string `mapstructure:"url"`

	// JobTitle labels every row produced from this feed. Falls back
	// to Title when empty.
	JobTitle string `mapstructure:"job-title"`
}

func (f Feeder) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("feeder title is required")
	}
	if strings.TrimSpace(f.URL) == "" {
		return fmt.Errorf("feeder %q: url is required", f.Title)
	}
	return nil
}

// Label returns the job title to stamp on rows from this feed.
func (f Feeder) Label() string {
	if f.JobTitle != "" {
		return f.JobTitle
	}
	return f.Title
}

// Entry is one raw feed item before normalization.
type Entry struct {
	Title     string
	Link      string
	Summary   string
	Published string
}

// Source produces raw entries for a feeder.
type Source interface {
	Fetch(ctx context.Context, feeder Feeder) ([]Entry, error)
}

// RSSSource fetches and parses RSS/Atom feeds over HTTP.
type RSSSource struct {
	parser *gofeed.Parser
}

func NewRSSSource() *RSSSource {
	return &RSSSource{parser: gofeed.NewParser()}
}

func (s *RSSSource) Fetch(ctx context.Context, feeder Feeder) ([]Entry, error) {
	feed, err := s.parser.ParseURLWithContext(feeder.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", feeder.Title, err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		published := item.Published
		if published == "" {
			published = item.Updated
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		entries = append(entries, Entry{
			Title:     item.Title,
			Link:      item.Link,
			Summary:   summary,
			Published: published,
		})
	}

	return entries, nil
}

// Batch pairs a feeder with the entries fetched from it.
type Batch struct {
	Feeder  Feeder
	Entries []Entry
}

// Collect fetches every feeder. A failing feed contributes an empty
// batch instead of aborting the run.
func Collect(ctx context.Context, src Source, feeders []Feeder, logger *zap.Logger) []Batch {
	batches := make([]Batch, 0, len(feeders))
	for _, feeder := range feeders {
		entries, err := src.Fetch(ctx, feeder)
		if err != nil {
			logger.Warn("feed fetch failed",
				zap.String("feed", feeder.Title),
				zap.Error(err),
			)
			batches = append(batches, Batch{Feeder: feeder})
			continue
		}

		logger.Info("feed fetched",
			zap.String("feed", feeder.Title),
			zap.Int("entries", len(entries)),
		)
		batches = append(batches, Batch{Feeder: feeder, Entries: entries})
	}
	return batches
}
