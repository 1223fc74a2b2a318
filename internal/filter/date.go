package filter

import (
	"fmt"
	"time"

	"github.com/jlrodriguez/jobsift/internal/schema"
)

type dateRecencyStep struct {
	cfg DateFilterConfig
	now time.Time
}

// newDateRecency creates the step that drops rows older than the
// lookback window, measured from the pipeline-start instant.
func newDateRecency(cfg DateFilterConfig, now time.Time) Step {
	return &dateRecencyStep{cfg: cfg, now: now}
}

func (s *dateRecencyStep) Name() string { return "date_recency" }

func (s *dateRecencyStep) Enabled() bool {
	return s.cfg.Enabled && s.cfg.DaysBack > 0
}

func (s *dateRecencyStep) Validate() error {
	if err := validateColumns(s.cfg.Column); err != nil {
		return err
	}
	if s.cfg.Column != schema.ColPublished {
		return fmt.Errorf("column %q is not date-typed", s.cfg.Column)
	}
	return nil
}

func (s *dateRecencyStep) Apply(rows []schema.Row) ([]schema.Row, Summary, error) {
	initial := len(rows)
	cutoff := s.now.AddDate(0, 0, -s.cfg.DaysBack)

	kept := make([]schema.Row, 0, initial)
	for _, row := range rows {
		// A zero published instant cannot satisfy a recency window.
		if row.Published.IsZero() || row.Published.Before(cutoff) {
			continue
		}
		kept = append(kept, row)
	}

	return kept, Summary{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}
