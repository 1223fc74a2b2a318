package filter

import (
	"time"

	"github.com/jlrodriguez/jobsift/internal/schema"
)

type stampAsOfStep struct {
	enabled bool
	now     time.Time
}

// newStampAsOf creates the step that attaches the pipeline-start
// instant to every surviving row.
func newStampAsOf(enabled bool, now time.Time) Step {
	return &stampAsOfStep{enabled: enabled, now: now}
}

func (s *stampAsOfStep) Name() string { return "stamp_as_of" }

func (s *stampAsOfStep) Enabled() bool { return s.enabled }

func (s *stampAsOfStep) Validate() error { return nil }

func (s *stampAsOfStep) Apply(rows []schema.Row) ([]schema.Row, Summary, error) {
	stamped := make([]schema.Row, len(rows))
	for i, row := range rows {
		row.AsOf = s.now
		stamped[i] = row
	}
	return stamped, Summary{Initial: len(rows), Dropped: 0, Left: len(rows)}, nil
}
