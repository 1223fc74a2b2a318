package filter

import (
	"strings"

	"github.com/jlrodriguez/jobsift/internal/schema"
)

type requireContentStep struct {
	cfg RequireContentConfig
}

// newRequireContent creates the step that drops rows with empty values
// in any required column.
func newRequireContent(cfg RequireContentConfig) Step {
	return &requireContentStep{cfg: cfg}
}

func (s *requireContentStep) Name() string { return "require_content" }

func (s *requireContentStep) Enabled() bool {
	return s.cfg.Enabled && len(s.cfg.Columns) > 0
}

func (s *requireContentStep) Validate() error {
	return validateColumns(s.cfg.Columns...)
}

func (s *requireContentStep) Apply(rows []schema.Row) ([]schema.Row, Summary, error) {
	initial := len(rows)
	kept := make([]schema.Row, 0, initial)

	for _, row := range rows {
		empty := false
		for _, col := range s.cfg.Columns {
			value, _ := row.Field(col)
			if strings.TrimSpace(value) == "" {
				empty = true
				break
			}
		}
		if !empty {
			kept = append(kept, row)
		}
	}

	return kept, Summary{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}
