// Package filter derives the curated table from the stage table under a
// declarative configuration. The pipeline is a fixed sequence of steps:
// content presence, date recency, keyword exclusion and as_of stamping.
// Every step validates its configuration against the row schema before
// any row is processed.
package filter

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jlrodriguez/jobsift/internal/schema"
)

// Step is a single filtering stage applied to the candidate rows.
type Step interface {
	Name() string
	Enabled() bool

	Validate() error
	Apply(rows []schema.Row) ([]schema.Row, Summary, error)
}

// Summary describes the result of executing one step.
type Summary struct {
	Initial int
	Dropped int
	Left    int
}

// UnknownColumnError reports a configured column that is not part of
// the row schema. It fails the whole run before any row is processed.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column: %q", e.Column)
}

func validateColumns(cols ...string) error {
	for _, col := range cols {
		if !schema.KnownColumn(col) {
			return &UnknownColumnError{Column: col}
		}
	}
	return nil
}

// Pipeline executes the filter steps in order.
type Pipeline struct {
	steps  []Step
	logger *zap.Logger
}

// NewPipeline builds the pipeline for one run. now is captured once by
// the caller and shared by the date filter and the as_of stamp so every
// row in the run sees the same instant.
func NewPipeline(cfg Config, now time.Time, logger *zap.Logger) *Pipeline {
	cfg = cfg.withDefaults()

	steps := []Step{
		newRequireContent(cfg.RequireContent),
		newDateRecency(cfg.DateFilter, now),
		newKeywordExclusion(cfg.Exclude, cfg.CaseSensitive),
		newStampAsOf(cfg.AddAsOf, now),
	}

	return &Pipeline{steps: steps, logger: logger}
}

// Run validates every step, then applies them sequentially. An empty
// input yields an empty output without error.
func (p *Pipeline) Run(rows []schema.Row) ([]schema.Row, error) {
	for _, step := range p.steps {
		if !step.Enabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range p.steps {
		if !step.Enabled() {
			if p.logger != nil {
				p.logger.Debug("filter step disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if p.logger != nil {
			p.logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		rows = next
	}

	return rows, nil
}
