// Package ai defines the scoring capability used by the enrichment
// stage.
package ai

import (
	"context"
	"errors"
)

// MatchResult is the outcome of scoring one job description against
// the reference resume.
type MatchResult struct {
	MatchPercentage float64  `mapstructure:"match_percentage"`
	MatchedSkills   []string `mapstructure:"matched_skills"`
	MissingSkills   []string `mapstructure:"missing_skills"`
}

// Scorer scores a batch of job descriptions against a resume. The
// returned map is keyed by the index of the description within the
// batch; a description the model could not assess is absent from the
// map rather than zeroed.
type Scorer interface {
	ScoreBatch(ctx context.Context, resume string, descriptions []string) (map[int]MatchResult, error)
}

// TransientError marks a failure worth retrying, such as a timeout or
// an unparseable model response. Configuration and input errors are
// returned bare.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
