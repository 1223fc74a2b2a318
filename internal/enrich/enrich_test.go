package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jlrodriguez/jobsift/internal/ai"
	"github.com/jlrodriguez/jobsift/internal/schema"
)

type stubScorer struct {
	batches [][]string
	results []map[int]ai.MatchResult
	errs    []error
	calls   int
}

func (s *stubScorer) ScoreBatch(_ context.Context, _ string, descriptions []string) (map[int]ai.MatchResult, error) {
	s.batches = append(s.batches, descriptions)
	call := s.calls
	s.calls++

	if call < len(s.errs) && s.errs[call] != nil {
		return nil, s.errs[call]
	}
	if call < len(s.results) {
		return s.results[call], nil
	}
	return map[int]ai.MatchResult{}, nil
}

func fastConfig() Config {
	return Config{BatchSize: 2, MaxRetries: 3, RetryDelay: time.Millisecond}
}

func TestRunAnnotatesRows(t *testing.T) {
	rows := []schema.Row{
		{Link: "a", Summary: "go job"},
		{Link: "b", Summary: "sql job"},
		{Link: "c", Summary: "spark job"},
	}

	scorer := &stubScorer{results: []map[int]ai.MatchResult{
		{
			0: {MatchPercentage: 80, MatchedSkills: []string{"go"}},
			1: {MatchPercentage: 60, MissingSkills: []string{"sql"}},
		},
		{
			0: {MatchPercentage: 40},
		},
	}}

	out, err := Run(context.Background(), rows, "resume", fastConfig(), scorer, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 3 {
		t.Fatalf("expected all rows back, got %d", len(out))
	}
	if out[0].MatchPercentage == nil || *out[0].MatchPercentage != 80 {
		t.Fatalf("row a percentage = %v", out[0].MatchPercentage)
	}
	if out[1].MissingSkills[0] != "sql" {
		t.Fatalf("row b missing skills = %v", out[1].MissingSkills)
	}
	if out[2].MatchPercentage == nil || *out[2].MatchPercentage != 40 {
		t.Fatalf("row c percentage = %v", out[2].MatchPercentage)
	}

	if len(scorer.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(scorer.batches))
	}
	if len(scorer.batches[0]) != 2 || scorer.batches[0][0] != "go job" {
		t.Fatalf("unexpected first batch: %v", scorer.batches[0])
	}
}

func TestRunDoesNotMutateInput(t *testing.T) {
	rows := []schema.Row{{Link: "a", Summary: "x"}}
	scorer := &stubScorer{results: []map[int]ai.MatchResult{{0: {MatchPercentage: 50}}}}

	_, err := Run(context.Background(), rows, "resume", fastConfig(), scorer, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].MatchPercentage != nil {
		t.Fatalf("input slice was mutated")
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	rows := []schema.Row{{Link: "a", Summary: "x"}}
	scorer := &stubScorer{
		errs:    []error{ai.Transient(errors.New("rate limited")), ai.Transient(errors.New("rate limited"))},
		results: []map[int]ai.MatchResult{nil, nil, {0: {MatchPercentage: 75}}},
	}

	out, err := Run(context.Background(), rows, "resume", fastConfig(), scorer, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scorer.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", scorer.calls)
	}
	if out[0].MatchPercentage == nil || *out[0].MatchPercentage != 75 {
		t.Fatalf("row percentage = %v", out[0].MatchPercentage)
	}
}

func TestRunSkipsBatchAfterExhaustedRetries(t *testing.T) {
	rows := []schema.Row{
		{Link: "a", Summary: "x"},
		{Link: "b", Summary: "y"},
		{Link: "c", Summary: "z"},
	}

	transient := ai.Transient(errors.New("unavailable"))
	scorer := &stubScorer{
		errs:    []error{transient, transient, transient},
		results: []map[int]ai.MatchResult{nil, nil, nil, {0: {MatchPercentage: 90}}},
	}

	out, err := Run(context.Background(), rows, "resume", fastConfig(), scorer, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out[0].MatchPercentage != nil || out[1].MatchPercentage != nil {
		t.Fatalf("failed batch should stay unscored")
	}
	if out[2].MatchPercentage == nil || *out[2].MatchPercentage != 90 {
		t.Fatalf("second batch should still be scored, got %v", out[2].MatchPercentage)
	}
}

func TestRunAbortsOnPermanentError(t *testing.T) {
	rows := []schema.Row{{Link: "a", Summary: "x"}}
	scorer := &stubScorer{errs: []error{errors.New("bad api key")}}

	_, err := Run(context.Background(), rows, "resume", fastConfig(), scorer, zap.NewNop())
	if err == nil {
		t.Fatalf("expected error")
	}
	if scorer.calls != 1 {
		t.Fatalf("permanent error must not be retried, got %d calls", scorer.calls)
	}
}

func TestRunHonorsLimit(t *testing.T) {
	rows := []schema.Row{
		{Link: "a", Summary: "x"},
		{Link: "b", Summary: "y"},
		{Link: "c", Summary: "z"},
	}

	cfg := fastConfig()
	cfg.Limit = 1
	scorer := &stubScorer{results: []map[int]ai.MatchResult{{0: {MatchPercentage: 10}}}}

	out, err := Run(context.Background(), rows, "resume", cfg, scorer, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scorer.batches) != 1 || len(scorer.batches[0]) != 1 {
		t.Fatalf("expected a single one-row batch, got %v", scorer.batches)
	}
	if len(out) != 3 {
		t.Fatalf("unscored rows must still be returned, got %d", len(out))
	}
	if out[1].MatchPercentage != nil {
		t.Fatalf("row beyond limit should stay unscored")
	}
}

func TestRunRequiresResume(t *testing.T) {
	_, err := Run(context.Background(), nil, "  ", fastConfig(), &stubScorer{}, zap.NewNop())
	if err == nil {
		t.Fatalf("expected error for empty resume")
	}
}
