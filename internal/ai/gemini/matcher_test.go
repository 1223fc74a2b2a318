package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/jlrodriguez/jobsift/internal/ai"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestScoreBatch(t *testing.T) {
	stub := &stubGenerator{response: `{
		"1": {"match_percentage": 85.0, "missing_skills": ["SQL"], "matched_skills": ["Go", "API"]},
		"2": {"match_percentage": 72.5, "missing_skills": [], "matched_skills": ["Cloud"]}
	}`}
	matcher := NewMatcher(stub, zap.NewNop(), 0)

	results, err := matcher.ScoreBatch(context.Background(), "resume text", []string{"job one", "job two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].MatchPercentage != 85.0 {
		t.Fatalf("job 1 percentage = %v", results[0].MatchPercentage)
	}
	if len(results[0].MatchedSkills) != 2 || results[0].MatchedSkills[0] != "Go" {
		t.Fatalf("job 1 matched skills = %v", results[0].MatchedSkills)
	}
	if results[1].MissingSkills != nil {
		t.Fatalf("expected empty missing skills, got %v", results[1].MissingSkills)
	}

	if !strings.Contains(stub.lastPrompt, "--- JOB #1 ---\njob one") {
		t.Fatalf("expected numbered job markers in prompt")
	}
	if !strings.Contains(stub.lastPrompt, "resume text") {
		t.Fatalf("expected resume text in prompt")
	}
}

func TestScoreBatchFencedResponse(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"1\": {\"match_percentage\": 50}}\n```"}
	matcher := NewMatcher(stub, zap.NewNop(), 0)

	results, err := matcher.ScoreBatch(context.Background(), "resume", []string{"job"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].MatchPercentage != 50 {
		t.Fatalf("percentage = %v", results[0].MatchPercentage)
	}
}

func TestScoreBatchOmittedAndOutOfRangeKeys(t *testing.T) {
	stub := &stubGenerator{response: `{
		"2": {"match_percentage": 60},
		"7": {"match_percentage": 99},
		"oops": {"match_percentage": 10}
	}`}
	matcher := NewMatcher(stub, zap.NewNop(), 0)

	results, err := matcher.ScoreBatch(context.Background(), "resume", []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if _, ok := results[0]; ok {
		t.Fatalf("job 1 should be absent")
	}
	if results[1].MatchPercentage != 60 {
		t.Fatalf("job 2 percentage = %v", results[1].MatchPercentage)
	}
}

func TestScoreBatchClampsPercentage(t *testing.T) {
	stub := &stubGenerator{response: `{"1": {"match_percentage": 150}, "2": {"match_percentage": -3}}`}
	matcher := NewMatcher(stub, zap.NewNop(), 0)

	results, err := matcher.ScoreBatch(context.Background(), "resume", []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].MatchPercentage != 100 || results[1].MatchPercentage != 0 {
		t.Fatalf("unexpected clamping: %v, %v", results[0].MatchPercentage, results[1].MatchPercentage)
	}
}

func TestScoreBatchStringPercentage(t *testing.T) {
	stub := &stubGenerator{response: `{"1": {"match_percentage": "88", "matched_skills": ["Go"]}}`}
	matcher := NewMatcher(stub, zap.NewNop(), 0)

	results, err := matcher.ScoreBatch(context.Background(), "resume", []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].MatchPercentage != 88 {
		t.Fatalf("percentage = %v", results[0].MatchPercentage)
	}
}

func TestScoreBatchGenerationErrorIsTransient(t *testing.T) {
	stub := &stubGenerator{err: errors.New("rate limited")}
	matcher := NewMatcher(stub, zap.NewNop(), 0)

	_, err := matcher.ScoreBatch(context.Background(), "resume", []string{"a"})
	if !ai.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestScoreBatchUnparseableResponseIsTransient(t *testing.T) {
	stub := &stubGenerator{response: "sorry, I cannot help with that"}
	matcher := NewMatcher(stub, zap.NewNop(), 0)

	_, err := matcher.ScoreBatch(context.Background(), "resume", []string{"a"})
	if !ai.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestScoreBatchEmptyResumeIsPermanent(t *testing.T) {
	matcher := NewMatcher(&stubGenerator{}, zap.NewNop(), 0)

	_, err := matcher.ScoreBatch(context.Background(), "  ", []string{"a"})
	if err == nil || ai.IsTransient(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestScoreBatchCanceledContextNotTransient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubGenerator{err: context.Canceled}
	matcher := NewMatcher(stub, zap.NewNop(), 0)

	_, err := matcher.ScoreBatch(ctx, "resume", []string{"a"})
	if err == nil || ai.IsTransient(err) {
		t.Fatalf("expected non-transient error, got %v", err)
	}
}
