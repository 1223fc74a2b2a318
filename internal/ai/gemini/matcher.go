package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/jlrodriguez/jobsift/internal/ai"
	"github.com/jlrodriguez/jobsift/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Matcher scores job descriptions against a resume in a single model
// call per batch. It implements ai.Scorer.
type Matcher struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewMatcher(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Matcher{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// ScoreBatch sends one prompt covering every description and returns
// results keyed by description index. Model and parse failures are
// transient; empty inputs are not.
func (m *Matcher) ScoreBatch(ctx context.Context, resume string, descriptions []string) (map[int]ai.MatchResult, error) {
	if strings.TrimSpace(resume) == "" {
		return nil, errors.New("resume text is required")
	}
	if len(descriptions) == 0 {
		return map[int]ai.MatchResult{}, nil
	}

	prompt := buildPrompt(resume, descriptions)

	m.logger.Debug("gemini score batch request",
		zap.Int("jobs", len(descriptions)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, ai.Transient(err)
	}

	m.logger.Debug("gemini score batch response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	results, err := parseBatchResponse(raw, len(descriptions))
	if err != nil {
		return nil, ai.Transient(err)
	}
	return results, nil
}

func buildPrompt(resume string, descriptions []string) string {
	jobs := make([]string, len(descriptions))
	for i, desc := range descriptions {
		jobs[i] = fmt.Sprintf("--- JOB #%d ---\n%s", i+1, strings.TrimSpace(desc))
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{RESUME}}", resume)
	return strings.ReplaceAll(prompt, "{{JOBS}}", strings.Join(jobs, "\n\n"))
}

// parseBatchResponse decodes the model's JSON object keyed by job
// number. Keys outside [1, count] and malformed entries are skipped.
func parseBatchResponse(raw string, count int) (map[int]ai.MatchResult, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	results := make(map[int]ai.MatchResult, len(data))
	for key, value := range data {
		num, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || num < 1 || num > count {
			continue
		}

		var result ai.MatchResult
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &result,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, fmt.Errorf("build decoder: %w", err)
		}
		if err := decoder.Decode(value); err != nil {
			continue
		}

		result.MatchPercentage = clampPercentage(result.MatchPercentage)
		result.MatchedSkills = cleanSkills(result.MatchedSkills)
		result.MissingSkills = cleanSkills(result.MissingSkills)

		results[num-1] = result
	}

	return results, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	// The model sometimes wraps the object in prose.
	if start := strings.Index(raw, "{"); start > 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return raw
}

func clampPercentage(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func cleanSkills(skills []string) []string {
	cleaned := skills[:0]
	for _, skill := range skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			cleaned = append(cleaned, skill)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}
