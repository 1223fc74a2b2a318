// Package enrich annotates curated rows with resume match scores, one
// model call per batch of rows.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jlrodriguez/jobsift/internal/ai"
	"github.com/jlrodriguez/jobsift/internal/schema"
	"github.com/jlrodriguez/jobsift/internal/utils"
)

const (
	defaultBatchSize  = 5
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// Config controls batching and retry behavior.
type Config struct {
	BatchSize  int           `mapstructure:"batch-size"`
	MaxRetries int           `mapstructure:"max-retries"`
	RetryDelay time.Duration `mapstructure:"retry-delay"`

	// Limit caps how many rows are scored. Zero means all.
	Limit int `mapstructure:"limit"`
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	return c
}

func DefaultConfig() Config {
	return Config{}.withDefaults()
}

// Run scores rows against resume and returns a new slice with the
// match fields set. Rows keep their order and identity. A batch whose
// transient failures exhaust the retries stays unscored; a permanent
// failure aborts the run.
func Run(ctx context.Context, rows []schema.Row, resume string, cfg Config, scorer ai.Scorer, logger *zap.Logger) ([]schema.Row, error) {
	if strings.TrimSpace(resume) == "" {
		return nil, errors.New("resume text is required")
	}

	cfg = cfg.withDefaults()

	out := make([]schema.Row, len(rows))
	copy(out, rows)

	total := len(out)
	if cfg.Limit > 0 && cfg.Limit < total {
		total = cfg.Limit
	}

	for start := 0; start < total; start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > total {
			end = total
		}

		descriptions := make([]string, end-start)
		for i, row := range out[start:end] {
			descriptions[i] = row.Summary
		}

		logger.Info("scoring batch",
			zap.Int("from", start+1),
			zap.Int("to", end),
			zap.Int("total", total),
		)

		results, err := scoreWithRetry(ctx, scorer, resume, descriptions, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("score rows %d-%d: %w", start+1, end, err)
		}
		if results == nil {
			logger.Warn("batch left unscored after retries",
				zap.Int("from", start+1),
				zap.Int("to", end),
			)
			continue
		}

		for i, result := range results {
			row := &out[start+i]
			pct := result.MatchPercentage
			row.MatchPercentage = &pct
			row.MatchedSkills = result.MatchedSkills
			row.MissingSkills = result.MissingSkills
		}
	}

	return out, nil
}

// scoreWithRetry retries transient failures with a fixed delay. It
// returns (nil, nil) when the retries are exhausted.
func scoreWithRetry(ctx context.Context, scorer ai.Scorer, resume string, descriptions []string, cfg Config, logger *zap.Logger) (map[int]ai.MatchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		results, err := scorer.ScoreBatch(ctx, resume, descriptions)
		if err == nil {
			return results, nil
		}
		if !ai.IsTransient(err) {
			return nil, err
		}

		lastErr = err
		logger.Warn("transient scoring failure",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", cfg.MaxRetries),
			zap.Error(err),
		)

		if attempt < cfg.MaxRetries {
			if err := utils.WaitFor(ctx, cfg.RetryDelay); err != nil {
				return nil, err
			}
		}
	}

	logger.Error("scoring failed after retries", zap.Error(lastErr))
	return nil, nil
}
