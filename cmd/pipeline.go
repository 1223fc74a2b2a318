package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jlrodriguez/jobsift/internal/ai"
	"github.com/jlrodriguez/jobsift/internal/ai/gemini"
	"github.com/jlrodriguez/jobsift/internal/enrich"
	"github.com/jlrodriguez/jobsift/internal/feeds"
	"github.com/jlrodriguez/jobsift/internal/filter"
	"github.com/jlrodriguez/jobsift/internal/logger"
	"github.com/jlrodriguez/jobsift/internal/merge"
	"github.com/jlrodriguez/jobsift/internal/schema"
	"github.com/jlrodriguez/jobsift/internal/secrets"
	"github.com/jlrodriguez/jobsift/internal/store"
)

// runtime holds everything a pipeline stage needs for one invocation.
type runtime struct {
	config *Config
	logger *zap.Logger
	store  *store.SQLiteStore
	now    time.Time
	dryRun bool
}

func newRuntime() *runtime {
	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zl.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	zl.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		zl.Fatal("loading timezone", zap.String("timezone", config.Timezone), zap.Error(err))
	}

	st, err := store.Open(config.Database)
	if err != nil {
		zl.Fatal("opening database", zap.String("database", config.Database), zap.Error(err))
	}

	return &runtime{
		config: config,
		logger: zl,
		store:  st,
		now:    time.Now().In(loc),
		dryRun: viper.GetBool("dry-run"),
	}
}

func (r *runtime) close() {
	r.store.Close()
	r.logger.Sync()
}

// runETL fetches every configured feed, normalizes the entries and
// merges them into the stage table.
func (r *runtime) runETL(ctx context.Context, strategyName string) error {
	if strategyName == "" {
		strategyName = r.config.Strategy
	}
	strategy, err := merge.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	policy, err := feeds.ParseDateErrorPolicy(r.config.OnDateError)
	if err != nil {
		return err
	}

	normalizer, err := feeds.NewNormalizer(r.config.Timezone, policy)
	if err != nil {
		return err
	}

	if len(r.config.Feeds) == 0 {
		return errors.New("no feeds configured")
	}
	for _, feeder := range r.config.Feeds {
		if err := feeder.Validate(); err != nil {
			return err
		}
	}

	batches := feeds.Collect(ctx, feeds.NewRSSSource(), r.config.Feeds, r.logger)

	return r.mergeBatches(ctx, batches, normalizer, strategy)
}

func (r *runtime) mergeBatches(ctx context.Context, batches []feeds.Batch, normalizer *feeds.Normalizer, strategy merge.Strategy) error {
	var incoming []schema.Row
	for _, batch := range batches {
		rows, discarded := normalizer.NormalizeAll(batch.Entries, batch.Feeder)
		for _, d := range discarded {
			r.logger.Warn("entry discarded",
				zap.String("feed", batch.Feeder.Title),
				zap.String("entry", d.Entry.Title),
				zap.Error(d.Err),
			)
		}
		incoming = append(incoming, rows...)
	}

	existing, err := r.store.Read(ctx, r.config.StageTable)
	if err != nil {
		return err
	}

	result, err := merge.Run(existing, incoming, strategy, r.now)
	if err != nil {
		return err
	}

	r.logger.Info("merge completed",
		zap.String("strategy", string(strategy)),
		zap.Int("incoming", len(incoming)),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("closed", result.Closed),
		zap.Int("rejected", len(result.Rejected)),
	)
	for _, rejected := range result.Rejected {
		r.logger.Warn("row rejected",
			zap.String("entry_title", rejected.Row.EntryTitle),
			zap.NamedError("reason", rejected.Reason),
		)
	}

	if r.dryRun {
		r.logger.Info("dry run, stage table not written",
			zap.String("table", r.config.StageTable),
			zap.Int("rows", len(result.Rows)),
		)
		return nil
	}

	return r.store.Write(ctx, r.config.StageTable, result.Rows, store.WriteOverwrite)
}

// runFilter derives the curated table from the stage table.
func (r *runtime) runFilter(ctx context.Context) error {
	cfg := *r.config.Filter

	mode, err := filter.ParseLoadMode(cfg.LoadingMode)
	if err != nil {
		return err
	}

	rows, err := r.store.Read(ctx, cfg.SourceTable)
	if err != nil {
		return err
	}

	pipeline := filter.NewPipeline(cfg, r.now, r.logger)
	filtered, err := pipeline.Run(rows)
	if err != nil {
		return err
	}

	existing, err := r.store.Read(ctx, cfg.OutputTable)
	if err != nil {
		return err
	}

	out, err := filter.Compose(existing, filtered, mode)
	if err != nil {
		return err
	}

	r.logger.Info("filter completed",
		zap.String("source", cfg.SourceTable),
		zap.String("output", cfg.OutputTable),
		zap.String("loading_mode", string(mode)),
		zap.Int("stage_rows", len(rows)),
		zap.Int("filtered", len(filtered)),
		zap.Int("curated", len(out)),
	)

	if r.dryRun {
		r.logger.Info("dry run, curated table not written", zap.String("table", cfg.OutputTable))
		return nil
	}

	return r.store.Write(ctx, cfg.OutputTable, out, store.WriteOverwrite)
}

// runEnrich scores the curated table against the configured resume.
func (r *runtime) runEnrich(ctx context.Context, confirm func(count int) (bool, error)) error {
	cfg := r.config.Enrich

	resume, err := loadResume(cfg.ResumeFile)
	if err != nil {
		return err
	}

	rows, err := r.store.Read(ctx, r.config.Filter.OutputTable)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		r.logger.Info("nothing to score", zap.String("table", r.config.Filter.OutputTable))
		return nil
	}

	if confirm != nil {
		ok, err := confirm(len(rows))
		if err != nil {
			return err
		}
		if !ok {
			r.logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return nil
		}
	}

	scorer, err := r.newScorer(ctx)
	if err != nil {
		return err
	}

	out, err := enrich.Run(ctx, rows, resume, cfg.Config, scorer, r.logger)
	if err != nil {
		return err
	}

	if r.dryRun {
		r.logger.Info("dry run, scored table not written", zap.String("table", r.config.Filter.OutputTable))
		return nil
	}

	return r.store.Write(ctx, r.config.Filter.OutputTable, out, store.WriteOverwrite)
}

func (r *runtime) newScorer(ctx context.Context) (ai.Scorer, error) {
	cfg := r.config.AI
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required for enrichment")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	matcherLogger := r.logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	return gemini.NewMatcher(generator, matcherLogger, cfg.Gemini.MaxLogLength), nil
}

func loadResume(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("enrich.resume-file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading resume: %w", err)
	}
	resume := strings.TrimSpace(string(data))
	if resume == "" {
		return "", fmt.Errorf("resume file %q is empty", path)
	}
	return resume, nil
}
