package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/DragonSun329/briefai/internal/core/domain"
	"github.com/DragonSun329/briefai/internal/core/llm"
	"github.com/DragonSun329/briefai/internal/output/feed"
	"github.com/DragonSun329/briefai/internal/pipeline"
	"github.com/DragonSun329/briefai/internal/platform/config"
	"github.com/DragonSun329/briefai/internal/platform/observability"
	"github.com/DragonSun329/briefai/internal/process/cluster"
	"github.com/DragonSun329/briefai/internal/process/dedup"
	"github.com/DragonSun329/briefai/internal/process/entities"
	"github.com/DragonSun329/briefai/internal/process/expand"
	"github.com/DragonSun329/briefai/internal/storage"
)

func main() {
	date := flag.String("date", time.Now().Format(time.DateOnly), "Target date (YYYY-MM-DD)")
	input := flag.String("input", "", "Path to stories JSON (default stories_<date>.json)")
	maxCandidates := flag.Int("max-candidates", 0, "Max candidates per run (0 uses config)")
	maxRelated := flag.Int("max-related", 0, "Max related links per story (0 uses config)")
	topK := flag.Int("top-k", 0, "Items per feed section (0 uses config)")
	minRelevance := flag.Float64("min-relevance", -1, "Minimum AI relevance, candidates below are dropped (<0 uses config)")
	includeSourceOnly := flag.Bool("include-source-only", false, "Keep homepage-only related links with synthesized titles")
	skipEnrichment := flag.Bool("skip-enrichment", false, "Local-only entity extraction, no remote fallback")
	skipScoring := flag.Bool("skip-scoring", false, "Skip the external cluster scorer")
	strategy := flag.String("strategy", "", "Duplicate detection strategy (title, content, entities, combined, combined_strict)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	applyFlags(cfg, *maxCandidates, *maxRelated, *topK, *minRelevance, *includeSourceOnly, *strategy)

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runDate, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		logger.Fatal().Err(err).Str("date", *date).Msg("invalid date")
	}

	inputPath := *input
	if inputPath == "" {
		inputPath = fmt.Sprintf("stories_%s.json", *date)
	}

	stories, err := readStories(inputPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", inputPath).Msg("failed to read stories")
	}

	go func() {
		if err := observability.NewServer(cfg.HealthPort, &logger).Start(ctx); err != nil {
			logger.Error().Err(err).Msg("health check server error")
		}
	}()

	p := buildPipeline(cfg, *skipEnrichment, *skipScoring, &logger)

	result, err := p.Run(ctx, stories, runDate)
	if err != nil {
		logger.Fatal().Err(err).Msg("dual feed run failed")
	}

	path, err := feed.Write(result.Feed, cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to write dual feed")
	}

	logger.Info().Str("path", path).Msg("dual feed written")

	if cfg.ArchiveEnabled() {
		archiveRun(ctx, cfg, runDate, result, &logger)
	}
}

func applyFlags(cfg *config.Config, maxCandidates, maxRelated, topK int, minRelevance float64, includeSourceOnly bool, strategy string) {
	if maxCandidates > 0 {
		cfg.MaxCandidates = maxCandidates
	}

	if maxRelated > 0 {
		cfg.MaxRelatedPerStory = maxRelated
	}

	if topK > 0 {
		cfg.TopK = topK
	}

	if minRelevance >= 0 {
		cfg.MinRelevance = minRelevance
	}

	if includeSourceOnly {
		cfg.IncludeSourceOnlyLinks = true
	}

	if strategy != "" {
		cfg.DedupStrategy = strategy
	}
}

func buildPipeline(cfg *config.Config, skipEnrichment, skipScoring bool, logger *zerolog.Logger) *pipeline.Pipeline {
	var (
		client  *openai.Client
		limiter *rate.Limiter
	)

	if cfg.RemoteEnabled() {
		clientCfg := openai.DefaultConfig(cfg.LLMAPIKey)
		if cfg.LLMBaseURL != "" {
			clientCfg.BaseURL = cfg.LLMBaseURL
		}

		client = openai.NewClientWithConfig(clientCfg)
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	var remote entities.Extractor
	if client != nil && !skipEnrichment {
		remote = entities.NewRemote(client, cfg.LLMModel, limiter, logger)
	}

	extractor := entities.NewStaged(entities.NewLocalTagger(), remote, cfg.ExtractionConfidenceGate, logger)

	var scorer llm.Scorer
	if client != nil && !skipScoring {
		scorer = llm.NewOpenAIScorer(client, cfg.LLMModel, limiter, logger)
	}

	provider := cluster.NewLexical(cluster.Config{
		EventThreshold:    cfg.EventThreshold,
		ThemeMargin:       cfg.ThemeMargin,
		ThemeMinThreshold: cfg.ThemeMin,
		ThemeMaxThreshold: cfg.ThemeMax,
		ThemeWindowDays:   cfg.ThemeWindowDays,
	}, logger)

	detector := dedup.NewDetector(dedup.Config{
		TitleThreshold:   cfg.TitleThreshold,
		ContentThreshold: cfg.ContentThreshold,
		EntityThreshold:  cfg.EntityThreshold,
	}, logger)

	return pipeline.New(cfg, expand.New(logger), extractor, detector, provider, feed.NewRanker(scorer, logger), logger)
}

// storiesDocument is the scraper's output file: either a bare array of
// stories or an object wrapping one.
type storiesDocument struct {
	Stories []domain.Story `json:"stories"`
}

func readStories(path string) ([]domain.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stories file: %w", err)
	}

	var stories []domain.Story
	if err := json.Unmarshal(data, &stories); err == nil {
		return stories, nil
	}

	var doc storiesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse stories file: %w", err)
	}

	return doc.Stories, nil
}

func archiveRun(ctx context.Context, cfg *config.Config, date time.Time, result pipeline.Result, logger *zerolog.Logger) {
	db, err := storage.New(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to archive database, skipping archive")
		return
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to run archive migrations, skipping archive")
		return
	}

	if err := db.SaveRun(ctx, date, result); err != nil {
		logger.Error().Err(err).Msg("failed to archive run")
		return
	}

	logger.Info().Msg("run archived")
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
