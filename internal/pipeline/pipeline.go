// Package pipeline drives one dual-feed batch run: expansion, relevance
// gating, entity extraction, duplicate collapse, per-mode clustering and
// feed assembly. Per-item failures are isolated; the run always yields a
// valid document unless the input itself is empty or the configuration is
// unusable.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DragonSun329/briefai/internal/core/domain"
	"github.com/DragonSun329/briefai/internal/output/feed"
	"github.com/DragonSun329/briefai/internal/platform/config"
	"github.com/DragonSun329/briefai/internal/platform/observability"
	"github.com/DragonSun329/briefai/internal/process/cluster"
	"github.com/DragonSun329/briefai/internal/process/dedup"
	"github.com/DragonSun329/briefai/internal/process/entities"
	"github.com/DragonSun329/briefai/internal/process/expand"
)

var (
	ErrEmptyInput    = errors.New("no input stories")
	ErrMissingConfig = errors.New("missing configuration")
)

const (
	logKeyMode       = "mode"
	logKeyCandidates = "candidates"
	logKeyClusters   = "clusters"
	logKeySingletons = "singletons"

	dropReasonBelowMinRelevance = "below_min_relevance"

	degradedReasonNoProvider     = "cluster_provider_unavailable"
	degradedReasonProviderFailed = "cluster_provider_failed"

	stageExpand  = "expand"
	stageExtract = "extract"
	stageDedup   = "dedup"
	stageCluster = "cluster"
	stageBuild   = "build"
)

// Pipeline wires the run stages together. provider may be nil, in which
// case every candidate is emitted ungrouped.
type Pipeline struct {
	cfg       *config.Config
	expander  *expand.Expander
	extractor entities.Extractor
	detector  *dedup.Detector
	provider  cluster.Provider
	ranker    *feed.Ranker
	logger    *zerolog.Logger
}

func New(
	cfg *config.Config,
	expander *expand.Expander,
	extractor entities.Extractor,
	detector *dedup.Detector,
	provider cluster.Provider,
	ranker *feed.Ranker,
	logger *zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		expander:  expander,
		extractor: extractor,
		detector:  detector,
		provider:  provider,
		ranker:    ranker,
		logger:    logger,
	}
}

// Result is one completed run: the document plus the run-level counters
// the archive records.
type Result struct {
	Feed domain.DualFeed

	CandidateCount  int
	DuplicateCount  int
	Degraded        bool
	DegradedReason  string
	EventClusters   int
	ThemeClusters   int
	EventSingletons int
	ThemeSingletons int
}

type grouping struct {
	clusters   []domain.StoryCluster
	singletons []domain.Candidate
}

// Run executes one batch over stories for the given date. Only an empty
// input or unusable configuration aborts; everything else degrades.
func (p *Pipeline) Run(ctx context.Context, stories []domain.Story, date time.Time) (Result, error) {
	started := time.Now()

	if len(stories) == 0 {
		return Result{}, ErrEmptyInput
	}

	if p.cfg == nil {
		return Result{}, fmt.Errorf("%w: nil config", ErrMissingConfig)
	}

	candidates := p.expandStage(stories)
	candidates = p.relevanceGate(candidates)
	p.extractStage(ctx, candidates)

	candidates, removed, err := p.dedupStage(candidates)
	if err != nil {
		return Result{}, err
	}

	event, theme, degradedReason := p.clusterStage(ctx, candidates)

	doc := p.buildStage(ctx, event, theme, len(candidates), date)

	result := Result{
		Feed:            doc,
		CandidateCount:  len(candidates),
		DuplicateCount:  removed,
		Degraded:        degradedReason != "",
		DegradedReason:  degradedReason,
		EventClusters:   len(event.clusters),
		ThemeClusters:   len(theme.clusters),
		EventSingletons: len(event.singletons),
		ThemeSingletons: len(theme.singletons),
	}

	observability.RunDurationSeconds.Observe(time.Since(started).Seconds())

	p.logger.Info().
		Int(logKeyCandidates, result.CandidateCount).
		Int("duplicates_removed", result.DuplicateCount).
		Bool("degraded", result.Degraded).
		Dur("elapsed", time.Since(started)).
		Msg("dual feed run complete")

	return result, nil
}

func (p *Pipeline) expandStage(stories []domain.Story) []domain.Candidate {
	defer observeStage(stageExpand)()

	candidates := p.expander.Expand(stories, expand.Options{
		MaxRelated:             p.cfg.MaxRelatedPerStory,
		IncludeSourceOnlyLinks: p.cfg.IncludeSourceOnlyLinks,
	})

	for i := range candidates {
		observability.CandidatesExpanded.WithLabelValues(string(candidates[i].Role)).Inc()
	}

	if p.cfg.MaxCandidates > 0 && len(candidates) > p.cfg.MaxCandidates {
		p.logger.Info().
			Int(logKeyCandidates, len(candidates)).
			Int("max", p.cfg.MaxCandidates).
			Msg("truncating candidate pool")

		candidates = candidates[:p.cfg.MaxCandidates]
	}

	return candidates
}

func (p *Pipeline) relevanceGate(candidates []domain.Candidate) []domain.Candidate {
	if p.cfg.MinRelevance <= 0 {
		return candidates
	}

	kept := candidates[:0]

	for i := range candidates {
		if candidates[i].AIRelevance < p.cfg.MinRelevance {
			observability.CandidatesDropped.WithLabelValues(dropReasonBelowMinRelevance).Inc()
			continue
		}

		kept = append(kept, candidates[i])
	}

	return kept
}

// extractStage annotates candidates with entity sets on a bounded worker
// pool. Extraction failures leave the candidate unannotated and never
// abort the batch.
func (p *Pipeline) extractStage(ctx context.Context, candidates []domain.Candidate) {
	defer observeStage(stageExtract)()

	if p.extractor == nil || len(candidates) == 0 {
		return
	}

	workers := p.cfg.ExtractionWorkers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				p.extractOne(ctx, &candidates[i])
			}
		}()
	}

	for i := range candidates {
		jobs <- i
	}

	close(jobs)
	wg.Wait()
}

func (p *Pipeline) extractOne(ctx context.Context, c *domain.Candidate) {
	text := c.Title
	if c.Content != "" {
		text += "\n\n" + c.Content
	}

	set, err := p.extractor.Extract(ctx, text)
	if err != nil {
		observability.ExtractionFallbacks.Inc()
		p.logger.Warn().Err(err).Str("story_id", c.StoryID).Msg("entity extraction failed, candidate left unannotated")

		return
	}

	if set != nil && !set.IsEmpty() {
		c.Entities = set
	}
}

func (p *Pipeline) dedupStage(candidates []domain.Candidate) ([]domain.Candidate, int, error) {
	defer observeStage(stageDedup)()

	strategy := p.cfg.DedupStrategy
	if strategy == "" {
		strategy = dedup.DefaultStrategy
	}

	survivors, removed, err := p.detector.Deduplicate(candidates, dedup.Options{
		Strategy:            strategy,
		PreserveHighScorers: p.cfg.PreserveHighScorers,
		MinScoreToPreserve:  p.cfg.MinScoreToPreserve,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	observability.DuplicatesRemoved.WithLabelValues(strategy).Add(float64(removed))

	return survivors, removed, nil
}

// clusterStage groups the pool once per mode. The two invocations only
// read the candidate slice, so they run concurrently. A missing or failing
// provider degrades the affected run to all singletons.
func (p *Pipeline) clusterStage(ctx context.Context, candidates []domain.Candidate) (grouping, grouping, string) {
	defer observeStage(stageCluster)()

	if p.provider == nil {
		p.logger.Warn().Msg("cluster provider unavailable, emitting singleton feed")
		observability.DegradedRuns.WithLabelValues(degradedReasonNoProvider).Inc()

		all := grouping{singletons: candidates}

		p.recordGrouping(domain.ModeEvent, all)
		p.recordGrouping(domain.ModeTheme, all)

		return all, all, degradedReasonNoProvider
	}

	var (
		wg           sync.WaitGroup
		event, theme grouping
		eventErr     error
		themeErr     error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		event, eventErr = p.clusterMode(ctx, candidates, domain.ModeEvent)
	}()

	go func() {
		defer wg.Done()

		theme, themeErr = p.clusterMode(ctx, candidates, domain.ModeTheme)
	}()

	wg.Wait()

	degradedReason := ""
	if eventErr != nil || themeErr != nil {
		degradedReason = degradedReasonProviderFailed
		observability.DegradedRuns.WithLabelValues(degradedReasonProviderFailed).Inc()
	}

	p.recordGrouping(domain.ModeEvent, event)
	p.recordGrouping(domain.ModeTheme, theme)

	return event, theme, degradedReason
}

func (p *Pipeline) clusterMode(ctx context.Context, candidates []domain.Candidate, mode domain.Mode) (grouping, error) {
	clusters, singletons, debug, err := p.provider.ClusterStories(ctx, candidates, mode)
	if err != nil {
		p.logger.Warn().Err(err).
			Str(logKeyMode, string(mode)).
			Msg("clustering failed, degrading mode to singletons")

		return grouping{singletons: candidates}, err
	}

	p.logger.Info().
		Str(logKeyMode, string(mode)).
		Int(logKeyClusters, len(clusters)).
		Int(logKeySingletons, len(singletons)).
		Float64("threshold", debug.Threshold).
		Int("edges", debug.EdgeCount).
		Msg("clustering complete")

	return grouping{clusters: clusters, singletons: singletons}, nil
}

func (p *Pipeline) recordGrouping(mode domain.Mode, g grouping) {
	observability.ClustersFormed.WithLabelValues(string(mode)).Set(float64(len(g.clusters)))
	observability.SingletonsRemaining.WithLabelValues(string(mode)).Set(float64(len(g.singletons)))
}

func (p *Pipeline) buildStage(ctx context.Context, event, theme grouping, candidateCount int, date time.Time) domain.DualFeed {
	defer observeStage(stageBuild)()

	return p.ranker.BuildDualFeed(ctx, feed.BuildInput{
		ClustersEvent:   event.clusters,
		SingletonsEvent: event.singletons,
		ClustersTheme:   theme.clusters,
		SingletonsTheme: theme.singletons,
		CandidateCount:  candidateCount,
		TopK:            p.cfg.TopK,
		MaxRelated:      p.cfg.MaxRelatedPerStory,
		Date:            date,
	})
}

func observeStage(stage string) func() {
	started := time.Now()

	return func() {
		observability.StageDurationSeconds.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	}
}
