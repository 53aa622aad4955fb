// Package feed turns story clusters and singletons into the two ranked
// sections of the dual-feed output document. Ranking adds cluster-quality
// bonuses on top of the gravity score; EVENT and THEME modes use different
// bonus weights.
package feed

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/DragonSun329/briefai/internal/core/domain"
	"github.com/DragonSun329/briefai/internal/core/llm"
	"github.com/DragonSun329/briefai/internal/platform/observability"
)

const (
	minRankScore = 0.0
	maxRankScore = 10.0

	// entropySaturation is the domain-entropy value at which the entropy
	// bonus saturates.
	entropySaturation = 2.0
)

const logKeyClusterID = "cluster_id"

// Weights are the mode-dependent bonus multipliers. THEME weights are
// uniformly smaller than EVENT weights, so for identical statistics a THEME
// rank score never exceeds the EVENT one.
type Weights struct {
	Coverage   float64
	Entropy    float64
	Confidence float64
}

var (
	eventWeights = Weights{Coverage: 0.25, Entropy: 0.15, Confidence: 0.35}
	themeWeights = Weights{Coverage: 0.18, Entropy: 0.12, Confidence: 0.30}
)

// WeightsFor returns the bonus weights for a mode.
func WeightsFor(mode domain.Mode) Weights {
	if mode == domain.ModeTheme {
		return themeWeights
	}

	return eventWeights
}

// Breakdown is a bonus-weighted rank score with its components.
type Breakdown struct {
	RankScore       float64
	CoverageBonus   float64
	EntropyBonus    float64
	ConfidenceBonus float64
}

// RankScore computes the bonus-weighted rank score for one cluster:
// coverage grows with the log of distinct outlet domains, entropy rewards
// evenly spread coverage, confidence passes the provider's own confidence
// through. The result is clamped to [0, 10] whatever the inputs.
func RankScore(mode domain.Mode, gravityScore float64, uniqueDomainCount int, domainEntropy, clusterConfidence float64) Breakdown {
	w := WeightsFor(mode)

	coverage := w.Coverage * math.Log1p(float64(uniqueDomainCount))
	entropy := w.Entropy * math.Min(1, domainEntropy/entropySaturation)
	confidence := w.Confidence * clusterConfidence

	return Breakdown{
		RankScore:       clampRank(gravityScore + coverage + entropy + confidence),
		CoverageBonus:   coverage,
		EntropyBonus:    entropy,
		ConfidenceBonus: confidence,
	}
}

func clampRank(score float64) float64 {
	if score < minRankScore {
		return minRankScore
	}

	if score > maxRankScore {
		return maxRankScore
	}

	return score
}

// Ranker scores clusters and singletons for one or both feed sections.
// scorer may be nil, in which case clusters inherit their canonical
// article's gravity score.
type Ranker struct {
	scorer llm.Scorer
	logger *zerolog.Logger
}

// NewRanker creates a Ranker.
func NewRanker(scorer llm.Scorer, logger *zerolog.Logger) *Ranker {
	return &Ranker{scorer: scorer, logger: logger}
}

// RankClusters scores each cluster and wraps it with its dossier. Scoring
// failures degrade to the canonical article's score; they never abort the
// batch.
func (r *Ranker) RankClusters(ctx context.Context, mode domain.Mode, clusters []domain.StoryCluster, maxRelated int) []domain.RankedFeedItem {
	items := make([]domain.RankedFeedItem, 0, len(clusters))

	for i := range clusters {
		c := &clusters[i]

		gravity := r.clusterGravity(ctx, c)
		breakdown := RankScore(mode, gravity, c.UniqueDomainCount, c.DomainEntropy, c.ClusterConfidence)
		dossier := BuildDossier(c, maxRelated)

		items = append(items, domain.RankedFeedItem{
			ItemType:        domain.ItemTypeCluster,
			RankScore:       breakdown.RankScore,
			GravityScore:    gravity,
			CoverageBonus:   breakdown.CoverageBonus,
			EntropyBonus:    breakdown.EntropyBonus,
			ConfidenceBonus: breakdown.ConfidenceBonus,
			Cluster:         &dossier,
		})
	}

	return items
}

// RankSingletons wraps ungrouped candidates: rank score equals gravity with
// all bonuses zero, in both modes.
func (r *Ranker) RankSingletons(singletons []domain.Candidate) []domain.RankedFeedItem {
	items := make([]domain.RankedFeedItem, 0, len(singletons))

	for i := range singletons {
		article := singletons[i]

		items = append(items, domain.RankedFeedItem{
			ItemType:     domain.ItemTypeSingleton,
			RankScore:    clampRank(candidateGravity(&article)),
			GravityScore: candidateGravity(&article),
			Article:      &article,
		})
	}

	return items
}

func (r *Ranker) clusterGravity(ctx context.Context, c *domain.StoryCluster) float64 {
	if r.scorer == nil {
		return candidateGravity(&c.Canonical)
	}

	result, err := r.scorer.Score(ctx, EventText(c), clusterMetadata(c))
	if err != nil {
		observability.ScoringFallbacks.Inc()
		r.logger.Warn().Err(err).
			Str(logKeyClusterID, c.ClusterID).
			Msg("cluster scoring failed, falling back to canonical score")

		return candidateGravity(&c.Canonical)
	}

	return result.GravityScore
}

func candidateGravity(c *domain.Candidate) float64 {
	if c.GravityScore > 0 {
		return c.GravityScore
	}

	return llm.DefaultGravityScore
}

func clusterMetadata(c *domain.StoryCluster) map[string]string {
	return map[string]string{
		"cluster_size":       fmt.Sprintf("%d", c.ClusterSize),
		"unique_domains":     fmt.Sprintf("%d", c.UniqueDomainCount),
		"domain_entropy":     fmt.Sprintf("%.2f", c.DomainEntropy),
		"cluster_confidence": fmt.Sprintf("%.2f", c.ClusterConfidence),
	}
}
