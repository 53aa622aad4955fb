package feed

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DragonSun329/briefai/internal/core/domain"
	"github.com/DragonSun329/briefai/internal/core/llm"
	"github.com/DragonSun329/briefai/internal/platform/observability"
)

func testRanker(scorer llm.Scorer) *Ranker {
	logger := zerolog.Nop()
	return NewRanker(scorer, &logger)
}

func TestRankScoreClamped(t *testing.T) {
	tests := []struct {
		name       string
		gravity    float64
		domains    int
		entropy    float64
		confidence float64
	}{
		{"extreme domain count", 9.9, 1_000_000, 50, 1},
		{"already at ceiling", 10, 100, 10, 1},
		{"zero everything", 0, 0, 0, 0},
		{"negative gravity", -3, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range []domain.Mode{domain.ModeEvent, domain.ModeTheme} {
				got := RankScore(mode, tt.gravity, tt.domains, tt.entropy, tt.confidence)
				assert.GreaterOrEqual(t, got.RankScore, 0.0)
				assert.LessOrEqual(t, got.RankScore, 10.0)
			}
		})
	}
}

func TestRankScoreBonusFormulas(t *testing.T) {
	got := RankScore(domain.ModeEvent, 5, 3, 1.0, 0.8)

	assert.InDelta(t, 0.25*math.Log1p(3), got.CoverageBonus, 1e-9)
	assert.InDelta(t, 0.15*0.5, got.EntropyBonus, 1e-9)
	assert.InDelta(t, 0.35*0.8, got.ConfidenceBonus, 1e-9)
	assert.InDelta(t, 5+got.CoverageBonus+got.EntropyBonus+got.ConfidenceBonus, got.RankScore, 1e-9)
}

func TestThemeNeverOutranksEvent(t *testing.T) {
	cases := []struct {
		gravity    float64
		domains    int
		entropy    float64
		confidence float64
	}{
		{5, 3, 1.0, 0.8},
		{2, 1, 0.1, 0.2},
		{9, 10, 3.0, 1.0},
		{5, 0, 0, 0},
	}

	for _, tc := range cases {
		event := RankScore(domain.ModeEvent, tc.gravity, tc.domains, tc.entropy, tc.confidence)
		theme := RankScore(domain.ModeTheme, tc.gravity, tc.domains, tc.entropy, tc.confidence)

		assert.LessOrEqual(t, theme.RankScore, event.RankScore)

		allZero := event.CoverageBonus == 0 && event.EntropyBonus == 0 && event.ConfidenceBonus == 0
		if theme.RankScore == event.RankScore && event.RankScore < 10 {
			assert.True(t, allZero, "equality requires all bonuses zero, got %+v", event)
		}
	}
}

func clusterFixture() domain.StoryCluster {
	return domain.StoryCluster{
		ClusterID: "cl-1",
		Canonical: domain.Candidate{
			StoryID: "aaa", Title: "OpenAI releases GPT-5",
			GravityScore: 8, KeyInsight: "reasoning jump", Summary: "Flagship launch.",
		},
		Related: []domain.Candidate{
			{StoryID: "bbb", Title: "GPT-5 is here", SourceName: "reuters"},
			{StoryID: "ccc", Title: "OpenAI ships flagship", URL: "https://www.theverge.com/x"},
		},
		ClusterSize:       3,
		ClusterConfidence: 0.9,
		UniqueDomainCount: 3,
		DomainEntropy:     1.1,
	}
}

func TestRankClustersWithoutScorerInheritsCanonicalGravity(t *testing.T) {
	items := testRanker(nil).RankClusters(context.Background(), domain.ModeEvent, []domain.StoryCluster{clusterFixture()}, 5)
	require.Len(t, items, 1)

	assert.Equal(t, domain.ItemTypeCluster, items[0].ItemType)
	assert.Equal(t, 8.0, items[0].GravityScore)
	assert.Greater(t, items[0].CoverageBonus, 0.0)
	require.NotNil(t, items[0].Cluster)
	assert.Equal(t, "cl-1", items[0].Cluster.ClusterID)
}

func TestRankClustersDefaultGravityWhenCanonicalUnscored(t *testing.T) {
	c := clusterFixture()
	c.Canonical.GravityScore = 0

	items := testRanker(nil).RankClusters(context.Background(), domain.ModeEvent, []domain.StoryCluster{c}, 5)
	require.Len(t, items, 1)
	assert.Equal(t, llm.DefaultGravityScore, items[0].GravityScore)
}

func TestRankClustersScorerFailureFallsBack(t *testing.T) {
	scorer := llm.NewFailingScorer(errors.New("rate limited"))
	before := testutil.ToFloat64(observability.ScoringFallbacks)

	items := testRanker(scorer).RankClusters(context.Background(), domain.ModeEvent, []domain.StoryCluster{clusterFixture()}, 5)
	require.Len(t, items, 1)
	assert.Equal(t, 8.0, items[0].GravityScore)
	assert.Equal(t, before+1, testutil.ToFloat64(observability.ScoringFallbacks))
}

func TestRankClustersUsesScorer(t *testing.T) {
	items := testRanker(llm.NewMockScorer()).RankClusters(context.Background(), domain.ModeEvent, []domain.StoryCluster{clusterFixture()}, 5)
	require.Len(t, items, 1)
	assert.Equal(t, 7.5, items[0].GravityScore)
}

func TestRankSingletonsZeroBonuses(t *testing.T) {
	singles := []domain.Candidate{
		{StoryID: "aaa", GravityScore: 6.5},
		{StoryID: "bbb"},
	}

	items := testRanker(nil).RankSingletons(singles)
	require.Len(t, items, 2)

	assert.Equal(t, 6.5, items[0].RankScore)
	assert.Equal(t, llm.DefaultGravityScore, items[1].RankScore)

	for _, item := range items {
		assert.Equal(t, domain.ItemTypeSingleton, item.ItemType)
		assert.Zero(t, item.CoverageBonus)
		assert.Zero(t, item.EntropyBonus)
		assert.Zero(t, item.ConfidenceBonus)
		require.NotNil(t, item.Article)
		assert.Nil(t, item.Cluster)
	}
}

func TestEventTextSynthesis(t *testing.T) {
	c := clusterFixture()
	text := EventText(&c)

	assert.Contains(t, text, "OpenAI releases GPT-5")
	assert.Contains(t, text, "Key insight: reasoning jump")
	assert.Contains(t, text, "Flagship launch.")
	assert.Contains(t, text, "GPT-5 is here (Reuters)")
	assert.Contains(t, text, "theverge.com")
	assert.Contains(t, text, "3 articles across 3 outlets")
}

func TestBuildDossierBoundsRelated(t *testing.T) {
	c := clusterFixture()

	dossier := BuildDossier(&c, 1)
	assert.Len(t, dossier.Related, 1)
	assert.Equal(t, 3, dossier.ClusterSize, "cluster size reflects the full cluster, not the bound")
}
