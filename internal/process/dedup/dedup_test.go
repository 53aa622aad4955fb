package dedup

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DragonSun329/briefai/internal/core/domain"
)

func testDetector() *Detector {
	logger := zerolog.Nop()
	return NewDetector(Config{}, &logger)
}

func entitySet(companies, models []string) *domain.EntitySet {
	return &domain.EntitySet{Companies: companies, Models: models}
}

func TestTokenSortRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "openai releases gpt-5", "openai releases gpt-5", 1, 1},
		{"reordered tokens", "gpt-5 releases openai", "openai releases gpt-5", 1, 1},
		{"disjoint", "alpha beta", "gamma delta", 0, 0.5},
		{"both empty", "", "", 1, 1},
		{"one empty", "words", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenSortRatio(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("TokenSortRatio(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestFindDuplicatesEntitySignalCatchesRewrites(t *testing.T) {
	// Titles rephrased beyond the title threshold, but the shared entity set
	// still flags the pair under combined.
	candidates := []domain.Candidate{
		{
			StoryID:  "aaa",
			Title:    "OpenAI releases GPT-5 with major reasoning gains",
			Entities: entitySet([]string{"OpenAI"}, []string{"gpt-5"}),
		},
		{
			StoryID:  "bbb",
			Title:    "GPT-5 is here: OpenAI's new flagship model",
			Entities: entitySet([]string{"OpenAI"}, []string{"gpt-5"}),
		},
	}

	d := testDetector()

	titleOnly, err := d.FindDuplicates(candidates, StrategyTitle)
	require.NoError(t, err)
	assert.Empty(t, titleOnly, "rephrased titles should stay below the title threshold")

	combined, err := d.FindDuplicates(candidates, StrategyCombined)
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "aaa", combined[0].IDA)
	assert.Equal(t, "bbb", combined[0].IDB)
	assert.GreaterOrEqual(t, combined[0].Similarity, DefaultEntityThreshold)
}

func TestFindDuplicatesPairOrdering(t *testing.T) {
	candidates := []domain.Candidate{
		{StoryID: "zzz", Title: "Same exact headline"},
		{StoryID: "aaa", Title: "Same exact headline"},
	}

	pairs, err := testDetector().FindDuplicates(candidates, StrategyTitle)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Less(t, pairs[0].IDA, pairs[0].IDB)
}

func TestFindDuplicatesStrictRequiresAllSignals(t *testing.T) {
	// Identical titles and entities, but only one side has content, so the
	// content signal cannot fire and strict must reject the pair.
	candidates := []domain.Candidate{
		{StoryID: "aaa", Title: "Chips export rules tighten", Content: "the rules tighten today", Entities: entitySet([]string{"Nvidia"}, nil)},
		{StoryID: "bbb", Title: "Chips export rules tighten", Entities: entitySet([]string{"Nvidia"}, nil)},
	}

	strict, err := testDetector().FindDuplicates(candidates, StrategyCombinedStrict)
	require.NoError(t, err)
	assert.Empty(t, strict)

	candidates[1].Content = "the rules tighten today"

	strict, err = testDetector().FindDuplicates(candidates, StrategyCombinedStrict)
	require.NoError(t, err)
	assert.Len(t, strict, 1)
}

func TestFindDuplicatesTitleBagFallback(t *testing.T) {
	// No structured entities: the entity signal falls back to title words
	// longer than two characters.
	candidates := []domain.Candidate{
		{StoryID: "aaa", Title: "Nvidia earnings beat expectations again"},
		{StoryID: "bbb", Title: "Nvidia earnings beat expectations again today"},
	}

	pairs, err := testDetector().FindDuplicates(candidates, StrategyEntities)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
}

func TestFindDuplicatesUnknownStrategy(t *testing.T) {
	_, err := testDetector().FindDuplicates(nil, "nonsense")
	assert.Error(t, err)
}

func TestMergePolicies(t *testing.T) {
	earlier := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(6 * time.Hour)

	a := domain.Candidate{StoryID: "aaa", Source: "alpha.com", GravityScore: 8.0, ScrapedAt: earlier}
	b := domain.Candidate{StoryID: "bbb", Source: "beta.com", GravityScore: 6.5, ScrapedAt: later}

	t.Run("smart_merge keeps higher scorer and association", func(t *testing.T) {
		got := Merge(a, b, PolicySmartMerge)
		assert.Equal(t, "aaa", got.StoryID)
		assert.Equal(t, 8.0, got.GravityScore)
		assert.Equal(t, []string{"bbb"}, got.MergedWith)
		assert.ElementsMatch(t, []string{"alpha.com", "beta.com"}, got.Sources)
	})

	t.Run("smart_merge lifts score to pair max", func(t *testing.T) {
		low := a
		low.GravityScore = 5.0

		got := Merge(low, b, PolicySmartMerge)
		assert.Equal(t, "bbb", got.StoryID)
		assert.Equal(t, 6.5, got.GravityScore)
	})

	t.Run("prefer_higher_score", func(t *testing.T) {
		got := Merge(b, a, PolicyPreferHigherScore)
		assert.Equal(t, "aaa", got.StoryID)
		assert.Equal(t, []string{"bbb"}, got.MergedWith)
	})

	t.Run("prefer_recent", func(t *testing.T) {
		got := Merge(a, b, PolicyPreferRecent)
		assert.Equal(t, "bbb", got.StoryID)
	})

	t.Run("combine averages scores", func(t *testing.T) {
		got := Merge(a, b, PolicyCombine)
		assert.InDelta(t, 7.25, got.GravityScore, 1e-9)
		assert.Equal(t, []string{"aaa", "bbb"}, got.MergedFrom)
	})
}

func TestDeduplicateCountInvariant(t *testing.T) {
	candidates := []domain.Candidate{
		{StoryID: "aaa", Title: "Same exact headline", GravityScore: 8},
		{StoryID: "bbb", Title: "Same exact headline", GravityScore: 5},
		{StoryID: "ccc", Title: "Completely unrelated coverage of something else"},
		{StoryID: "ddd", Title: "Same exact headline", GravityScore: 3},
	}

	for _, strategy := range []string{StrategyTitle, StrategyContent, StrategyEntities, StrategyCombined, StrategyCombinedStrict} {
		kept, removedCount, err := testDetector().Deduplicate(candidates, Options{Strategy: strategy})
		require.NoError(t, err, strategy)
		assert.Equal(t, len(candidates), len(kept)+removedCount, strategy)
	}
}

func TestDeduplicateSmartMergePreservesHighScorers(t *testing.T) {
	candidates := []domain.Candidate{
		{StoryID: "aaa", Title: "Same exact headline", Source: "alpha.com", GravityScore: 9},
		{StoryID: "bbb", Title: "Same exact headline", Source: "beta.com", GravityScore: 4},
	}

	kept, removedCount, err := testDetector().Deduplicate(candidates, Options{
		Strategy:            StrategyTitle,
		PreserveHighScorers: true,
		MinScoreToPreserve:  7,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, removedCount)
	require.Len(t, kept, 1)

	assert.Equal(t, "aaa", kept[0].StoryID)
	assert.Equal(t, 9.0, kept[0].GravityScore)
	assert.Equal(t, []string{"bbb"}, kept[0].MergedWith)
	assert.ElementsMatch(t, []string{"alpha.com", "beta.com"}, kept[0].Sources)
}

func TestDeduplicateSkipsPairsWithRemovedMembers(t *testing.T) {
	candidates := []domain.Candidate{
		{StoryID: "aaa", Title: "Same exact headline", GravityScore: 6},
		{StoryID: "bbb", Title: "Same exact headline", GravityScore: 5},
		{StoryID: "ccc", Title: "Same exact headline", GravityScore: 4},
	}

	kept, removedCount, err := testDetector().Deduplicate(candidates, Options{Strategy: StrategyTitle})
	require.NoError(t, err)
	assert.Equal(t, 2, removedCount)
	require.Len(t, kept, 1)
	assert.Equal(t, "aaa", kept[0].StoryID)
}
