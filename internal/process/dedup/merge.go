package dedup

import (
	"github.com/DragonSun329/briefai/internal/core/domain"
)

// MergePolicy decides how a flagged duplicate pair collapses into one record.
type MergePolicy string

const (
	// PolicySmartMerge keeps the higher-scoring article's full record, lifts
	// its score to the pair maximum, and records the association.
	PolicySmartMerge MergePolicy = "smart_merge"

	// PolicyPreferHigherScore keeps the higher-scoring record outright.
	PolicyPreferHigherScore MergePolicy = "prefer_higher_score"

	// PolicyPreferRecent keeps the more recently created record.
	PolicyPreferRecent MergePolicy = "prefer_recent"

	// PolicyCombine averages the two scores onto the first record and
	// records both origins in merged_from.
	PolicyCombine MergePolicy = "combine"
)

// Merge collapses a and b into a single candidate according to policy. The
// result never represents more than the two inputs, so a merge can only ever
// shrink a candidate list.
func Merge(a, b domain.Candidate, policy MergePolicy) domain.Candidate {
	switch policy {
	case PolicySmartMerge:
		return smartMerge(a, b)
	case PolicyPreferRecent:
		return preferRecent(a, b)
	case PolicyCombine:
		return combine(a, b)
	case PolicyPreferHigherScore:
		fallthrough
	default:
		return preferHigherScore(a, b)
	}
}

func smartMerge(a, b domain.Candidate) domain.Candidate {
	winner, loser := orderByScore(a, b)

	if loser.GravityScore > winner.GravityScore {
		winner.GravityScore = loser.GravityScore
	}

	winner.MergedWith = append(winner.MergedWith, loser.StoryID)
	winner.Sources = combineSources(winner, loser)

	return winner
}

func preferHigherScore(a, b domain.Candidate) domain.Candidate {
	winner, loser := orderByScore(a, b)
	winner.MergedWith = append(winner.MergedWith, loser.StoryID)

	return winner
}

func preferRecent(a, b domain.Candidate) domain.Candidate {
	winner, loser := a, b
	if b.ScrapedAt.After(a.ScrapedAt) {
		winner, loser = b, a
	}

	winner.MergedWith = append(winner.MergedWith, loser.StoryID)

	return winner
}

func combine(a, b domain.Candidate) domain.Candidate {
	merged := a
	merged.GravityScore = (a.GravityScore + b.GravityScore) / 2
	merged.MergedFrom = append(merged.MergedFrom, a.StoryID, b.StoryID)
	merged.Sources = combineSources(a, b)

	return merged
}

// orderByScore returns (winner, loser) by gravity score; ties keep the first
// argument so resolution stays deterministic.
func orderByScore(a, b domain.Candidate) (domain.Candidate, domain.Candidate) {
	if b.GravityScore > a.GravityScore {
		return b, a
	}

	return a, b
}

func combineSources(a, b domain.Candidate) []string {
	seen := make(map[string]struct{})

	var sources []string

	add := func(source string) {
		if source == "" {
			return
		}

		if _, ok := seen[source]; ok {
			return
		}

		seen[source] = struct{}{}

		sources = append(sources, source)
	}

	for _, source := range a.Sources {
		add(source)
	}

	add(a.Source)

	for _, source := range b.Sources {
		add(source)
	}

	add(b.Source)

	return sources
}
