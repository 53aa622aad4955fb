package dedup

import (
	"github.com/DragonSun329/briefai/internal/core/domain"
)

// DefaultMinScoreToPreserve is the gravity score above which smart_merge is
// preferred over outright replacement.
const DefaultMinScoreToPreserve = 7.0

const (
	logKeyRemoved = "removed"
	logKeyKept    = "kept"
)

// Options configures one deduplication pass.
type Options struct {
	Strategy string

	// PreserveHighScorers switches to smart_merge when either member of a
	// pair scores at least MinScoreToPreserve.
	PreserveHighScorers bool
	MinScoreToPreserve  float64
}

// Deduplicate collapses flagged duplicate pairs out of candidates and
// returns the survivors plus the number of removed records. Pairs whose
// members were already removed by an earlier pair are skipped. The output
// always satisfies len(out) + removed == len(in).
func (d *Detector) Deduplicate(candidates []domain.Candidate, opts Options) ([]domain.Candidate, int, error) {
	pairs, err := d.FindDuplicates(candidates, opts.Strategy)
	if err != nil {
		return nil, 0, err
	}

	minScore := opts.MinScoreToPreserve
	if minScore <= 0 {
		minScore = DefaultMinScoreToPreserve
	}

	byID := make(map[string]domain.Candidate, len(candidates))
	order := make([]string, 0, len(candidates))

	for _, c := range candidates {
		if _, ok := byID[c.StoryID]; !ok {
			order = append(order, c.StoryID)
		}

		byID[c.StoryID] = c
	}

	removed := make(map[string]struct{})

	for _, pair := range pairs {
		if _, gone := removed[pair.IDA]; gone {
			continue
		}

		if _, gone := removed[pair.IDB]; gone {
			continue
		}

		a, b := byID[pair.IDA], byID[pair.IDB]

		policy := PolicyPreferHigherScore
		if opts.PreserveHighScorers && maxScore(a, b) >= minScore {
			policy = PolicySmartMerge
		}

		winner := Merge(a, b, policy)

		loserID := pair.IDA
		if winner.StoryID == pair.IDA {
			loserID = pair.IDB
		}

		removed[loserID] = struct{}{}
		byID[winner.StoryID] = winner
	}

	kept := make([]domain.Candidate, 0, len(order)-len(removed))

	for _, id := range order {
		if _, gone := removed[id]; gone {
			continue
		}

		kept = append(kept, byID[id])
	}

	removedCount := len(candidates) - len(kept)

	d.logger.Info().
		Int(logKeyKept, len(kept)).
		Int(logKeyRemoved, removedCount).
		Msg("deduplication pass finished")

	return kept, removedCount, nil
}

func maxScore(a, b domain.Candidate) float64 {
	if b.GravityScore > a.GravityScore {
		return b.GravityScore
	}

	return a.GravityScore
}
