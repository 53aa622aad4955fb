// Package llm holds the optional external scoring capability. A Scorer
// re-scores a cluster as one synthetic event; when no scorer is supplied the
// ranker falls back to the canonical article's own gravity score.
package llm

import "context"

// DefaultGravityScore is used when neither a scorer result nor a canonical
// article score is available.
const DefaultGravityScore = 5.0

// ScoreResult carries a 0-10 importance score plus free-form detail lines
// from the scoring model.
type ScoreResult struct {
	GravityScore   float64           `json:"gravity_score"`
	GravityDetails map[string]string `json:"gravity_details,omitempty"`
}

// Scorer scores one synthesized event text. Metadata carries cluster stats
// for the scoring prompt. Implementations must respect ctx deadlines; any
// failure is treated by callers as a ScoringFailure and degrades to the
// canonical article's score.
type Scorer interface {
	Score(ctx context.Context, text string, metadata map[string]string) (ScoreResult, error)
}
