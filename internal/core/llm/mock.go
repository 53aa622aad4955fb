package llm

import "context"

const mockGravityScore = 7.5

// mockScorer implements Scorer for testing and the -skip-scoring mode.
type mockScorer struct {
	score float64
	err   error
}

// NewMockScorer returns a Scorer that always answers with a fixed score.
func NewMockScorer() Scorer {
	return &mockScorer{score: mockGravityScore}
}

// NewFailingScorer returns a Scorer that always fails, for exercising the
// ScoringFailure degradation path.
func NewFailingScorer(err error) Scorer {
	return &mockScorer{err: err}
}

func (m *mockScorer) Score(_ context.Context, _ string, _ map[string]string) (ScoreResult, error) {
	if m.err != nil {
		return ScoreResult{}, m.err
	}

	return ScoreResult{
		GravityScore:   m.score,
		GravityDetails: map[string]string{"mock": "fixed score"},
	}, nil
}

var _ Scorer = (*mockScorer)(nil)
