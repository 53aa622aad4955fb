// Package entities extracts typed entities from article text and computes
// entity-set similarity. Extraction is two-stage: a fast local gazetteer
// tagger always runs; a remote extractor is consulted only when the local
// confidence proxy falls below a gate, and its results can only add to the
// local ones.
package entities

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/DragonSun329/briefai/internal/core/domain"
)

// DefaultConfidenceGate is the local-confidence threshold below which the
// remote extractor is consulted.
const DefaultConfidenceGate = 0.7

const logKeyConfidence = "confidence"

// Extractor is the entity-extraction capability. Implementations must treat
// ctx cancellation as a normal failure.
type Extractor interface {
	Extract(ctx context.Context, text string) (*domain.EntitySet, error)
}

// Staged chains the local tagger with an optional remote fallback. It never
// returns an error: remote failures degrade to the local-only result.
type Staged struct {
	local  *LocalTagger
	remote Extractor
	gate   float64
	logger *zerolog.Logger
}

// NewStaged creates a two-stage extractor. remote may be nil, in which case
// extraction is local-only.
func NewStaged(local *LocalTagger, remote Extractor, gate float64, logger *zerolog.Logger) *Staged {
	if gate <= 0 {
		gate = DefaultConfidenceGate
	}

	return &Staged{local: local, remote: remote, gate: gate, logger: logger}
}

// Extract runs the local tagger and, when its confidence proxy is below the
// gate, merges in remote results. The merge unions per category,
// deduplicates case-insensitively, and caps each category; it never removes
// a locally found entity. Any remote failure leaves the local result intact.
func (s *Staged) Extract(ctx context.Context, text string) (*domain.EntitySet, error) {
	set, _ := s.local.Extract(ctx, text)

	confidence := s.local.Confidence(set)
	if confidence >= s.gate || s.remote == nil {
		return set, nil
	}

	remoteSet, err := s.remote.Extract(ctx, text)
	if err != nil {
		s.logger.Warn().Err(err).
			Float64(logKeyConfidence, confidence).
			Msg("remote entity extraction failed, using local result")

		return set, nil
	}

	set.Merge(remoteSet)

	return set, nil
}

var _ Extractor = (*Staged)(nil)
var _ Extractor = (*LocalTagger)(nil)
