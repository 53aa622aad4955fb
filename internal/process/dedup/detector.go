// Package dedup flags and collapses duplicate or near-duplicate coverage of
// the same article across outlets. Three independent pairwise signals
// (title, content, entities) can be combined with OR or AND semantics;
// flagged pairs are then resolved by a merge policy.
package dedup

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/DragonSun329/briefai/internal/core/domain"
	"github.com/DragonSun329/briefai/internal/process/entities"
)

// Detection strategies.
const (
	StrategyTitle          = "title"
	StrategyContent        = "content"
	StrategyEntities       = "entities"
	StrategyCombined       = "combined"
	StrategyCombinedStrict = "combined_strict"

	// DefaultStrategy is OR over all three signals.
	DefaultStrategy = StrategyCombined
)

// Default pairwise thresholds.
const (
	DefaultTitleThreshold   = 0.88
	DefaultContentThreshold = 0.80
	DefaultEntityThreshold  = 0.75

	contentPrefixChars = 500
	titleBagMinWordLen = 2
)

const (
	logKeyStrategy = "strategy"
	logKeyPairs    = "pairs"
)

// Config tunes the pairwise thresholds. Zero values fall back to defaults.
type Config struct {
	TitleThreshold   float64
	ContentThreshold float64
	EntityThreshold  float64
}

// Detector finds duplicate pairs across a candidate list.
type Detector struct {
	cfg    Config
	logger *zerolog.Logger
}

// NewDetector creates a Detector, applying default thresholds for any zero
// config value.
func NewDetector(cfg Config, logger *zerolog.Logger) *Detector {
	if cfg.TitleThreshold <= 0 {
		cfg.TitleThreshold = DefaultTitleThreshold
	}

	if cfg.ContentThreshold <= 0 {
		cfg.ContentThreshold = DefaultContentThreshold
	}

	if cfg.EntityThreshold <= 0 {
		cfg.EntityThreshold = DefaultEntityThreshold
	}

	return &Detector{cfg: cfg, logger: logger}
}

// FindDuplicates computes the requested signal(s) over all unordered
// candidate pairs. Combined takes the union of pairs flagged by any signal;
// combined_strict the intersection of pairs flagged by all three.
func (d *Detector) FindDuplicates(candidates []domain.Candidate, strategy string) ([]domain.DuplicatePair, error) {
	if strategy == "" {
		strategy = DefaultStrategy
	}

	switch strategy {
	case StrategyTitle, StrategyContent, StrategyEntities, StrategyCombined, StrategyCombinedStrict:
	default:
		return nil, fmt.Errorf("unknown dedup strategy %q", strategy)
	}

	var pairs []domain.DuplicatePair

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := &candidates[i], &candidates[j]
			if a.StoryID == b.StoryID {
				continue
			}

			if pair, ok := d.comparePair(a, b, strategy); ok {
				pairs = append(pairs, pair)
			}
		}
	}

	d.logger.Debug().
		Str(logKeyStrategy, strategy).
		Int(logKeyPairs, len(pairs)).
		Msg("duplicate detection finished")

	return pairs, nil
}

func (d *Detector) comparePair(a, b *domain.Candidate, strategy string) (domain.DuplicatePair, bool) {
	switch strategy {
	case StrategyTitle:
		if sim := d.titleSimilarity(a, b); sim >= d.cfg.TitleThreshold {
			return domain.NewDuplicatePair(a.StoryID, b.StoryID, sim, strategy), true
		}
	case StrategyContent:
		if sim, ok := d.contentSimilarity(a, b); ok && sim >= d.cfg.ContentThreshold {
			return domain.NewDuplicatePair(a.StoryID, b.StoryID, sim, strategy), true
		}
	case StrategyEntities:
		if sim := d.entitySimilarity(a, b); sim >= d.cfg.EntityThreshold {
			return domain.NewDuplicatePair(a.StoryID, b.StoryID, sim, strategy), true
		}
	case StrategyCombined:
		return d.compareCombined(a, b)
	case StrategyCombinedStrict:
		return d.compareStrict(a, b)
	}

	return domain.DuplicatePair{}, false
}

// compareCombined flags the pair when any signal fires, recording the
// strongest firing similarity.
func (d *Detector) compareCombined(a, b *domain.Candidate) (domain.DuplicatePair, bool) {
	best := -1.0

	if sim := d.titleSimilarity(a, b); sim >= d.cfg.TitleThreshold && sim > best {
		best = sim
	}

	if sim, ok := d.contentSimilarity(a, b); ok && sim >= d.cfg.ContentThreshold && sim > best {
		best = sim
	}

	if sim := d.entitySimilarity(a, b); sim >= d.cfg.EntityThreshold && sim > best {
		best = sim
	}

	if best < 0 {
		return domain.DuplicatePair{}, false
	}

	return domain.NewDuplicatePair(a.StoryID, b.StoryID, best, StrategyCombined), true
}

// compareStrict flags the pair only when all three signals fire
// simultaneously, recording the weakest similarity (the binding one).
func (d *Detector) compareStrict(a, b *domain.Candidate) (domain.DuplicatePair, bool) {
	titleSim := d.titleSimilarity(a, b)
	if titleSim < d.cfg.TitleThreshold {
		return domain.DuplicatePair{}, false
	}

	contentSim, ok := d.contentSimilarity(a, b)
	if !ok || contentSim < d.cfg.ContentThreshold {
		return domain.DuplicatePair{}, false
	}

	entitySim := d.entitySimilarity(a, b)
	if entitySim < d.cfg.EntityThreshold {
		return domain.DuplicatePair{}, false
	}

	weakest := titleSim
	if contentSim < weakest {
		weakest = contentSim
	}

	if entitySim < weakest {
		weakest = entitySim
	}

	return domain.NewDuplicatePair(a.StoryID, b.StoryID, weakest, StrategyCombinedStrict), true
}

func (d *Detector) titleSimilarity(a, b *domain.Candidate) float64 {
	if a.Title == "" || b.Title == "" {
		return 0
	}

	return TokenSortRatio(a.Title, b.Title)
}

// contentSimilarity compares the first contentPrefixChars of body text,
// lowercased. The second return is false when either side has no content.
func (d *Detector) contentSimilarity(a, b *domain.Candidate) (float64, bool) {
	ca := contentPrefix(a.Content)
	cb := contentPrefix(b.Content)

	if ca == "" || cb == "" {
		return 0, false
	}

	return TokenSortRatio(ca, cb), true
}

func contentPrefix(content string) string {
	content = strings.ToLower(strings.TrimSpace(content))

	runes := []rune(content)
	if len(runes) > contentPrefixChars {
		return string(runes[:contentPrefixChars])
	}

	return content
}

// entitySimilarity is the Jaccard overlap of the two candidates' normalized
// entity sets; candidates without structured entities fall back to a bag of
// title words longer than two characters.
func (d *Detector) entitySimilarity(a, b *domain.Candidate) float64 {
	setA := entityBag(a)
	setB := entityBag(b)

	return entities.Jaccard(setA, setB)
}

func entityBag(c *domain.Candidate) map[string]struct{} {
	if c.Entities != nil && !c.Entities.IsEmpty() {
		bag := make(map[string]struct{})
		for _, entity := range c.Entities.All() {
			bag[strings.ToLower(entity)] = struct{}{}
		}

		return bag
	}

	return titleBag(c.Title, titleBagMinWordLen)
}
