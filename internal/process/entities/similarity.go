package entities

import (
	"strings"

	"github.com/DragonSun329/briefai/internal/core/domain"
)

// Similarity is the Jaccard index over the union of all five categories'
// normalized entities, compared case-insensitively. Defined as 0 when either
// set is empty.
func Similarity(a, b *domain.EntitySet) float64 {
	setA := lowerSet(a.All())
	setB := lowerSet(b.All())

	return Jaccard(setA, setB)
}

// Jaccard computes |A∩B| / |A∪B| over two string sets, 0 when either is
// empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0

	for key := range a {
		if _, ok := b[key]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection

	return float64(intersection) / float64(union)
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}

	return set
}
