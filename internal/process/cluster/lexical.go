package cluster

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DragonSun329/briefai/internal/core/domain"
	"github.com/DragonSun329/briefai/internal/process/dedup"
	"github.com/DragonSun329/briefai/internal/process/entities"
)

const (
	// Pair similarity blends the title and entity signals; entities carry
	// more weight because outlets rephrase headlines but report the same
	// actors.
	titleWeight  = 0.4
	entityWeight = 0.6

	minClusterSize      = 2
	maxSharedEntities   = 10
	maxMergeEvidence    = 6
	fallbackMinWordLen  = 2
	hoursPerDay         = 24
	confidenceSimWeight = 0.6
	confidenceCovWeight = 0.4
	fullCoverageDomains = 4
)

const (
	logKeyMode      = "mode"
	logKeyThreshold = "threshold"
	logKeyClusters  = "clusters"
)

// LexicalProvider clusters candidates by connected components over a
// pairwise title/entity similarity graph. EVENT mode uses a fixed tight
// threshold and no temporal constraint; THEME mode computes an adaptive
// threshold from the batch's similarity distribution and enforces a
// temporal-locality window edge-wise.
type LexicalProvider struct {
	cfg    Config
	logger *zerolog.Logger
}

// NewLexical creates a LexicalProvider.
func NewLexical(cfg Config, logger *zerolog.Logger) *LexicalProvider {
	return &LexicalProvider{cfg: cfg.withDefaults(), logger: logger}
}

type scoredPair struct {
	i, j int
	sim  float64
}

// ClusterStories implements Provider.
func (p *LexicalProvider) ClusterStories(ctx context.Context, candidates []domain.Candidate, mode domain.Mode) ([]domain.StoryCluster, []domain.Candidate, Debug, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, Debug{}, fmt.Errorf("clustering aborted: %w", err)
	}

	pairs := p.scorePairs(candidates)
	threshold := p.threshold(mode, pairs)

	var edges []scoredPair

	for _, pair := range pairs {
		if pair.sim < threshold {
			continue
		}

		if mode == domain.ModeTheme && !p.withinWindow(&candidates[pair.i], &candidates[pair.j]) {
			continue
		}

		edges = append(edges, pair)
	}

	components, edgesByRoot := connectedComponents(len(candidates), edges)

	var clusters []domain.StoryCluster

	var singletons []domain.Candidate

	for root, members := range components {
		if len(members) < minClusterSize {
			singletons = append(singletons, candidates[members[0]])
			continue
		}

		clusters = append(clusters, p.buildCluster(candidates, members, edgesByRoot[root]))
	}

	// Map iteration order is random; keep output deterministic.
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Canonical.StoryID < clusters[j].Canonical.StoryID
	})
	sort.Slice(singletons, func(i, j int) bool {
		return singletons[i].StoryID < singletons[j].StoryID
	})

	debug := Debug{Threshold: threshold, EdgeCount: len(edges), PairsScored: len(pairs)}

	p.logger.Debug().
		Str(logKeyMode, string(mode)).
		Float64(logKeyThreshold, threshold).
		Int(logKeyClusters, len(clusters)).
		Int("singletons", len(singletons)).
		Msg("clustering finished")

	return clusters, singletons, debug, nil
}

func (p *LexicalProvider) scorePairs(candidates []domain.Candidate) []scoredPair {
	var pairs []scoredPair

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			sim := pairSimilarity(&candidates[i], &candidates[j])
			if sim > 0 {
				pairs = append(pairs, scoredPair{i: i, j: j, sim: sim})
			}
		}
	}

	return pairs
}

func pairSimilarity(a, b *domain.Candidate) float64 {
	titleSim := dedup.TokenSortRatio(a.Title, b.Title)
	entitySim := entities.Jaccard(candidateEntityBag(a), candidateEntityBag(b))

	return titleWeight*titleSim + entityWeight*entitySim
}

func candidateEntityBag(c *domain.Candidate) map[string]struct{} {
	bag := make(map[string]struct{})

	if c.Entities != nil && !c.Entities.IsEmpty() {
		for _, entity := range c.Entities.All() {
			bag[strings.ToLower(entity)] = struct{}{}
		}

		return bag
	}

	for _, word := range strings.Fields(strings.ToLower(c.Title)) {
		word = strings.Trim(word, ".,:;!?\"'()[]")
		if len([]rune(word)) > fallbackMinWordLen {
			bag[word] = struct{}{}
		}
	}

	return bag
}

// threshold returns the fixed EVENT threshold or the THEME adaptive one:
// median positive pairwise similarity minus the margin, clamped.
func (p *LexicalProvider) threshold(mode domain.Mode, pairs []scoredPair) float64 {
	if mode == domain.ModeEvent {
		return p.cfg.EventThreshold
	}

	if len(pairs) == 0 {
		return p.cfg.ThemeMaxThreshold
	}

	sims := make([]float64, len(pairs))
	for i, pair := range pairs {
		sims[i] = pair.sim
	}

	sort.Float64s(sims)

	median := sims[len(sims)/2]

	threshold := median - p.cfg.ThemeMargin
	if threshold < p.cfg.ThemeMinThreshold {
		threshold = p.cfg.ThemeMinThreshold
	}

	if threshold > p.cfg.ThemeMaxThreshold {
		threshold = p.cfg.ThemeMaxThreshold
	}

	return threshold
}

// withinWindow enforces THEME temporal locality for one edge. Edges touching
// a candidate with no usable timestamp are allowed, since the constraint
// cannot be evaluated.
func (p *LexicalProvider) withinWindow(a, b *domain.Candidate) bool {
	ta, okA := candidateTime(a)
	tb, okB := candidateTime(b)

	if !okA || !okB {
		return true
	}

	gap := ta.Sub(tb)
	if gap < 0 {
		gap = -gap
	}

	return gap <= time.Duration(p.cfg.ThemeWindowDays)*hoursPerDay*time.Hour
}

func candidateTime(c *domain.Candidate) (time.Time, bool) {
	if c.PublishedAt != nil && !c.PublishedAt.IsZero() {
		return *c.PublishedAt, true
	}

	if !c.ScrapedAt.IsZero() {
		return c.ScrapedAt, true
	}

	return time.Time{}, false
}

// connectedComponents unions candidates joined by edges and returns the
// member indices per component root plus the intra-component edges.
func connectedComponents(n int, edges []scoredPair) (map[int][]int, map[int][]scoredPair) {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}

		return x
	}

	for _, e := range edges {
		ri, rj := find(e.i), find(e.j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	components := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := find(i)
		components[root] = append(components[root], i)
	}

	edgesByRoot := make(map[int][]scoredPair)
	for _, e := range edges {
		root := find(e.i)
		edgesByRoot[root] = append(edgesByRoot[root], e)
	}

	return components, edgesByRoot
}

func (p *LexicalProvider) buildCluster(candidates []domain.Candidate, members []int, edges []scoredPair) domain.StoryCluster {
	group := make([]domain.Candidate, len(members))
	for i, idx := range members {
		group[i] = candidates[idx]
	}

	canonicalIdx := pickCanonical(group)
	canonical := group[canonicalIdx]

	related := make([]domain.Candidate, 0, len(group)-1)
	for i, member := range group {
		if i != canonicalIdx {
			related = append(related, member)
		}
	}

	sort.Slice(related, func(i, j int) bool {
		if related[i].GravityScore != related[j].GravityScore {
			return related[i].GravityScore > related[j].GravityScore
		}

		return related[i].StoryID < related[j].StoryID
	})

	avgSim, maxSim := pairStats(edges)
	domains, entropy := domainStats(group)

	return domain.StoryCluster{
		ClusterID:         uuid.NewString(),
		Canonical:         canonical,
		Related:           related,
		ClusterSize:       len(group),
		ClusterConfidence: confidence(avgSim, domains),
		AvgPairSimilarity: avgSim,
		MaxPairSimilarity: maxSim,
		UniqueDomainCount: domains,
		DomainEntropy:     entropy,
		TimeSpanHours:     timeSpanHours(group),
		SharedEntities:    sharedEntities(group),
		MergeEvidence:     mergeEvidence(candidates, edges),
	}
}

// pickCanonical prefers a canonical-role member, then gravity, then
// relevance, then story ID for determinism.
func pickCanonical(group []domain.Candidate) int {
	best := 0

	for i := 1; i < len(group); i++ {
		if canonicalLess(&group[i], &group[best]) {
			best = i
		}
	}

	return best
}

func canonicalLess(a, b *domain.Candidate) bool {
	aCanonical := a.Role == domain.RoleCanonical
	bCanonical := b.Role == domain.RoleCanonical

	if aCanonical != bCanonical {
		return aCanonical
	}

	if a.GravityScore != b.GravityScore {
		return a.GravityScore > b.GravityScore
	}

	if a.AIRelevance != b.AIRelevance {
		return a.AIRelevance > b.AIRelevance
	}

	return a.StoryID < b.StoryID
}

func pairStats(edges []scoredPair) (avg, maxSim float64) {
	if len(edges) == 0 {
		return 0, 0
	}

	total := 0.0

	for _, e := range edges {
		total += e.sim
		if e.sim > maxSim {
			maxSim = e.sim
		}
	}

	return total / float64(len(edges)), maxSim
}

func domainStats(group []domain.Candidate) (int, float64) {
	counts := make(map[string]int)

	for i := range group {
		name := group[i].Domain()
		if name == "" {
			name = "unknown"
		}

		counts[name]++
	}

	entropy := 0.0
	total := float64(len(group))

	for _, count := range counts {
		p := float64(count) / total
		entropy -= p * math.Log(p)
	}

	return len(counts), entropy
}

// confidence blends intra-cluster similarity with outlet coverage, saturating
// once fullCoverageDomains distinct domains corroborate the story.
func confidence(avgSim float64, domains int) float64 {
	coverage := float64(domains) / fullCoverageDomains
	if coverage > 1 {
		coverage = 1
	}

	conf := confidenceSimWeight*avgSim + confidenceCovWeight*coverage
	if conf > 1 {
		conf = 1
	}

	return conf
}

func timeSpanHours(group []domain.Candidate) *float64 {
	var earliest, latest time.Time

	seen := 0

	for i := range group {
		ts, ok := candidateTime(&group[i])
		if !ok {
			continue
		}

		if seen == 0 || ts.Before(earliest) {
			earliest = ts
		}

		if seen == 0 || ts.After(latest) {
			latest = ts
		}

		seen++
	}

	if seen < 2 {
		return nil
	}

	span := latest.Sub(earliest).Hours()

	return &span
}

// sharedEntities returns entities appearing in at least two members, ordered
// by how many members mention them.
func sharedEntities(group []domain.Candidate) []string {
	counts := make(map[string]int)
	display := make(map[string]string)

	for i := range group {
		if group[i].Entities == nil {
			continue
		}

		for _, entity := range group[i].Entities.All() {
			key := strings.ToLower(entity)
			counts[key]++

			if _, ok := display[key]; !ok {
				display[key] = entity
			}
		}
	}

	type entityCount struct {
		key   string
		count int
	}

	var shared []entityCount

	for key, count := range counts {
		if count >= 2 {
			shared = append(shared, entityCount{key: key, count: count})
		}
	}

	sort.Slice(shared, func(i, j int) bool {
		if shared[i].count != shared[j].count {
			return shared[i].count > shared[j].count
		}

		return shared[i].key < shared[j].key
	})

	if len(shared) > maxSharedEntities {
		shared = shared[:maxSharedEntities]
	}

	out := make([]string, len(shared))
	for i, e := range shared {
		out[i] = display[e.key]
	}

	return out
}

func mergeEvidence(candidates []domain.Candidate, edges []scoredPair) []string {
	sorted := make([]scoredPair, len(edges))
	copy(sorted, edges)

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].sim > sorted[j].sim })

	if len(sorted) > maxMergeEvidence {
		sorted = sorted[:maxMergeEvidence]
	}

	evidence := make([]string, len(sorted))
	for i, e := range sorted {
		evidence[i] = fmt.Sprintf("similarity %.2f between %s and %s",
			e.sim, candidates[e.i].StoryID, candidates[e.j].StoryID)
	}

	return evidence
}

var _ Provider = (*LexicalProvider)(nil)
