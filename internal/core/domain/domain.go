// Package domain holds the typed records flowing through the dual-feed
// pipeline. It is intentionally dependency-free: every other package imports
// it, it imports only the standard library.
package domain

import (
	"strings"
	"time"
)

// Role marks a candidate as the primary article of a story or as secondary
// coverage contributed by another outlet.
type Role string

const (
	RoleCanonical Role = "canonical"
	RoleRelated   Role = "related"
)

// Mode selects the clustering/ranking regime for one feed section.
type Mode string

const (
	// ModeEvent groups tight coverage of the same concrete news event.
	ModeEvent Mode = "event"
	// ModeTheme groups looser coverage of the same broader topic.
	ModeTheme Mode = "theme"
)

// Story is one raw input signal: a canonical article plus loosely linked
// related coverage collected by the (external) scraping layer.
type Story struct {
	Title        string        `json:"title"`
	URL          string        `json:"url"`
	Source       string        `json:"source"`
	SourceName   string        `json:"source_name"`
	SignalType   string        `json:"signal_type"`
	PublishedAt  string        `json:"published_at"`
	ScrapedAt    time.Time     `json:"scraped_at"`
	AIRelevance  float64       `json:"ai_relevance"`
	GravityScore float64       `json:"gravity_score"`
	Summary      string        `json:"summary"`
	KeyInsight   string        `json:"key_insight"`
	Content      string        `json:"content"`
	Related      []RelatedLink `json:"related"`
}

// RelatedLink is one piece of related coverage attached to a story.
type RelatedLink struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Candidate is one flattened article signal produced by candidate expansion.
// StoryID is a stable 12-hex identifier derived from the normalized URL (or
// the title when no URL is present), so the same article always maps to the
// same ID across runs.
type Candidate struct {
	StoryID          string     `json:"story_id"`
	Role             Role       `json:"role"`
	Title            string     `json:"title"`
	URL              string     `json:"url,omitempty"`
	Source           string     `json:"source,omitempty"`
	SourceName       string     `json:"source_name,omitempty"`
	SignalType       string     `json:"signal_type,omitempty"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	ScrapedAt        time.Time  `json:"scraped_at"`
	AIRelevance      float64    `json:"ai_relevance"`
	ParentStoryTitle string     `json:"parent_story_title,omitempty"`
	GravityScore     float64    `json:"gravity_score,omitempty"`
	Summary          string     `json:"summary,omitempty"`
	KeyInsight       string     `json:"key_insight,omitempty"`
	Content          string     `json:"content,omitempty"`
	Entities         *EntitySet `json:"entities,omitempty"`

	// Merge bookkeeping, populated by the duplicate detector.
	MergedWith []string `json:"merged_with,omitempty"`
	MergedFrom []string `json:"merged_from,omitempty"`
	Sources    []string `json:"sources,omitempty"`
}

// Domain returns the lowercased host of the candidate's URL without a
// leading "www.", or the lowercased source when the URL has no host.
func (c *Candidate) Domain() string {
	u := c.URL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.IndexAny(u, "/?#"); i >= 0 {
		u = u[:i]
	}

	u = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(u)), "www.")
	if u == "" {
		return strings.ToLower(strings.TrimSpace(c.Source))
	}

	return u
}

// DuplicatePair records one flagged pair of candidates. IDA < IDB always
// holds so symmetric pairs collapse to a single record.
type DuplicatePair struct {
	IDA        string  `json:"id_a"`
	IDB        string  `json:"id_b"`
	Similarity float64 `json:"similarity"`
	Strategy   string  `json:"strategy"`
}

// NewDuplicatePair builds a pair in canonical order.
func NewDuplicatePair(a, b string, similarity float64, strategy string) DuplicatePair {
	if b < a {
		a, b = b, a
	}

	return DuplicatePair{IDA: a, IDB: b, Similarity: similarity, Strategy: strategy}
}

// StoryCluster is one group of candidates covering the same event or theme,
// produced by a cluster provider. Immutable after creation; the ranker only
// reads it.
type StoryCluster struct {
	ClusterID         string      `json:"cluster_id"`
	Canonical         Candidate   `json:"canonical"`
	Related           []Candidate `json:"related"`
	ClusterSize       int         `json:"cluster_size"`
	ClusterConfidence float64     `json:"cluster_confidence"`
	AvgPairSimilarity float64     `json:"avg_pair_similarity"`
	MaxPairSimilarity float64     `json:"max_pair_similarity"`
	UniqueDomainCount int         `json:"unique_domain_count"`
	DomainEntropy     float64     `json:"domain_entropy"`
	TimeSpanHours     *float64    `json:"time_span_hours,omitempty"`
	SharedEntities    []string    `json:"shared_entities,omitempty"`
	MergeEvidence     []string    `json:"merge_evidence,omitempty"`
}

// ItemType distinguishes clustered feed items from ungrouped ones.
type ItemType string

const (
	ItemTypeCluster   ItemType = "cluster"
	ItemTypeSingleton ItemType = "singleton"
)

// Dossier is the flattened view of a cluster used for scoring and rendering:
// canonical plus a bounded slice of related coverage plus the cluster stats.
type Dossier struct {
	ClusterID         string      `json:"cluster_id"`
	Canonical         Candidate   `json:"canonical"`
	Related           []Candidate `json:"related"`
	ClusterSize       int         `json:"cluster_size"`
	ClusterConfidence float64     `json:"cluster_confidence"`
	AvgPairSimilarity float64     `json:"avg_pair_similarity"`
	MaxPairSimilarity float64     `json:"max_pair_similarity"`
	UniqueDomainCount int         `json:"unique_domain_count"`
	DomainEntropy     float64     `json:"domain_entropy"`
	TimeSpanHours     *float64    `json:"time_span_hours,omitempty"`
	SharedEntities    []string    `json:"shared_entities,omitempty"`
	MergeEvidence     []string    `json:"merge_evidence,omitempty"`
}

// RankedFeedItem is one entry of a feed section. Exactly one of Cluster or
// Article is set, matching ItemType. Bonuses are zero for singletons.
type RankedFeedItem struct {
	ItemType        ItemType   `json:"item_type"`
	RankScore       float64    `json:"rank_score"`
	GravityScore    float64    `json:"gravity_score"`
	CoverageBonus   float64    `json:"coverage_bonus"`
	EntropyBonus    float64    `json:"entropy_bonus"`
	ConfidenceBonus float64    `json:"confidence_bonus"`
	Cluster         *Dossier   `json:"cluster,omitempty"`
	Article         *Candidate `json:"article,omitempty"`
}

// FeedVersion identifies the output document format.
const FeedVersion = "2.2"

// SectionSummary reports the composition of one feed section.
type SectionSummary struct {
	Clusters   int `json:"clusters"`
	Singletons int `json:"singletons"`
	TopKItems  int `json:"top_k_items"`
}

// FeedSummary reports candidate and section counts for an emitted document.
type FeedSummary struct {
	CandidateArticles int            `json:"candidate_articles"`
	Events            SectionSummary `json:"events"`
	Themes            SectionSummary `json:"themes"`
}

// FeedSection is one ranked, truncated item list.
type FeedSection struct {
	Items []RankedFeedItem `json:"items"`
}

// DualFeed is the top-level output document: the same candidate pool ranked
// twice, once per mode.
type DualFeed struct {
	Version     string      `json:"version"`
	Date        string      `json:"date"`
	GeneratedAt time.Time   `json:"generated_at"`
	Summary     FeedSummary `json:"summary"`
	TopEvents   FeedSection `json:"top_events"`
	TopThemes   FeedSection `json:"top_themes"`
}
