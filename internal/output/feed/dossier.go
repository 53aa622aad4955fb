package feed

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DragonSun329/briefai/internal/core/domain"
)

// maxEventTextHeadlines bounds the related headlines included in the
// synthesized per-cluster event text.
const maxEventTextHeadlines = 6

var sourceCaser = cases.Title(language.English)

// BuildDossier flattens a cluster into its scoring/rendering view, bounding
// related coverage to maxRelated entries.
func BuildDossier(c *domain.StoryCluster, maxRelated int) domain.Dossier {
	related := c.Related
	if maxRelated >= 0 && len(related) > maxRelated {
		related = related[:maxRelated]
	}

	return domain.Dossier{
		ClusterID:         c.ClusterID,
		Canonical:         c.Canonical,
		Related:           related,
		ClusterSize:       c.ClusterSize,
		ClusterConfidence: c.ClusterConfidence,
		AvgPairSimilarity: c.AvgPairSimilarity,
		MaxPairSimilarity: c.MaxPairSimilarity,
		UniqueDomainCount: c.UniqueDomainCount,
		DomainEntropy:     c.DomainEntropy,
		TimeSpanHours:     c.TimeSpanHours,
		SharedEntities:    c.SharedEntities,
		MergeEvidence:     c.MergeEvidence,
	}
}

// EventText synthesizes the cluster into one text block for an external
// scorer: canonical title, optional key insight and summary, up to six
// related headlines with source labels, then the cluster stats.
func EventText(c *domain.StoryCluster) string {
	var b strings.Builder

	b.WriteString(c.Canonical.Title)

	if insight := strings.TrimSpace(c.Canonical.KeyInsight); insight != "" {
		b.WriteString("\nKey insight: ")
		b.WriteString(insight)
	}

	if summary := strings.TrimSpace(c.Canonical.Summary); summary != "" {
		b.WriteString("\n")
		b.WriteString(summary)
	}

	headlines := c.Related
	if len(headlines) > maxEventTextHeadlines {
		headlines = headlines[:maxEventTextHeadlines]
	}

	if len(headlines) > 0 {
		b.WriteString("\n\nAlso covered by:")

		for i := range headlines {
			fmt.Fprintf(&b, "\n- %s (%s)", headlines[i].Title, sourceLabel(&headlines[i]))
		}
	}

	fmt.Fprintf(&b, "\n\n%d articles across %d outlets, entropy %.2f, confidence %.2f",
		c.ClusterSize, c.UniqueDomainCount, c.DomainEntropy, c.ClusterConfidence)

	return b.String()
}

func sourceLabel(c *domain.Candidate) string {
	if c.SourceName != "" {
		return sourceCaser.String(c.SourceName)
	}

	if name := c.Domain(); name != "" {
		return name
	}

	return "unknown"
}
