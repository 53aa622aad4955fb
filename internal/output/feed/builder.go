package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DragonSun329/briefai/internal/core/domain"
)

// BuildInput carries the two mode groupings of the same deduplicated
// candidate pool plus the assembly limits.
type BuildInput struct {
	ClustersEvent   []domain.StoryCluster
	SingletonsEvent []domain.Candidate
	ClustersTheme   []domain.StoryCluster
	SingletonsTheme []domain.Candidate

	CandidateCount int
	TopK           int
	MaxRelated     int
	Date           time.Time
}

// BuildDualFeed runs the ranker independently over the EVENT and THEME
// groupings and assembles the versioned output document. The two passes
// only read their inputs, so they run concurrently. Section summaries are
// derived from the same slices that land in the document, keeping the
// counts consistent with the emitted items.
func (r *Ranker) BuildDualFeed(ctx context.Context, in BuildInput) domain.DualFeed {
	var (
		wg         sync.WaitGroup
		eventItems []domain.RankedFeedItem
		themeItems []domain.RankedFeedItem
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		eventItems = r.rankSection(ctx, domain.ModeEvent, in.ClustersEvent, in.SingletonsEvent, in)
	}()

	go func() {
		defer wg.Done()

		themeItems = r.rankSection(ctx, domain.ModeTheme, in.ClustersTheme, in.SingletonsTheme, in)
	}()

	wg.Wait()

	return domain.DualFeed{
		Version:     domain.FeedVersion,
		Date:        in.Date.Format(time.DateOnly),
		GeneratedAt: time.Now().UTC(),
		Summary: domain.FeedSummary{
			CandidateArticles: in.CandidateCount,
			Events: domain.SectionSummary{
				Clusters:   len(in.ClustersEvent),
				Singletons: len(in.SingletonsEvent),
				TopKItems:  len(eventItems),
			},
			Themes: domain.SectionSummary{
				Clusters:   len(in.ClustersTheme),
				Singletons: len(in.SingletonsTheme),
				TopKItems:  len(themeItems),
			},
		},
		TopEvents: domain.FeedSection{Items: eventItems},
		TopThemes: domain.FeedSection{Items: themeItems},
	}
}

func (r *Ranker) rankSection(ctx context.Context, mode domain.Mode, clusters []domain.StoryCluster, singletons []domain.Candidate, in BuildInput) []domain.RankedFeedItem {
	items := r.RankClusters(ctx, mode, clusters, in.MaxRelated)
	items = append(items, r.RankSingletons(singletons)...)

	sortItems(items)

	if in.TopK >= 0 && len(items) > in.TopK {
		items = items[:in.TopK]
	}

	return items
}

// sortItems orders by rank score descending, breaking ties by cluster size
// (clusters before equally scored singletons) and finally by stable ID so
// output order is deterministic.
func sortItems(items []domain.RankedFeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].RankScore != items[j].RankScore {
			return items[i].RankScore > items[j].RankScore
		}

		if itemSize(&items[i]) != itemSize(&items[j]) {
			return itemSize(&items[i]) > itemSize(&items[j])
		}

		return itemID(&items[i]) < itemID(&items[j])
	})
}

func itemSize(item *domain.RankedFeedItem) int {
	if item.Cluster != nil {
		return item.Cluster.ClusterSize
	}

	return 1
}

func itemID(item *domain.RankedFeedItem) string {
	if item.Cluster != nil {
		return item.Cluster.ClusterID
	}

	if item.Article != nil {
		return item.Article.StoryID
	}

	return ""
}
