// Package expand flattens raw stories into a deduplicated candidate list:
// one canonical candidate per story plus a bounded number of related
// candidates, with batch-wide URL-level deduplication.
package expand

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"github.com/DragonSun329/briefai/internal/core/domain"
)

const (
	logKeyStoryID = "story_id"
	logKeyURL     = "url"
)

// Options configures one expansion batch.
type Options struct {
	// MaxRelated bounds the related candidates emitted per story.
	MaxRelated int

	// IncludeSourceOnlyLinks keeps homepage-only related links, giving them
	// a synthesized "{parent_title} ({source})" title instead of skipping.
	IncludeSourceOnlyLinks bool
}

// Expander turns stories into candidates.
type Expander struct {
	logger *zerolog.Logger
}

// New creates an Expander.
func New(logger *zerolog.Logger) *Expander {
	return &Expander{logger: logger}
}

// Expand emits at most 1+MaxRelated candidates per story: the canonical
// article (skipped only when both URL and title are empty) and up to
// MaxRelated related links in input order. A batch-scoped seen-set drops any
// candidate whose normalized URL was already emitted; first occurrence wins.
// The seen-set lives only inside this call, so reruns are independent.
func (e *Expander) Expand(stories []domain.Story, opts Options) []domain.Candidate {
	seen := make(map[string]struct{})
	candidates := make([]domain.Candidate, 0, len(stories))

	for _, story := range stories {
		if story.URL == "" && strings.TrimSpace(story.Title) == "" {
			e.logger.Debug().Str("source", story.Source).Msg("skipping story without url and title")
			continue
		}

		if canonical, ok := e.canonicalCandidate(story, seen); ok {
			candidates = append(candidates, canonical)
		}

		candidates = append(candidates, e.relatedCandidates(story, opts, seen)...)
	}

	return candidates
}

func (e *Expander) canonicalCandidate(story domain.Story, seen map[string]struct{}) (domain.Candidate, bool) {
	if !claimURL(story.URL, story.Title, seen) {
		e.logger.Debug().Str(logKeyURL, story.URL).Msg("dropping duplicate canonical url")
		return domain.Candidate{}, false
	}

	candidate := domain.Candidate{
		StoryID:      StoryID(story.URL, story.Title),
		Role:         domain.RoleCanonical,
		Title:        strings.TrimSpace(story.Title),
		URL:          story.URL,
		Source:       story.Source,
		SourceName:   story.SourceName,
		SignalType:   story.SignalType,
		PublishedAt:  parsePublishedAt(story.PublishedAt),
		ScrapedAt:    story.ScrapedAt,
		AIRelevance:  story.AIRelevance,
		GravityScore: story.GravityScore,
		Summary:      story.Summary,
		KeyInsight:   story.KeyInsight,
		Content:      story.Content,
	}

	return candidate, true
}

func (e *Expander) relatedCandidates(story domain.Story, opts Options, seen map[string]struct{}) []domain.Candidate {
	var related []domain.Candidate

	for _, link := range story.Related {
		if len(related) >= opts.MaxRelated {
			break
		}

		title := strings.TrimSpace(link.Title)
		if title == "" && isHomepageURL(link.URL) {
			if !opts.IncludeSourceOnlyLinks {
				continue
			}

			title = fmt.Sprintf("%s (%s)", strings.TrimSpace(story.Title), link.Source)
		}

		if link.URL == "" && title == "" {
			continue
		}

		if !claimURL(link.URL, title, seen) {
			e.logger.Debug().Str(logKeyURL, link.URL).Msg("dropping duplicate related url")
			continue
		}

		related = append(related, domain.Candidate{
			StoryID:          StoryID(link.URL, title),
			Role:             domain.RoleRelated,
			Title:            title,
			URL:              link.URL,
			Source:           link.Source,
			SourceName:       link.Source,
			SignalType:       story.SignalType,
			ScrapedAt:        story.ScrapedAt,
			AIRelevance:      story.AIRelevance,
			ParentStoryTitle: strings.TrimSpace(story.Title),
		})
	}

	return related
}

// claimURL registers the candidate's dedup key in the batch seen-set and
// reports whether it was free. Candidates without a URL dedup on their
// title-derived story ID instead.
func claimURL(rawURL, title string, seen map[string]struct{}) bool {
	key := NormalizeURL(rawURL)
	if key == "" {
		key = "title:" + StoryID("", title)
	}

	if _, ok := seen[key]; ok {
		return false
	}

	seen[key] = struct{}{}

	return true
}

// isHomepageURL reports whether the URL points at a site root rather than a
// distinct article.
func isHomepageURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return true
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	path := strings.TrimSuffix(parsed.Path, "/")

	return path == ""
}

func parsePublishedAt(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}

	return &parsed
}
