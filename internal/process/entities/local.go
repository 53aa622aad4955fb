package entities

import (
	"context"
	"regexp"
	"strings"

	"github.com/DragonSun329/briefai/internal/core/domain"
)

// fullConfidenceEntityCount is the entity count at which the local tagger
// reports full confidence and the remote fallback is skipped.
const fullConfidenceEntityCount = 8

// Gazetteers for the fast local tagger. Keys are matched as whole words,
// case-insensitively; values are the emitted surface forms (fed through the
// alias table on output).
var (
	companyTerms = []string{
		"openai", "anthropic", "google", "deepmind", "microsoft", "meta",
		"nvidia", "amazon", "apple", "tesla", "xai", "mistral",
		"hugging face", "bytedance", "baidu", "alibaba", "tencent",
		"tsmc", "intel", "amd", "oracle", "salesforce", "ibm", "samsung",
		"perplexity", "cohere", "stability ai", "databricks",
	}

	modelTerms = []string{
		"gpt-4", "gpt-4o", "gpt-5", "gpt4", "gpt5", "chatgpt", "claude",
		"claude-3", "gemini", "llama", "llama-3", "grok", "sora", "dall-e",
		"copilot", "stable diffusion", "qwen", "deepseek",
	}

	topicTerms = []string{
		"funding", "acquisition", "ipo", "regulation", "antitrust",
		"open source", "chips", "semiconductors", "data center", "agents",
		"safety", "alignment", "layoffs", "partnership", "lawsuit",
		"copyright", "robotics", "autonomous driving", "search",
		"enterprise ai", "inference", "training",
	}

	businessModelTerms = []string{
		"subscription", "saas", "advertising", "api", "licensing",
		"freemium", "marketplace", "consulting", "cloud services",
		"pay-per-use", "open core",
	}

	peopleTerms = []string{
		"sam altman", "elon musk", "sundar pichai", "satya nadella",
		"jensen huang", "dario amodei", "demis hassabis", "mark zuckerberg",
		"mira murati", "yann lecun", "ilya sutskever", "tim cook",
	}
)

// modelVersionRegex catches versioned model names the gazetteer misses,
// e.g. "GPT-6", "Llama 4.1", "Claude 5".
var modelVersionRegex = regexp.MustCompile(`(?i)\b(gpt|claude|llama|gemini|grok|qwen|deepseek)[ -]?v?(\d+(?:\.\d+)?[a-z]*)\b`)

// LocalTagger is the fast, in-process entity extractor. It never fails and
// never performs I/O.
type LocalTagger struct{}

// NewLocalTagger creates a LocalTagger.
func NewLocalTagger() *LocalTagger {
	return &LocalTagger{}
}

// Extract tags typed entities in text via gazetteer lookup. The error is
// always nil; it exists to satisfy the Extractor capability.
func (t *LocalTagger) Extract(_ context.Context, text string) (*domain.EntitySet, error) {
	lower := strings.ToLower(text)

	set := &domain.EntitySet{
		Companies:      matchTerms(lower, companyTerms),
		Models:         appendUnique(matchTerms(lower, modelTerms), matchModelVersions(text)),
		Topics:         matchTerms(lower, topicTerms),
		BusinessModels: matchTerms(lower, businessModelTerms),
		People:         matchTerms(lower, peopleTerms),
	}

	return set, nil
}

// Confidence is a proxy for extraction completeness: proportional to the
// total entity count, saturating at 1.0 once fullConfidenceEntityCount
// entities were found across categories.
func (t *LocalTagger) Confidence(set *domain.EntitySet) float64 {
	n := set.Len()
	if n >= fullConfidenceEntityCount {
		return 1.0
	}

	return float64(n) / float64(fullConfidenceEntityCount)
}

func matchTerms(lowerText string, terms []string) []string {
	var found []string

	for _, term := range terms {
		if len(found) >= domain.MaxEntitiesPerCategory {
			break
		}

		if containsWord(lowerText, term) {
			found = append(found, Normalize(term))
		}
	}

	return found
}

func matchModelVersions(text string) []string {
	matches := modelVersionRegex.FindAllString(text, -1)

	var found []string
	for _, m := range matches {
		found = append(found, Normalize(strings.ToLower(m)))
	}

	return found
}

func appendUnique(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, e := range base {
		seen[strings.ToLower(e)] = struct{}{}
	}

	for _, e := range extra {
		if len(base) >= domain.MaxEntitiesPerCategory {
			break
		}

		key := strings.ToLower(e)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		base = append(base, e)
	}

	return base
}

// containsWord reports whether text contains term bounded by non-alphanumeric
// runes, so "meta" does not match inside "metadata".
func containsWord(text, term string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			return false
		}

		idx += start

		beforeOK := idx == 0 || !isWordRune(rune(text[idx-1]))

		end := idx + len(term)
		afterOK := end >= len(text) || !isWordRune(rune(text[end]))

		if beforeOK && afterOK {
			return true
		}

		start = idx + 1
	}
}

func isWordRune(r rune) bool {
	return r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
