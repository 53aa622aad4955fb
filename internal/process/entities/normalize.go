package entities

import (
	"strings"
	"unicode"
)

// aliasTable maps normalized variant spellings to one canonical form.
// Keys are the lowercased, punctuation-stripped, whitespace-collapsed form
// of the variant; canonical forms map to themselves so normalization is
// idempotent.
var aliasTable = map[string]string{
	// Models
	"gpt4":        "gpt-4",
	"gpt 4":       "gpt-4",
	"gpt-4":       "gpt-4",
	"gpt4o":       "gpt-4o",
	"gpt 4o":      "gpt-4o",
	"gpt-4o":      "gpt-4o",
	"gpt5":        "gpt-5",
	"gpt 5":       "gpt-5",
	"gpt-5":       "gpt-5",
	"claude 3":    "claude-3",
	"claude3":     "claude-3",
	"claude-3":    "claude-3",
	"gemini pro":  "gemini",
	"gemini":      "gemini",
	"llama 3":     "llama-3",
	"llama3":      "llama-3",
	"llama-3":     "llama-3",

	// Companies
	"open ai":     "OpenAI",
	"openai":      "OpenAI",
	"anthropic":   "Anthropic",
	"google":      "Google",
	"deepmind":    "DeepMind",
	"google deepmind": "DeepMind",
	"microsoft":   "Microsoft",
	"meta":        "Meta",
	"facebook":    "Meta",
	"nvidia":      "Nvidia",
	"amazon":      "Amazon",
	"aws":         "Amazon",
	"apple":       "Apple",
	"tesla":       "Tesla",
	"xai":         "xAI",
	"x ai":        "xAI",
	"mistral":     "Mistral",
	"mistral ai":  "Mistral",
	"hugging face": "Hugging Face",
	"huggingface": "Hugging Face",
	"bytedance":   "ByteDance",
	"baidu":       "Baidu",
	"alibaba":     "Alibaba",
	"tencent":     "Tencent",
	"tsmc":        "TSMC",
	"intel":       "Intel",
	"amd":         "AMD",

	// People
	"sam altman":    "Sam Altman",
	"elon musk":     "Elon Musk",
	"sundar pichai": "Sundar Pichai",
	"satya nadella": "Satya Nadella",
	"jensen huang":  "Jensen Huang",
	"dario amodei":  "Dario Amodei",
	"demis hassabis": "Demis Hassabis",
	"mark zuckerberg": "Mark Zuckerberg",
}

// Normalize maps variant spellings of an entity to one canonical form. The
// lookup key is lowercased with punctuation (except hyphens) stripped and
// whitespace collapsed; entities absent from the alias table pass through
// with trimmed original casing. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if canonical, ok := aliasTable[normalizeKey(trimmed)]; ok {
		return canonical
	}

	return trimmed
}

func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
