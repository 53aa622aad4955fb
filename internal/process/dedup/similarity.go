package dedup

import (
	"sort"
	"strings"
)

// TokenSortRatio is a token-order-independent string similarity: the words
// of each input are lowercased and sorted before comparison, so "OpenAI
// releases GPT-5" and "GPT-5 releases OpenAI" compare equal. The underlying
// measure is a normalized longest-common-subsequence ratio in [0,1].
func TokenSortRatio(a, b string) float64 {
	return sequenceRatio(tokenSort(a), tokenSort(b))
}

func tokenSort(s string) string {
	words := strings.Fields(strings.ToLower(s))
	sort.Strings(words)

	return strings.Join(words, " ")
}

// sequenceRatio returns 2*LCS(a,b) / (len(a)+len(b)) over runes, 1 for two
// empty strings.
func sequenceRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}

	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// Rolling single-row LCS to keep memory at O(min side).
	if len(rb) < len(ra) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)

	for j := 1; j <= len(rb); j++ {
		for i := 1; i <= len(ra); i++ {
			if ra[i-1] == rb[j-1] {
				curr[i] = prev[i-1] + 1
			} else if prev[i] >= curr[i-1] {
				curr[i] = prev[i]
			} else {
				curr[i] = curr[i-1]
			}
		}

		prev, curr = curr, prev
	}

	lcs := prev[len(ra)]

	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// titleBag returns the lowercased words of a title longer than minWordLen
// runes, used as an entity fallback when no structured entities exist.
func titleBag(title string, minWordLen int) map[string]struct{} {
	bag := make(map[string]struct{})

	for _, word := range strings.Fields(strings.ToLower(title)) {
		word = strings.Trim(word, ".,:;!?\"'()[]")
		if len([]rune(word)) > minWordLen {
			bag[word] = struct{}{}
		}
	}

	return bag
}
