package lexer

import (
	"strings"

	"github.com/omniql-engine/nlq/mapping"
)

// SuggestSimilar finds the closest trigger keyword to a word
// Returns "" when nothing is within the edit-distance budget
func SuggestSimilar(unknown string) string {
	unknown = strings.ToLower(unknown)
	if len(unknown) < 3 {
		return ""
	}

	budget := 2
	if len(unknown) <= 4 {
		budget = 1
	}

	best, bestDist := "", budget+1
	for _, phrase := range mapping.AllTriggerPhrases() {
		// multi-word phrases also match on their head word ("hw" -> "how many")
		candidates := []string{phrase}
		if head, _, ok := strings.Cut(phrase, " "); ok {
			candidates = append(candidates, head)
		}
		for _, c := range candidates {
			if d := levenshtein(unknown, c); d < bestDist {
				best, bestDist = phrase, d
			}
		}
	}

	// exact hits are known words, not typos
	if bestDist == 0 {
		return ""
	}
	return best
}

// SuggestForWords returns the first suggestion found for any word
func SuggestForWords(words []string) string {
	for _, w := range words {
		if s := SuggestSimilar(w); s != "" {
			return s
		}
	}
	return ""
}

// levenshtein is the edit distance between two ASCII words, kept to two rows
func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			sub := prev[j-1]
			if a[i-1] != b[j-1] {
				sub++
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
