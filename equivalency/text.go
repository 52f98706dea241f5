package equivalency

import (
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// TextScore is 1 minus the Levenshtein distance normalised by the longer
// string, clamped at 0. Two empty strings score 1.
func TextScore(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	score := 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(longest)
	return max(score, 0)
}

// ClassListScore compares two class token sets. Exact matches are removed
// first, leftovers are paired greedily with their most similar unmatched
// counterpart.
func ClassListScore(a, b []string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}

	matched := make([]bool, len(b))
	var rest []string
	var credit float64
	for _, x := range a {
		found := false
		for j, y := range b {
			if !matched[j] && x == y {
				matched[j] = true
				found = true
				credit++
				break
			}
		}
		if !found {
			rest = append(rest, x)
		}
	}

	for _, x := range rest {
		best, bestIdx := 0.0, -1
		for j, y := range b {
			if matched[j] {
				continue
			}
			if s := TextScore(x, y); bestIdx < 0 || s > best {
				best, bestIdx = s, j
			}
		}
		if bestIdx < 0 {
			break
		}
		matched[bestIdx] = true
		credit += best
	}
	return credit / float64(longest)
}
