// fuzzy.go - Approximate name matching

package lookup

import (
	"math"
	"strings"
)

// similarity returns a 0.0-1.0 score from the Levenshtein distance of the
// lower-cased names
func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}

	ra, rb := []rune(a), []rune(b)
	maxLen := float64(maxInt(len(ra), len(rb)))
	if maxLen == 0 {
		return 0
	}

	return math.Max(0, 1.0-float64(levenshteinDistance(ra, rb))/maxLen)
}

// levenshteinDistance computes the edit distance with a two-row table
func levenshteinDistance(s1, s2 []rune) int {
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

func minInt(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
