// Package fuzzy scores the similarity of two names on a 0..100 scale.
package fuzzy

import (
	"math"

	"github.com/agnivade/levenshtein"
)

// Scorer rates how similar two strings are, from 0 (unrelated) to 100 (equal).
type Scorer interface {
	Score(a, b string) int
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(a, b string) int

func (f ScorerFunc) Score(a, b string) int { return f(a, b) }

var (
	// Ratio compares whole strings.
	Ratio Scorer = ScorerFunc(ratio)
	// PartialRatio compares the shorter string against the best aligned
	// substring of the longer one.
	PartialRatio Scorer = ScorerFunc(partialRatio)
)

func ratio(a, b string) int {
	return runeRatio([]rune(a), []rune(b))
}

func runeRatio(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	d := levenshtein.ComputeDistance(string(a), string(b))
	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}

func partialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		if s := runeRatio(short, long[i:i+len(short)]); s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}
