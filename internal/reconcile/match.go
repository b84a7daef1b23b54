package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/fuzzy"
)

// TiePolicy decides what happens when several candidates share the top score.
type TiePolicy int

const (
	// TieLexicographic picks the smallest canonical key and records the tie.
	TieLexicographic TiePolicy = iota
	// TieStrict refuses to choose and returns a JoinAmbiguity.
	TieStrict
)

// JoinAmbiguity reports candidates sharing the top fuzzy score.
type JoinAmbiguity struct {
	Name       string
	Candidates []string
	Score      int
	Chosen     string
}

func (e *JoinAmbiguity) Error() string {
	return fmt.Sprintf("ambiguous match for %q at score %d: %s", e.Name, e.Score, strings.Join(e.Candidates, ", "))
}

// Matcher picks the best candidate for a name by fuzzy score.
type Matcher struct {
	Scorer    fuzzy.Scorer
	Threshold int
	Ties      TiePolicy
	Keyer     Keyer
}

// Match is the outcome of Matcher.Best.
type Match struct {
	Candidate string
	Index     int
	Score     int
	// Ambiguity is set when the choice was made by tie-break.
	Ambiguity *JoinAmbiguity
}

func (m Matcher) scorer() fuzzy.Scorer {
	if m.Scorer == nil {
		return fuzzy.PartialRatio
	}
	return m.Scorer
}

// Score compares two names on their canonical forms.
func (m Matcher) Score(a, b string) int {
	return m.scorer().Score(m.Keyer.Canonical(a), m.Keyer.Canonical(b))
}

// Accepts reports whether a and b score at least the threshold.
func (m Matcher) Accepts(a, b string) bool {
	return m.Score(a, b) >= m.Threshold
}

// Best returns the highest scoring candidate at or above the threshold. ok is
// false when no candidate qualifies.
func (m Matcher) Best(name string, candidates []string) (match Match, ok bool, err error) {
	type scored struct {
		index int
		key   string
		score int
	}
	var top []scored
	best := -1
	for i, c := range candidates {
		s := m.Score(name, c)
		if s < m.Threshold || s < best {
			continue
		}
		if s > best {
			best = s
			top = top[:0]
		}
		top = append(top, scored{index: i, key: m.Keyer.Canonical(c), score: s})
	}
	if len(top) == 0 {
		return Match{}, false, nil
	}

	sort.SliceStable(top, func(i, j int) bool { return top[i].key < top[j].key })
	chosen := top[0]
	match = Match{Candidate: candidates[chosen.index], Index: chosen.index, Score: chosen.score}

	distinct := map[string]bool{}
	for _, t := range top {
		distinct[t.key] = true
	}
	if len(distinct) > 1 {
		amb := &JoinAmbiguity{Name: name, Score: best, Chosen: match.Candidate}
		for _, t := range top {
			amb.Candidates = append(amb.Candidates, candidates[t.index])
		}
		if m.Ties == TieStrict {
			return Match{}, false, amb
		}
		match.Ambiguity = amb
	}
	return match, true, nil
}
