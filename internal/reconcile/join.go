package reconcile

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidJoinSpec is returned when a JoinSpec lacks the key functions its mode needs.
var ErrInvalidJoinSpec = errors.New("invalid join spec")

// Strategy records how a joined row found its partner.
type Strategy string

const (
	StrategyID    Strategy = "id"
	StrategyName  Strategy = "name"
	StrategyFuzzy Strategy = "fuzzy"
	StrategyNone  Strategy = "none"
)

// UnmatchedPolicy decides the fate of left rows without a partner.
type UnmatchedPolicy int

const (
	DropUnmatched UnmatchedPolicy = iota
	KeepUnmatched
)

// JoinSpec describes how to key both sides of a join.
type JoinSpec[L, R any] struct {
	LeftName  func(L) string
	RightName func(R) string
	// ByID joins on numeric ids instead of canonical names.
	ByID    bool
	LeftID  func(L) int64
	RightID func(R) int64

	Keyer Keyer
	// Matcher enables the fuzzy fallback on names when the exact key misses.
	Matcher   *Matcher
	Unmatched UnmatchedPolicy
}

// Joined is one output row. Right is nil for kept unmatched rows.
type Joined[L, R any] struct {
	Left     L
	Right    *R
	Key      EntityKey
	Strategy Strategy
	Score    int
}

// JoinReport counts the outcome of a join.
type JoinReport struct {
	Matched          int
	Fuzzy            int
	UnmatchedKept    int
	UnmatchedDropped int
	Ambiguities      []*JoinAmbiguity
}

// Table is a reconciled table.
type Table[L, R any] struct {
	Rows   []Joined[L, R]
	Report JoinReport
}

// Join matches every left row against the right table: exact key first, then the
// fuzzy fallback when a matcher is configured. Right rows sharing a key keep the
// first one. The key of every output row comes from one of the input tables.
func Join[L, R any](left []L, right []R, spec JoinSpec[L, R]) (Table[L, R], error) {
	if err := spec.validate(); err != nil {
		return Table[L, R]{}, err
	}
	rightKeys := make([]EntityKey, len(right))
	byKey := make(map[string]int, len(right))
	for i, r := range right {
		k := rowKey(spec.Keyer, spec.ByID, spec.RightName, spec.RightID, r)
		rightKeys[i] = k
		if _, dup := byKey[lookup(k)]; !dup {
			byKey[lookup(k)] = i
		}
	}

	var names []string
	var nameIndex []int
	if spec.Matcher != nil {
		seen := map[string]bool{}
		for i, r := range right {
			n := spec.RightName(r)
			if seen[n] {
				continue
			}
			seen[n] = true
			names = append(names, n)
			nameIndex = append(nameIndex, i)
		}
	}

	var table Table[L, R]
	for _, l := range left {
		key := rowKey(spec.Keyer, spec.ByID, spec.LeftName, spec.LeftID, l)
		if i, ok := byKey[lookup(key)]; ok {
			strategy := StrategyName
			if spec.ByID {
				strategy = StrategyID
			}
			table.Rows = append(table.Rows, Joined[L, R]{Left: l, Right: &right[i], Key: rightKeys[i], Strategy: strategy, Score: 100})
			table.Report.Matched++
			continue
		}

		if spec.Matcher != nil {
			match, ok, err := spec.Matcher.Best(spec.LeftName(l), names)
			if err != nil {
				return table, err
			}
			if ok {
				i := nameIndex[match.Index]
				table.Rows = append(table.Rows, Joined[L, R]{Left: l, Right: &right[i], Key: rightKeys[i], Strategy: StrategyFuzzy, Score: match.Score})
				table.Report.Matched++
				table.Report.Fuzzy++
				if match.Ambiguity != nil {
					table.Report.Ambiguities = append(table.Report.Ambiguities, match.Ambiguity)
				}
				continue
			}
		}

		if spec.Unmatched == KeepUnmatched {
			table.Rows = append(table.Rows, Joined[L, R]{Left: l, Key: key, Strategy: StrategyNone})
			table.Report.UnmatchedKept++
		} else {
			table.Report.UnmatchedDropped++
		}
	}
	return table, nil
}

func (s JoinSpec[L, R]) validate() error {
	if s.ByID && (s.LeftID == nil || s.RightID == nil) {
		return fmt.Errorf("%w: ByID requires LeftID and RightID", ErrInvalidJoinSpec)
	}
	if (!s.ByID || s.Matcher != nil) && (s.LeftName == nil || s.RightName == nil) {
		return fmt.Errorf("%w: name keys require LeftName and RightName", ErrInvalidJoinSpec)
	}
	return nil
}

func rowKey[T any](keyer Keyer, byID bool, name func(T) string, id func(T) int64, row T) EntityKey {
	var n string
	if name != nil {
		n = name(row)
	}
	if !byID {
		return keyer.Key(n)
	}
	return keyer.KeyWithID(n, id(row))
}

func lookup(k EntityKey) string {
	if k.HasID {
		return "#" + strconv.FormatInt(k.ID, 10)
	}
	return k.Name
}
