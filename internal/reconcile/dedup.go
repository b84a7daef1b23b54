package reconcile

import "sort"

// Dedup keeps one row per key: rows are sorted by key and then by less, and the
// first of every key survives. The result is ordered by key.
func Dedup[T any](rows []T, key func(T) string, less func(a, b T) bool) []T {
	type keyed struct {
		key string
		row T
	}
	ks := make([]keyed, len(rows))
	for i, r := range rows {
		ks[i] = keyed{key: key(r), row: r}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].key != ks[j].key {
			return ks[i].key < ks[j].key
		}
		return less != nil && less(ks[i].row, ks[j].row)
	})

	out := make([]T, 0, len(ks))
	for i, k := range ks {
		if i > 0 && ks[i-1].key == k.key {
			continue
		}
		out = append(out, k.row)
	}
	return out
}
