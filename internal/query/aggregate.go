package query

import "math"

// Group is one aggregation bucket.
type Group[K comparable] struct {
	Key   K       `json:"key"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// AggregateByKey buckets records by key in first-seen order and sums value
// per bucket. Missing values (ok == false) and NaN count as 0.
func AggregateByKey[T any, K comparable](records []T, key func(T) K, value func(T) (float64, bool)) []Group[K] {
	groups := make([]Group[K], 0)
	index := make(map[K]int)

	for _, rec := range records {
		k := key(rec)
		i, seen := index[k]
		if !seen {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K]{Key: k})
		}
		groups[i].Count++
		groups[i].Total += coerce(value(rec))
	}

	return groups
}

// CountByKey tallies records per key.
func CountByKey[T any, K comparable](records []T, key func(T) K) map[K]int {
	counts := make(map[K]int)
	for _, rec := range records {
		counts[key(rec)]++
	}
	return counts
}

// Sum adds value over all records with the same coercion as AggregateByKey.
func Sum[T any](records []T, value func(T) (float64, bool)) float64 {
	var total float64
	for _, rec := range records {
		total += coerce(value(rec))
	}
	return total
}

// Present adapts a non-optional accessor to the (value, ok) shape.
func Present[T any](field func(T) float64) func(T) (float64, bool) {
	return func(rec T) (float64, bool) {
		return field(rec), true
	}
}

// Optional adapts a pointer accessor; nil is a missing value.
func Optional[T any](field func(T) *float64) func(T) (float64, bool) {
	return func(rec T) (float64, bool) {
		v := field(rec)
		if v == nil {
			return 0, false
		}
		return *v, true
	}
}

func coerce(v float64, ok bool) float64 {
	if !ok || math.IsNaN(v) {
		return 0
	}
	return v
}
