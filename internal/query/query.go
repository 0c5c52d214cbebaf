// Package query answers aggregate questions over loaded relations.
//
// Operations are generic over the record type and read fields through
// accessor funcs, so the same engine serves brackets, counties and state
// summaries. Nothing here mutates its input: rankings sort a copy.
//
// Ordering rules:
//
//	RankTopN      stable sort by field, then the first n
//	RankBottomN   stable descending sort, then the last n (still descending)
//	RankGroups    no-data groups dropped, then RankTopN on the averages
//	MinMaxBy      first occurrence wins at both ends
//
// Lookups that find nothing return ok=false rather than an error. Errors are
// reserved for aggregates that cannot be computed at all.
package query

import (
	"errors"
	"math"
	"sort"
)

var (
	// ErrEmptyRelation is returned when an aggregate is asked of zero records.
	ErrEmptyRelation = errors.New("relation has no records")
	// ErrZeroWeight is returned when the weights of a weighted average sum to zero.
	ErrZeroWeight = errors.New("weights sum to zero")
)

// Field reads a numeric field from a record.
type Field[T any] func(T) float64

// Round2 rounds v to two decimal places, halves to even.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// Average returns the mean of value over records, rounded to two decimals.
// With a nil weight it is the simple mean; otherwise it is
// sum(value) / sum(weight), where value already holds the weighted total of
// each record (for a bracket, its aggregate income).
func Average[T any](records []T, value, weight Field[T]) (float64, error) {
	if len(records) == 0 {
		return 0, ErrEmptyRelation
	}

	var sum, total float64
	for _, r := range records {
		sum += value(r)
		if weight != nil {
			total += weight(r)
		}
	}
	if weight == nil {
		total = float64(len(records))
	}
	if total == 0 {
		return 0, ErrZeroWeight
	}
	return Round2(sum / total), nil
}

// FindThresholdCrossing returns the first record, in stored order, whose
// field is at least threshold. The field must be non-decreasing across the
// records; this is not checked.
func FindThresholdCrossing[T any](records []T, field Field[T], threshold float64) (T, bool) {
	for _, r := range records {
		if field(r) >= threshold {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// sortedBy returns a stably sorted copy of records.
func sortedBy[T any](records []T, field Field[T], descending bool) []T {
	out := make([]T, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return field(out[i]) > field(out[j])
		}
		return field(out[i]) < field(out[j])
	})
	return out
}

// RankTopN sorts records by field and returns the first n. Records with equal
// fields keep their relative order. The result is never nil.
func RankTopN[T any](records []T, field Field[T], n int, descending bool) []T {
	if n <= 0 || len(records) == 0 {
		return []T{}
	}
	sorted := sortedBy(records, field, descending)
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// RankBottomN sorts records by field in descending order and returns the last
// n. The result is therefore itself in descending order, ending with the
// global minimum.
func RankBottomN[T any](records []T, field Field[T], n int) []T {
	if n <= 0 || len(records) == 0 {
		return []T{}
	}
	sorted := sortedBy(records, field, true)
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[len(sorted)-n:]
}

// GroupResult is the average of one group. HasData is false when no record
// matched the key; Average is then meaningless.
type GroupResult[K comparable] struct {
	Key     K
	Average float64
	Count   int
	HasData bool
}

// GroupResults holds one result per known key, in known-key order.
type GroupResults[K comparable] []GroupResult[K]

// Lookup returns the result for key. Keys outside the known set report no data.
func (g GroupResults[K]) Lookup(key K) GroupResult[K] {
	for _, r := range g {
		if r.Key == key {
			return r
		}
	}
	return GroupResult[K]{Key: key}
}

// GroupAverage averages value over the records matching each known key.
// Records whose key is not known are ignored.
func GroupAverage[T any, K comparable](records []T, key func(T) K, value Field[T], knownKeys []K) GroupResults[K] {
	type acc struct {
		sum   float64
		count int
	}
	sums := make(map[K]*acc, len(knownKeys))
	for _, k := range knownKeys {
		sums[k] = &acc{}
	}
	for _, r := range records {
		if a, ok := sums[key(r)]; ok {
			a.sum += value(r)
			a.count++
		}
	}

	results := make(GroupResults[K], 0, len(knownKeys))
	for _, k := range knownKeys {
		a := sums[k]
		res := GroupResult[K]{Key: k, Count: a.count}
		if a.count > 0 {
			res.Average = Round2(a.sum / float64(a.count))
			res.HasData = true
		}
		results = append(results, res)
	}
	return results
}

// RankGroups drops groups without data and ranks the rest by average.
func RankGroups[K comparable](groups GroupResults[K], n int, descending bool) []GroupResult[K] {
	withData := make([]GroupResult[K], 0, len(groups))
	for _, g := range groups {
		if g.HasData {
			withData = append(withData, g)
		}
	}
	return RankTopN(withData, func(g GroupResult[K]) float64 { return g.Average }, n, descending)
}

// FilterByKey returns the records whose key equals want, stably sorted by
// less. A nil less keeps stored order.
func FilterByKey[T any, K comparable](records []T, key func(T) K, want K, less func(a, b T) bool) []T {
	out := []T{}
	for _, r := range records {
		if key(r) == want {
			out = append(out, r)
		}
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

// MinMaxBy returns the records with the smallest and largest field. On ties
// the earliest record wins at both ends. ok is false for empty input.
func MinMaxBy[T any](records []T, field Field[T]) (lo, hi T, ok bool) {
	if len(records) == 0 {
		return lo, hi, false
	}
	lo, hi = records[0], records[0]
	for _, r := range records[1:] {
		v := field(r)
		if v < field(lo) {
			lo = r
		}
		if v > field(hi) {
			hi = r
		}
	}
	return lo, hi, true
}
