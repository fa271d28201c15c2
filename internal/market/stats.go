// Package market merges per-source market observations into one unified
// record and derives price statistics from it. Pure computation; fetching the
// per-source records is the collaborators' job.
package market

import (
	"sort"

	"github.com/crate-scout/vinyl-cli/internal/model"
)

// bucketCount is the number of equal-width histogram buckets.
const bucketCount = 5

// Median returns the median of a price list: the middle element for odd
// lengths, the mean of the two middle elements for even lengths. The second
// return is false for an empty list. The input is not modified.
func Median(prices []float64) (float64, bool) {
	if len(prices) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// Mean returns the arithmetic mean, or false for an empty list.
func Mean(prices []float64) (float64, bool) {
	if len(prices) == 0 {
		return 0, false
	}
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices)), true
}

// Distribute splits [min, max] into five equal-width buckets and counts the
// prices falling in each: inclusive lower bound, exclusive upper bound, with
// the last bucket closed at the top so max is always counted. When every
// price is identical it returns a single-value marker instead, since there
// is no width to split.
func Distribute(prices []float64) *model.Distribution {
	if len(prices) == 0 {
		return nil
	}

	lo, hi := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}

	if hi == lo {
		v := lo
		return &model.Distribution{SingleValue: &v}
	}

	width := (hi - lo) / bucketCount
	buckets := make([]model.PriceBucket, bucketCount)
	for i := range buckets {
		buckets[i].Low = lo + width*float64(i)
		buckets[i].High = buckets[i].Low + width
	}
	buckets[bucketCount-1].High = hi

	for _, p := range prices {
		idx := int((p - lo) / width)
		if idx >= bucketCount {
			idx = bucketCount - 1
		}
		buckets[idx].Count++
	}
	for i := range buckets {
		buckets[i].Percent = float64(buckets[i].Count) / float64(len(prices)) * 100
	}

	return &model.Distribution{Buckets: buckets}
}
