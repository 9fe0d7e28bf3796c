package regions

import (
	"sort"
)

// Interval is a half-open [Start, End) range on one sequence, as in BED.
type Interval struct {
	Start, End int
}

// SortByStart sorts a slice of Interval by Start position.
func SortByStart(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})
}

// extend makes interval1 larger if interval2 overlaps or touches it.
// interval2.Start >= interval1.Start must hold.
func (interval1 *Interval) extend(interval2 Interval) bool {
	if interval2.Start > interval1.End {
		return false
	}
	if interval2.End > interval1.End {
		interval1.End = interval2.End
	}
	return true
}

// Flatten merges overlapping intervals into larger intervals.
// intervals must be sorted by Start. The result shares memory with the
// argument.
func Flatten(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return intervals
	}
	i := 0
	for j := 1; j < len(intervals); j++ {
		if !intervals[i].extend(intervals[j]) {
			i++
			intervals[i] = intervals[j]
		}
	}
	return intervals[:i+1]
}

// Overlap determines whether [start, end) overlaps with any of the given
// intervals, which must be flattened and sorted by Start.
func Overlap(intervals []Interval, start, end int) bool {
	for left, right := 0, len(intervals)-1; left <= right; {
		mid := (left + right) / 2
		if intervals[mid].Start >= end {
			right = mid - 1
		} else if intervals[mid].End <= start {
			left = mid + 1
		} else {
			return true
		}
	}
	return false
}
