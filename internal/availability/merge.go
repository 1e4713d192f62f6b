package availability

import "sort"

// mergeBusy normalizes the raw busy list into a minimal sorted sequence of
// disjoint intervals: zero-or-negative-length entries are dropped, the rest
// are sorted and merged. Touching endpoints merge (half-open semantics).
// Buffer padding is deliberately not applied here; that belongs to slot
// generation so this step stays reusable and order-independent.
func mergeBusy(busy []BusyInterval) []Interval {
	ivs := make([]Interval, 0, len(busy))
	for _, b := range busy {
		if b.End.After(b.Start) {
			ivs = append(ivs, Interval{Start: b.Start, End: b.End})
		}
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start.Before(ivs[j].Start) })
	return mergeIntervals(ivs)
}

// mergeIntervals merges overlapping or touching intervals. Input must be
// sorted by start.
func mergeIntervals(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	merged := []Interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
