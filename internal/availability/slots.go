package availability

import "time"

// generateSlots walks each open interval in order, proposing candidate
// starts every slot interval. A candidate survives when the full appointment
// fits before the window closes, it is not inside the minimum-notice window
// and it does not overlap any buffer-expanded busy interval. Invalid
// candidates are skipped, not terminal: a later candidate in the same window
// may still be valid once an exclusion zone ends.
func generateSlots(open, busy []Interval, ev EventParams, now time.Time) []Slot {
	duration := time.Duration(ev.DurationMin) * time.Minute
	stepMin := ev.SlotIntervalMin
	if stepMin == 0 {
		stepMin = ev.DurationMin
	}
	step := time.Duration(stepMin) * time.Minute
	cutoff := now.Add(time.Duration(ev.MinNoticeMin) * time.Minute)

	blocked := expandBuffers(busy, ev)

	var slots []Slot
	for _, iv := range open {
		for t := iv.Start; !t.Add(duration).After(iv.End); t = t.Add(step) {
			if t.Before(cutoff) {
				continue
			}
			if overlapsAny(blocked, t, t.Add(duration)) {
				continue
			}
			slots = append(slots, Slot{Start: t})
		}
	}
	return slots
}

// expandBuffers pads every busy interval with the event's before/after
// buffers. The uniform shift keeps the list sorted, so one more merge pass
// restores disjointness.
func expandBuffers(busy []Interval, ev EventParams) []Interval {
	if ev.BufferBeforeMin == 0 && ev.BufferAfterMin == 0 {
		return busy
	}
	before := time.Duration(ev.BufferBeforeMin) * time.Minute
	after := time.Duration(ev.BufferAfterMin) * time.Minute
	expanded := make([]Interval, len(busy))
	for i, b := range busy {
		expanded[i] = Interval{Start: b.Start.Add(-before), End: b.End.Add(after)}
	}
	return mergeIntervals(expanded)
}

func overlapsAny(ivs []Interval, start, end time.Time) bool {
	for _, iv := range ivs {
		if iv.overlaps(start, end) {
			return true
		}
	}
	return false
}
