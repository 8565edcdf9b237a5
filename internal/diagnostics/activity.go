package diagnostics

import "sort"

// ActivityLog maps a step index to the number of active contact
// interactions at that step. It never holds a zero count: a missing step
// means no interaction was active.
type ActivityLog struct {
	entries map[int]int
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{entries: make(map[int]int)}
}

// Record stores count for step when count is positive.
func (l *ActivityLog) Record(step, count int) {
	if count <= 0 {
		return
	}
	l.entries[step] = count
}

func (l *ActivityLog) Len() int { return len(l.entries) }

func (l *ActivityLog) Empty() bool { return len(l.entries) == 0 }

// Count returns the recorded count for step, zero when absent.
func (l *ActivityLog) Count(step int) int { return l.entries[step] }

// Steps returns the recorded step indices in increasing order.
func (l *ActivityLog) Steps() []int {
	steps := make([]int, 0, len(l.entries))
	for s := range l.entries {
		steps = append(steps, s)
	}
	sort.Ints(steps)
	return steps
}

// Entries returns a copy of the log.
func (l *ActivityLog) Entries() map[int]int {
	out := make(map[int]int, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}
