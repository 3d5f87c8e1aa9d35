// Package history reduces a deal's raw stage-change log to contiguous,
// duration-annotated stage segments.
package history

import (
	"slices"
	"time"
)

// Event is one stage-change log row: the deal entered StageID at At.
type Event struct {
	StageID string    `json:"stage_id" yaml:"stage_id"`
	At      time.Time `json:"at" yaml:"at"`
}

// Segment is an interval the deal spent in one stage. The last segment of
// a history ends at evaluation time and is recomputed on every call.
type Segment struct {
	StageID  string        `json:"stage_id" yaml:"stage_id"`
	Start    time.Time     `json:"start" yaml:"start"`
	End      time.Time     `json:"end" yaml:"end"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Sort orders events by time in place. Events with equal timestamps keep
// the order they were fetched in.
func Sort(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		return a.At.Compare(b.At)
	})
}

// Dedup drops every event whose stage equals the previous retained event's
// stage, so re-entrant duplicate rows collapse into one run that starts at
// the first occurrence.
func Dedup(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if len(out) > 0 && out[len(out)-1].StageID == e.StageID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Segments turns sorted, deduplicated events into segments. Each segment
// ends where the next begins; the last one ends at now, or at its own start
// if now is earlier. Durations are floored at zero.
func Segments(events []Event, now time.Time) []Segment {
	segs := make([]Segment, len(events))
	for i, e := range events {
		end := now
		if i+1 < len(events) {
			end = events[i+1].At
		} else if end.Before(e.At) {
			end = e.At
		}
		segs[i] = Segment{
			StageID:  e.StageID,
			Start:    e.At,
			End:      end,
			Duration: max(end.Sub(e.At), 0),
		}
	}
	return segs
}

// Reduce sorts a copy of events, deduplicates it and segments the result.
func Reduce(events []Event, now time.Time) []Segment {
	sorted := slices.Clone(events)
	Sort(sorted)
	return Segments(Dedup(sorted), now)
}

// Current returns the open segment of a history, if there is one.
func Current(segs []Segment) (Segment, bool) {
	if len(segs) == 0 {
		return Segment{}, false
	}
	return segs[len(segs)-1], true
}
