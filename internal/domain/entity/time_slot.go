package entity

import "time"

// TimeSlot is a half-open interval [Start, End).
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewTimeSlot(start time.Time, duration time.Duration) TimeSlot {
	return TimeSlot{Start: start, End: start.Add(duration)}
}

// Overlaps is true iff s.Start < o.End and o.Start < s.End. Back-to-back
// slots do not overlap.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// IsValid reports whether End is strictly after Start
func (s TimeSlot) IsValid() bool {
	return s.End.After(s.Start)
}

func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// OverlapsAny reports whether s overlaps any of the given slots
func (s TimeSlot) OverlapsAny(others []TimeSlot) bool {
	for _, o := range others {
		if s.Overlaps(o) {
			return true
		}
	}
	return false
}
