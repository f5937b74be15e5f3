package clock

import "time"

// Clock supplies the current instant. Services take one so tests can pin "now".
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant.
type Fixed struct {
	At time.Time
}

func NewFixed(at time.Time) *Fixed {
	return &Fixed{At: at}
}

func (f *Fixed) Now() time.Time {
	return f.At
}

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.At = f.At.Add(d)
}
