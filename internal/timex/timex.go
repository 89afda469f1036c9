package timex

import "time"

// Clock yields a free-running millisecond tick. It wraps after ~49.7 days;
// callers compare ticks with modular subtraction only.
type Clock interface {
	Ticks() uint32
}

type monotonic struct {
	start time.Time
}

// NewMonotonic returns a Clock backed by the runtime's monotonic reading,
// so wall-clock steps (NTP, manual set) do not move it.
func NewMonotonic() Clock {
	return monotonic{start: time.Now()}
}

func (m monotonic) Ticks() uint32 {
	return uint32(time.Since(m.start).Milliseconds())
}

// Elapsed returns now-since in modular uint32 arithmetic.
func Elapsed(now, since uint32) uint32 {
	return now - since
}
