package control

import "github.com/fisaks/lightedge/internal/mathx"

// DutyScale is the affine map between dashboard percentages and PWM duty.
// Min is the lowest duty the LED visibly lights at, so 0% and 1% both sit
// near it rather than at a dark 0.
type DutyScale struct {
	Min uint16
	Max uint16
}

var DefaultDutyScale = DutyScale{Min: 384, Max: 65535}

// Level maps a percentage (clamped to 0..100) to a duty, truncating.
func (d DutyScale) Level(percent int) uint16 {
	p := mathx.Clamp(percent, 0, 100)
	span := int(d.Max) - int(d.Min)
	return uint16(p*span/100 + int(d.Min))
}

// Percent maps a duty back to a percentage clamped to 1..100. The floor
// is 1, never 0, even for duties below Min.
func (d DutyScale) Percent(level uint16) int {
	span := int(d.Max) - int(d.Min)
	p := (int(level) - int(d.Min)) * 100 / span
	return mathx.Clamp(p, 1, 100)
}
