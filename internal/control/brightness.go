package control

import (
	"github.com/fisaks/lightedge/internal/logging"
	"github.com/fisaks/lightedge/internal/mathx"
	"github.com/fisaks/lightedge/internal/state"
)

// Arbiter decides which authority owns brightness and what the LED is
// driven at for the current mode.
type Arbiter struct {
	// Tolerance is the pot deadband; a move must exceed it to claim brightness.
	Tolerance uint16
	// DarkThreshold: ambient strictly below it counts as dark.
	DarkThreshold int
}

// Resolve runs one arbitration step and returns the PWM level to drive.
func (a Arbiter) Resolve(s *state.State, pot, ambient uint16) uint16 {
	if !s.HasLastPot || mathx.AbsDiff(pot, s.LastPot) > a.Tolerance {
		if s.Source != state.LocalPotentiometer {
			logging.Info("Potentiometer claimed brightness", "pot", pot)
		}
		s.Source = state.LocalPotentiometer
		s.LastPot = pot
		s.HasLastPot = true
		s.RemoteLevel = pot
	}

	candidate := s.Level(pot)

	var driven uint16
	switch s.Mode {
	case state.Automatic:
		if int(ambient) < a.DarkThreshold {
			driven = candidate
		}
	case state.Manual:
		if s.Toggle {
			driven = candidate
		}
	}

	s.DrivenLevel = driven
	s.LEDOn = driven > 0
	return driven
}
