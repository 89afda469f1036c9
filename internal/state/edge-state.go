// Package state holds the controller's process-wide state. It is owned by
// the control loop and mutated only from there.
package state

import (
	"errors"
	"fmt"
)

type Mode uint8

const (
	Automatic Mode = iota
	Manual
)

func (m Mode) String() string {
	switch m {
	case Automatic:
		return "AUTO"
	case Manual:
		return "MANUAL"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Other returns the mode the mode button switches to.
func (m Mode) Other() Mode {
	if m == Automatic {
		return Manual
	}
	return Automatic
}

// Source is the authority that last claimed the commanded brightness.
type Source uint8

const (
	Remote Source = iota
	LocalPotentiometer
)

func (s Source) String() string {
	switch s {
	case Remote:
		return "remote"
	case LocalPotentiometer:
		return "pot"
	default:
		return fmt.Sprintf("Source(%d)", uint8(s))
	}
}

type State struct {
	Mode Mode
	// Toggle is the manual on/off switch; always false in Automatic.
	Toggle bool

	Source Source
	// RemoteLevel is the commanded level; mirrors the pot while the pot owns brightness.
	RemoteLevel uint16
	LastPot     uint16
	HasLastPot  bool

	ToggleButton Edge
	ModeButton   Edge

	// DrivenLevel is the PWM level written in the last cycle.
	DrivenLevel uint16
	LEDOn       bool
}

func New(initialRemoteLevel uint16) *State {
	return &State{
		Mode:        Automatic,
		Source:      Remote,
		RemoteLevel: initialRemoteLevel,
	}
}

// SetMode switches the operating mode. Entering or re-asserting Automatic
// always clears the manual toggle. Reports whether the mode changed.
func (s *State) SetMode(m Mode) bool {
	changed := s.Mode != m
	s.Mode = m
	if m == Automatic {
		s.Toggle = false
	}
	return changed
}

// SetToggle applies a manual toggle request. It is ignored in Automatic.
func (s *State) SetToggle(on bool) bool {
	if s.Mode != Manual {
		return false
	}
	s.Toggle = on
	return true
}

// Level is the commanded brightness for the live pot reading.
func (s *State) Level(pot uint16) uint16 {
	switch s.Source {
	case Remote:
		return s.RemoteLevel
	case LocalPotentiometer:
		return pot
	default:
		panic(fmt.Sprintf("unknown brightness source %d", s.Source))
	}
}

var (
	ErrToggleInAuto = errors.New("toggle set while automatic")
	ErrMirrorBroken = errors.New("remote level does not mirror the pot claim")
	ErrLEDFlagStale = errors.New("led flag disagrees with driven level")
)

// Check verifies the state invariants; used by tests and debug logging.
func (s *State) Check() error {
	var errs []error
	if s.Mode == Automatic && s.Toggle {
		errs = append(errs, ErrToggleInAuto)
	}
	if s.Source == LocalPotentiometer && (!s.HasLastPot || s.RemoteLevel != s.LastPot) {
		errs = append(errs, ErrMirrorBroken)
	}
	if s.LEDOn != (s.DrivenLevel > 0) {
		errs = append(errs, ErrLEDFlagStale)
	}
	return errors.Join(errs...)
}
