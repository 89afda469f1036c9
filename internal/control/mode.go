package control

import (
	"context"

	"github.com/fisaks/lightedge/internal/logging"
	"github.com/fisaks/lightedge/internal/state"
	"github.com/fisaks/lightedge/internal/util"
)

// Indicator shows the operating mode: on for Automatic, off for Manual.
type Indicator func(ctx context.Context, automatic bool)

// ModeMachine owns mode and manual-toggle transitions from both the
// buttons and remote commands.
type ModeMachine struct {
	indicator Indicator
}

func NewModeMachine(indicator Indicator) *ModeMachine {
	if indicator == nil {
		indicator = func(context.Context, bool) {}
	}
	return &ModeMachine{indicator: indicator}
}

// OnButtons takes the logical (pressed = true) level of both buttons.
// The toggle button is evaluated against the mode in force before the mode
// button of the same sample is applied.
func (m *ModeMachine) OnButtons(ctx context.Context, s *state.State, togglePressed, modePressed bool) {
	if s.ToggleButton.Rising(togglePressed) && s.Mode == state.Manual {
		s.SetToggle(!s.Toggle)
		logging.Info("Manual LED toggled", "toggle", util.OnOff(s.Toggle), "origin", "button")
	}
	if s.ModeButton.Rising(modePressed) {
		m.SetMode(ctx, s, s.Mode.Other(), "button")
	}
}

// SetMode applies a mode and drives the indicator on an actual change.
func (m *ModeMachine) SetMode(ctx context.Context, s *state.State, mode state.Mode, origin string) {
	if !s.SetMode(mode) {
		return
	}
	logging.Info("Mode changed", "mode", mode.String(), "origin", origin)
	m.indicator(ctx, mode == state.Automatic)
}

// SetToggle applies a manual on/off request; it is dropped in Automatic.
// It reports whether the request was applied.
func (m *ModeMachine) SetToggle(s *state.State, on bool, origin string) bool {
	if !s.SetToggle(on) {
		logging.Debug("Toggle ignored in automatic mode", "toggle", util.OnOff(on), "origin", origin)
		return false
	}
	logging.Info("Manual LED set", "toggle", util.OnOff(on), "origin", origin)
	return true
}
