package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	s := New(65535)
	assert.Equal(t, Automatic, s.Mode)
	assert.False(t, s.Toggle)
	assert.Equal(t, Remote, s.Source)
	assert.Equal(t, uint16(65535), s.RemoteLevel)
	assert.False(t, s.HasLastPot)
	assert.NoError(t, s.Check())
}

func TestSetMode_AutoClearsToggle(t *testing.T) {
	s := New(0)
	assert.True(t, s.SetMode(Manual))
	assert.True(t, s.SetToggle(true))

	assert.True(t, s.SetMode(Automatic))
	assert.False(t, s.Toggle)

	// re-asserting auto is not a change but still clears
	s.Toggle = true
	assert.False(t, s.SetMode(Automatic))
	assert.False(t, s.Toggle)
}

func TestSetMode_ManualKeepsToggle(t *testing.T) {
	s := New(0)
	s.SetMode(Manual)
	s.SetToggle(true)
	assert.False(t, s.SetMode(Manual))
	assert.True(t, s.Toggle)
}

func TestSetToggle_IgnoredInAuto(t *testing.T) {
	s := New(0)
	assert.False(t, s.SetToggle(true))
	assert.False(t, s.Toggle)
}

func TestLevel(t *testing.T) {
	s := New(1000)
	assert.Equal(t, uint16(1000), s.Level(5))
	s.Source = LocalPotentiometer
	assert.Equal(t, uint16(5), s.Level(5))
}

func TestCheck(t *testing.T) {
	s := New(0)
	s.Toggle = true
	s.Source = LocalPotentiometer
	s.LEDOn = true

	err := s.Check()
	assert.ErrorIs(t, err, ErrToggleInAuto)
	assert.ErrorIs(t, err, ErrMirrorBroken)
	assert.ErrorIs(t, err, ErrLEDFlagStale)
}

func TestEdge_FiresOncePerPress(t *testing.T) {
	var e Edge
	levels := []bool{false, true, true, true, false, true}
	var fired []bool
	for _, l := range levels {
		fired = append(fired, e.Rising(l))
	}
	assert.Equal(t, []bool{false, true, false, false, false, true}, fired)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "AUTO", Automatic.String())
	assert.Equal(t, "MANUAL", Manual.String())
	assert.Equal(t, Manual, Automatic.Other())
	assert.Equal(t, Automatic, Manual.Other())
	assert.Equal(t, "remote", Remote.String())
	assert.Equal(t, "pot", LocalPotentiometer.String())
}
