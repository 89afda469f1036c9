package control

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fisaks/lightedge/internal/messaging"
	"github.com/fisaks/lightedge/internal/state"
)

func newTestCommands() (*CommandHandler, *indicatorLog) {
	ind := &indicatorLog{}
	return NewCommandHandler(testFeeds, NewModeMachine(ind.indicate), DefaultDutyScale), ind
}

func handle(h *CommandHandler, s *state.State, topic, payload string) {
	h.Handle(context.Background(), s, messaging.Message{Topic: topic, Payload: []byte(payload)})
}

func TestCommands_Brightness(t *testing.T) {
	h, _ := newTestCommands()
	s := state.New(65535)
	s.Source = state.LocalPotentiometer
	s.HasLastPot, s.LastPot, s.RemoteLevel = true, 1000, 1000

	handle(h, s, testFeeds.Pot, "abc")
	assert.Equal(t, state.LocalPotentiometer, s.Source)
	assert.Equal(t, uint16(1000), s.RemoteLevel)

	handle(h, s, testFeeds.Pot, "50")
	assert.Equal(t, state.Remote, s.Source)
	assert.Equal(t, uint16(32959), s.RemoteLevel)

	handle(h, s, testFeeds.Pot, " 100\n")
	assert.Equal(t, uint16(65535), s.RemoteLevel)

	handle(h, s, testFeeds.Pot, "-20")
	assert.Equal(t, uint16(384), s.RemoteLevel)
}

func TestCommands_BrightnessOutOfRangeClamps(t *testing.T) {
	h, _ := newTestCommands()
	s := state.New(1000)

	handle(h, s, testFeeds.Pot, "99999999999999999999")
	assert.Equal(t, uint16(65535), s.RemoteLevel)
	assert.Equal(t, state.Remote, s.Source)

	handle(h, s, testFeeds.Pot, "-99999999999999999999")
	assert.Equal(t, uint16(384), s.RemoteLevel)

	handle(h, s, testFeeds.Pot, "1e3")
	assert.Equal(t, uint16(384), s.RemoteLevel, "not an integer, discarded")
}

func TestCommands_ToggleIgnoredInAutomatic(t *testing.T) {
	h, _ := newTestCommands()
	s := state.New(65535)
	before := *s

	handle(h, s, testFeeds.Button, "ON")
	assert.Equal(t, before, *s)
}

func TestCommands_ToggleInManual(t *testing.T) {
	h, _ := newTestCommands()
	s := state.New(65535)
	s.SetMode(state.Manual)

	handle(h, s, testFeeds.Button, "ON")
	assert.True(t, s.Toggle)
	handle(h, s, testFeeds.Button, "bogus")
	assert.True(t, s.Toggle)
	handle(h, s, testFeeds.Button, "OFF")
	assert.False(t, s.Toggle)
}

func TestCommands_Mode(t *testing.T) {
	h, ind := newTestCommands()
	s := state.New(65535)

	handle(h, s, testFeeds.ResetButton, "0")
	assert.Equal(t, state.Manual, s.Mode)
	handle(h, s, testFeeds.Button, "ON")
	assert.True(t, s.Toggle)

	handle(h, s, testFeeds.ResetButton, "2")
	assert.Equal(t, state.Manual, s.Mode)

	handle(h, s, testFeeds.ResetButton, "1")
	assert.Equal(t, state.Automatic, s.Mode)
	assert.False(t, s.Toggle)
	assert.Equal(t, []bool{false, true}, ind.calls)
}

func TestCommands_KeepPotClaim(t *testing.T) {
	h, _ := newTestCommands()
	s := state.New(65535)
	s.Source = state.LocalPotentiometer
	s.HasLastPot, s.LastPot, s.RemoteLevel = true, 1000, 1000

	handle(h, s, testFeeds.ResetButton, "0")
	handle(h, s, testFeeds.Button, "ON")
	assert.Equal(t, state.LocalPotentiometer, s.Source)
}

func TestCommands_UnknownTopic(t *testing.T) {
	h, _ := newTestCommands()
	s := state.New(65535)
	before := *s

	handle(h, s, "me/feeds/other", "1")
	handle(h, s, testFeeds.LDR, "1")
	assert.Equal(t, before, *s)
}

func TestCommands_CountsRejected(t *testing.T) {
	h, _ := newTestCommands()
	s := state.New(65535)
	rejected := commandCounter("brightness", false)
	before := rejected.Get()

	handle(h, s, testFeeds.Pot, "half")
	assert.Equal(t, before+1, rejected.Get())
}
