package control

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisaks/lightedge/internal/state"
)

func TestTelemetry_Interval(t *testing.T) {
	b := newFakeBroker()
	tel := NewTelemetry(b, testFeeds, DefaultDutyScale, 12000)
	s := state.New(65535)
	ctx := context.Background()

	assert.False(t, tel.MaybePublish(ctx, s, sample(100), 0))
	assert.False(t, tel.MaybePublish(ctx, s, sample(100), 11999))
	assert.True(t, tel.MaybePublish(ctx, s, sample(100), 12000))
	assert.False(t, tel.MaybePublish(ctx, s, sample(100), 12001))
	assert.True(t, tel.MaybePublish(ctx, s, sample(100), 24000))
}

func TestTelemetry_Wraparound(t *testing.T) {
	b := newFakeBroker()
	tel := NewTelemetry(b, testFeeds, DefaultDutyScale, 12000)
	s := state.New(65535)
	ctx := context.Background()

	require.NoError(t, tel.Publish(ctx, s, sample(100), 0xFFFFF000))
	assert.False(t, tel.Due(0x00000F00))
	assert.True(t, tel.Due(0x00002000))
}

func TestTelemetry_ForceNext(t *testing.T) {
	b := newFakeBroker()
	tel := NewTelemetry(b, testFeeds, DefaultDutyScale, 12000)
	s := state.New(65535)

	tel.ForceNext()
	assert.True(t, tel.MaybePublish(context.Background(), s, sample(100), 5))
	assert.False(t, tel.Due(6))
}

func TestTelemetry_Fields(t *testing.T) {
	b := newFakeBroker()
	tel := NewTelemetry(b, testFeeds, DefaultDutyScale, 12000)
	s := state.New(65535)
	s.SetMode(state.Manual)
	s.SetToggle(true)
	s.DrivenLevel, s.LEDOn = 65535, true

	require.NoError(t, tel.Publish(context.Background(), s, sample(4242), 0))

	v, _ := b.value(testFeeds.LDR)
	assert.Equal(t, "4242", v)
	v, _ = b.value(testFeeds.LEDStatus)
	assert.Equal(t, "1", v)
	v, _ = b.value(testFeeds.Button)
	assert.Equal(t, "ON", v)
	v, _ = b.value(testFeeds.ResetButton)
	assert.Equal(t, "0", v)
	_, ok := b.value(testFeeds.Pot)
	assert.False(t, ok, "remote brightness is not published back")
}

func TestTelemetry_PotOnlyWhenLocal(t *testing.T) {
	b := newFakeBroker()
	tel := NewTelemetry(b, testFeeds, DefaultDutyScale, 12000)
	s := state.New(65535)
	s.Source = state.LocalPotentiometer
	s.HasLastPot, s.LastPot, s.RemoteLevel = true, 384, 384

	require.NoError(t, tel.Publish(context.Background(), s, sample(100), 0))
	v, ok := b.value(testFeeds.Pot)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	s.HasLastPot, s.LastPot, s.RemoteLevel = true, 65535, 65535
	require.NoError(t, tel.Publish(context.Background(), s, sample(100), 1))
	v, _ = b.value(testFeeds.Pot)
	assert.Equal(t, "100", v)
}

func TestTelemetry_PublishIsolation(t *testing.T) {
	b := newFakeBroker()
	b.fail[testFeeds.LDR] = true
	tel := NewTelemetry(b, testFeeds, DefaultDutyScale, 12000)
	s := state.New(65535)

	err := tel.Publish(context.Background(), s, sample(100), 12000)
	require.ErrorIs(t, err, errBrokerDown)

	assert.Contains(t, b.attempt, testFeeds.LEDStatus)
	assert.Contains(t, b.attempt, testFeeds.Button)
	assert.Contains(t, b.attempt, testFeeds.ResetButton)
	assert.False(t, tel.Due(12001), "a failed cycle still restarts the interval")
}

func TestTelemetry_MissingAmbientSkipsOnlyLDR(t *testing.T) {
	b := newFakeBroker()
	tel := NewTelemetry(b, testFeeds, DefaultDutyScale, 12000)
	s := state.New(65535)

	require.NoError(t, tel.Publish(context.Background(), s, nil, 12000))
	assert.Equal(t, []string{testFeeds.LEDStatus, testFeeds.Button, testFeeds.ResetButton}, b.attempt)
	assert.False(t, tel.Due(12001))
}
