package control

import (
	"context"
	"errors"
	"fmt"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/logging"
	"github.com/fisaks/lightedge/internal/state"
	"github.com/fisaks/lightedge/internal/timex"
	"github.com/fisaks/lightedge/internal/util"
)

type FeedPublisher interface {
	PublishFeed(ctx context.Context, topic, value string) error
}

// Telemetry publishes the status feeds on a fixed tick interval.
type Telemetry struct {
	pub      FeedPublisher
	feeds    config.FeedConfig
	scale    DutyScale
	interval uint32
	lastSent uint32
	force    bool
}

func NewTelemetry(pub FeedPublisher, feeds config.FeedConfig, scale DutyScale, intervalMs uint32) *Telemetry {
	return &Telemetry{pub: pub, feeds: feeds, scale: scale, interval: intervalMs}
}

// ForceNext makes the next MaybePublish fire regardless of the interval.
func (t *Telemetry) ForceNext() { t.force = true }

func (t *Telemetry) Due(now uint32) bool {
	return t.force || timex.Elapsed(now, t.lastSent) >= t.interval
}

// MaybePublish publishes when due and reports whether it attempted to.
// A nil ambient means the sensor could not be read this cycle.
func (t *Telemetry) MaybePublish(ctx context.Context, s *state.State, ambient *uint16, now uint32) bool {
	if !t.Due(now) {
		return false
	}
	_ = t.Publish(ctx, s, ambient, now)
	return true
}

// Publish attempts every feed; a failing feed never stops the others. The
// next interval starts at this attempt whatever the outcome.
func (t *Telemetry) Publish(ctx context.Context, s *state.State, ambient *uint16, now uint32) error {
	percent := t.scale.Percent(s.RemoteLevel)
	var ldr any = "unavailable"
	if ambient != nil {
		ldr = *ambient
	}
	logging.Info("Telemetry", "ldr", ldr, "brightness", percent, "mode", s.Mode.String(), "source", s.Source.String())

	type field struct {
		name, topic, value string
	}
	fields := make([]field, 0, 5)
	if ambient != nil {
		fields = append(fields, field{"ldr", t.feeds.LDR, util.Itoa(*ambient)})
	}
	// remote-set brightness is not echoed back to its origin
	if s.Source == state.LocalPotentiometer {
		fields = append(fields, field{"pot", t.feeds.Pot, util.Itoa(percent)})
	}
	fields = append(fields,
		field{"ledStatus", t.feeds.LEDStatus, util.OneZero(s.LEDOn)},
		field{"button", t.feeds.Button, util.OnOff(s.Toggle)},
		field{"resetButton", t.feeds.ResetButton, util.OneZero(s.Mode == state.Automatic)},
	)

	var errs []error
	for _, f := range fields {
		if err := t.pub.PublishFeed(ctx, f.topic, f.value); err != nil {
			publishErrors(f.name).Inc()
			logging.Error("Failed to publish feed", "feed", f.name, "topic", f.topic, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
		}
	}

	t.lastSent = now
	t.force = false
	telemetryCycles.Inc()
	if len(errs) == 0 {
		logging.Debug("Published sensor data", "feeds", len(fields))
	}
	return errors.Join(errs...)
}
