package control

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

var (
	telemetryCycles = metrics.NewCounter(`lightedge_telemetry_cycles_total`)
	ledOnSeconds    = metrics.NewSummary(`lightedge_led_on_seconds`)
)

func commandCounter(kind string, accepted bool) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`lightedge_commands_total{kind=%q,accepted="%t"}`, kind, accepted))
}

func publishErrors(feed string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`lightedge_publish_errors_total{feed=%q}`, feed))
}

func portErrors(step string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`lightedge_port_errors_total{step=%q}`, step))
}

// ledSession times how long the LED stays lit in one go.
type ledSession struct {
	since time.Time
	on    bool
}

func (l *ledSession) observe(on bool, now time.Time) {
	switch {
	case on && !l.on:
		l.since = now
	case !on && l.on:
		ledOnSeconds.Update(now.Sub(l.since).Seconds())
	}
	l.on = on
}
