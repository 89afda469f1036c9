package control

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/logging"
	"github.com/fisaks/lightedge/internal/messaging"
	"github.com/fisaks/lightedge/internal/ports"
	"github.com/fisaks/lightedge/internal/state"
	"github.com/fisaks/lightedge/internal/timex"
)

// FeedBroker is what the loop needs from the messaging layer.
type FeedBroker interface {
	FeedPublisher
	Inbox() *messaging.Inbox
	TakeRefresh() bool
}

const shutdownTimeout = 2 * time.Second

// Controller runs the control loop. The state is owned by the goroutine
// calling Step or Run.
type Controller struct {
	ports  ports.Ports
	broker FeedBroker
	clock  timex.Clock

	state     *state.State
	arbiter   Arbiter
	modes     *ModeMachine
	commands  *CommandHandler
	telemetry *Telemetry

	activeLow bool
	loopDelay time.Duration

	// per-step throttles so a dead module does not flood the log
	throttles map[string]*rate.Sometimes
	led       ledSession
}

func New(cfg *config.EdgeConfig, p ports.Ports, broker FeedBroker, clock timex.Clock) *Controller {
	ctl := cfg.Control
	scale := DutyScale{Min: uint16(*ctl.MinDuty), Max: uint16(ctl.MaxDuty)}

	c := &Controller{
		ports:     p,
		broker:    broker,
		clock:     clock,
		state:     state.New(uint16(*ctl.InitialBrightness)),
		arbiter:   Arbiter{Tolerance: uint16(*ctl.PotTolerance), DarkThreshold: *ctl.DarkThreshold},
		telemetry: NewTelemetry(broker, cfg.Feeds, scale, uint32(ctl.PublishIntervalMs)),
		activeLow: cfg.IO.ActiveLow(),
		loopDelay: ctl.LoopDelay(),
		throttles: make(map[string]*rate.Sometimes),
	}
	c.modes = NewModeMachine(c.indicate)
	c.commands = NewCommandHandler(cfg.Feeds, c.modes, scale)
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() state.State { return *c.state }

func (c *Controller) indicate(ctx context.Context, automatic bool) {
	if err := c.ports.WriteStatus(ctx, automatic); err != nil {
		c.logThrottled("status", "Failed to write status indicator", err)
	}
}

func (c *Controller) logThrottled(step, msg string, err error) {
	portErrors(step).Inc()
	st, ok := c.throttles[step]
	if !ok {
		st = &rate.Sometimes{First: 1, Interval: 10 * time.Second}
		c.throttles[step] = st
	}
	st.Do(func() { logging.Error(msg, "step", step, "error", err) })
}

// Step runs one full cycle without sleeping.
func (c *Controller) Step(ctx context.Context) {
	c.broker.Inbox().Drain(func(m messaging.Message) {
		c.commands.Handle(ctx, c.state, m)
	})
	if c.broker.TakeRefresh() {
		c.telemetry.ForceNext()
	}

	c.sampleButtons(ctx)
	c.indicate(ctx, c.state.Mode == state.Automatic)

	ambient := c.drive(ctx)
	c.telemetry.MaybePublish(ctx, c.state, ambient, c.clock.Ticks())
}

// drive runs arbitration and writes the PWM. It returns the ambient reading,
// nil when the light sensor could not be read; arbitration then keeps the
// previous output.
func (c *Controller) drive(ctx context.Context) *uint16 {
	ambient, err := c.ports.ReadAnalog(ctx, ports.LightSensor)
	if err != nil {
		c.logThrottled("ldr", "Failed to read light sensor", err)
		return nil
	}
	pot, err := c.ports.ReadAnalog(ctx, ports.Potentiometer)
	if err != nil {
		c.logThrottled("pot", "Failed to read potentiometer", err)
		return &ambient
	}
	level := c.arbiter.Resolve(c.state, pot, ambient)
	if err := c.ports.WritePWM(ctx, level); err != nil {
		c.logThrottled("pwm", "Failed to write PWM", err)
	}
	c.led.observe(c.state.LEDOn, time.Now())
	return &ambient
}

func (c *Controller) sampleButtons(ctx context.Context) {
	toggle, err := c.pressed(ctx, ports.ToggleButton)
	if err != nil {
		c.logThrottled("buttons", "Failed to read button", err)
		return
	}
	mode, err := c.pressed(ctx, ports.ModeButton)
	if err != nil {
		c.logThrottled("buttons", "Failed to read button", err)
		return
	}
	c.modes.OnButtons(ctx, c.state, toggle, mode)
}

func (c *Controller) pressed(ctx context.Context, in ports.DigitalInput) (bool, error) {
	raw, err := c.ports.ReadDigital(ctx, in)
	if err != nil {
		return false, err
	}
	return raw != c.activeLow, nil
}

// Run steps until ctx is cancelled, then drives the outputs to a safe state.
func (c *Controller) Run(ctx context.Context) {
	logging.Info("Control loop started", "loopDelay", c.loopDelay, "mode", c.state.Mode.String())
	c.indicate(ctx, c.state.Mode == state.Automatic)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Shutdown()
			return
		case <-timer.C:
		}
		c.Step(ctx)
		timer.Reset(c.loopDelay)
	}
}

// Shutdown turns the LED and the status indicator off. It uses its own
// deadline since the loop context is already cancelled.
func (c *Controller) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.ports.WritePWM(ctx, 0); err != nil {
		logging.Warn("Failed to switch LED off", "error", err)
	}
	if err := c.ports.WriteStatus(ctx, false); err != nil {
		logging.Warn("Failed to switch status indicator off", "error", err)
	}
	c.state.DrivenLevel = 0
	c.state.LEDOn = false
	c.led.observe(false, time.Now())
	logging.Info("Control loop stopped")
}
