//go:build linux

package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/logging"
	"github.com/warthog618/go-gpiocdev"
)

const gpioConsumer = "lightedge"

// gpioOverlay serves the buttons and the status indicator from local GPIO
// lines and delegates the analog side and PWM to the base port set.
type gpioOverlay struct {
	Ports
	chip   *gpiocdev.Chip
	toggle *gpiocdev.Line
	mode   *gpiocdev.Line
	status *gpiocdev.Line
}

// buttonBias holds a released button at its idle level: pulled up for
// active-low wiring, pulled down otherwise.
func buttonBias(activeLow bool) gpiocdev.LineReqOption {
	if activeLow {
		return gpiocdev.WithPullUp
	}
	return gpiocdev.WithPullDown
}

func WithGPIO(base Ports, cfg *config.GPIOConfig, activeLow bool) (Ports, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip, gpiocdev.WithConsumer(gpioConsumer))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Chip, err)
	}
	o := &gpioOverlay{Ports: base, chip: chip}

	input := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		buttonBias(activeLow),
		gpiocdev.WithDebounce(5 * time.Millisecond),
	}
	if o.toggle, err = chip.RequestLine(cfg.ToggleButtonLine, input...); err != nil {
		o.closeLines()
		return nil, fmt.Errorf("request toggle button line %d: %w", cfg.ToggleButtonLine, err)
	}
	if o.mode, err = chip.RequestLine(cfg.ModeButtonLine, input...); err != nil {
		o.closeLines()
		return nil, fmt.Errorf("request mode button line %d: %w", cfg.ModeButtonLine, err)
	}
	if o.status, err = chip.RequestLine(cfg.StatusLine, gpiocdev.AsOutput(0)); err != nil {
		o.closeLines()
		return nil, fmt.Errorf("request status line %d: %w", cfg.StatusLine, err)
	}
	logging.Info("GPIO lines requested", "chip", cfg.Chip,
		"toggleButton", cfg.ToggleButtonLine, "modeButton", cfg.ModeButtonLine, "status", cfg.StatusLine)
	return o, nil
}

func (o *gpioOverlay) ReadDigital(_ context.Context, in DigitalInput) (bool, error) {
	var l *gpiocdev.Line
	switch in {
	case ToggleButton:
		l = o.toggle
	case ModeButton:
		l = o.mode
	default:
		return false, ErrUnknownChannel
	}
	v, err := l.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (o *gpioOverlay) WriteStatus(_ context.Context, on bool) error {
	v := 0
	if on {
		v = 1
	}
	return o.status.SetValue(v)
}

func (o *gpioOverlay) closeLines() error {
	var errs []error
	for _, l := range []*gpiocdev.Line{o.toggle, o.mode, o.status} {
		if l != nil {
			errs = append(errs, l.Close())
		}
	}
	if o.chip != nil {
		errs = append(errs, o.chip.Close())
	}
	return errors.Join(errs...)
}

func (o *gpioOverlay) Close() error {
	return errors.Join(o.closeLines(), o.Ports.Close())
}
