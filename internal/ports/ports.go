// Package ports is the hardware-facing capability layer: two analog
// channels, two momentary buttons, one PWM output and one status output.
package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/fisaks/lightedge/internal/config"
)

type AnalogChannel int

const (
	LightSensor AnalogChannel = iota
	Potentiometer
)

func (c AnalogChannel) String() string {
	switch c {
	case LightSensor:
		return "ldr"
	case Potentiometer:
		return "pot"
	default:
		return fmt.Sprintf("analog(%d)", int(c))
	}
}

type DigitalInput int

const (
	ToggleButton DigitalInput = iota
	ModeButton
)

func (d DigitalInput) String() string {
	switch d {
	case ToggleButton:
		return "toggleButton"
	case ModeButton:
		return "modeButton"
	default:
		return fmt.Sprintf("digital(%d)", int(d))
	}
}

var ErrUnknownChannel = errors.New("unknown channel")

// Ports reads raw levels; button polarity is applied by the caller.
type Ports interface {
	ReadAnalog(ctx context.Context, ch AnalogChannel) (uint16, error)
	ReadDigital(ctx context.Context, in DigitalInput) (bool, error)
	WritePWM(ctx context.Context, level uint16) error
	WriteStatus(ctx context.Context, on bool) error
	Close() error
}

// New builds the configured backend and applies the optional GPIO overlay.
func New(cfg *config.IOConfig) (Ports, error) {
	var base Ports
	switch cfg.Driver {
	case "sim":
		base = NewSim(cfg.Sim.LDR, cfg.Sim.Pot, cfg.ActiveLow())
	case "modbus":
		p, err := NewModbus(cfg.Modbus)
		if err != nil {
			return nil, err
		}
		base = p
	default:
		return nil, fmt.Errorf("unsupported io driver: %s", cfg.Driver)
	}

	if cfg.GPIO == nil {
		return base, nil
	}
	p, err := WithGPIO(base, cfg.GPIO, cfg.ActiveLow())
	if err != nil {
		_ = base.Close()
		return nil, fmt.Errorf("gpio overlay: %w", err)
	}
	return p, nil
}
