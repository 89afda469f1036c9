package ports

import (
	"context"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/modbus"
)

// Modbus maps the port set onto a remote I/O module.
type Modbus struct {
	client *modbus.IOClient
	m      config.ModbusIOMap

	// last values written; writes of an unchanged value are skipped
	lastPWM    *uint16
	lastStatus *bool
}

func NewModbus(cfg *config.ModbusConfig) (*Modbus, error) {
	client, err := modbus.NewIOClient(cfg)
	if err != nil {
		return nil, err
	}
	m := cfg.Map
	if m == nil {
		m = config.DefaultModbusIOMap()
	}
	return &Modbus{client: client, m: *m}, nil
}

func (p *Modbus) ReadAnalog(ctx context.Context, ch AnalogChannel) (uint16, error) {
	switch ch {
	case LightSensor:
		return p.client.ReadInputRegister(ctx, p.m.LDRRegister)
	case Potentiometer:
		return p.client.ReadInputRegister(ctx, p.m.PotRegister)
	default:
		return 0, ErrUnknownChannel
	}
}

func (p *Modbus) ReadDigital(ctx context.Context, in DigitalInput) (bool, error) {
	switch in {
	case ToggleButton:
		return p.client.ReadDiscreteInput(ctx, p.m.ToggleButtonInput)
	case ModeButton:
		return p.client.ReadDiscreteInput(ctx, p.m.ModeButtonInput)
	default:
		return false, ErrUnknownChannel
	}
}

func (p *Modbus) WritePWM(ctx context.Context, level uint16) error {
	if p.lastPWM != nil && *p.lastPWM == level {
		return nil
	}
	if err := p.client.WriteSingleRegister(ctx, p.m.PWMRegister, level); err != nil {
		p.lastPWM = nil
		return err
	}
	p.lastPWM = &level
	return nil
}

func (p *Modbus) WriteStatus(ctx context.Context, on bool) error {
	if p.lastStatus != nil && *p.lastStatus == on {
		return nil
	}
	if err := p.client.WriteSingleCoil(ctx, p.m.StatusCoil, on); err != nil {
		p.lastStatus = nil
		return err
	}
	p.lastStatus = &on
	return nil
}

func (p *Modbus) Close() error {
	return p.client.Close()
}
