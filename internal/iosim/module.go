// Package iosim models the remote I/O module on top of a Modbus slave's
// register tables, for the bench simulators.
package iosim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/logging"
	"github.com/fisaks/lightedge/internal/ports"
)

// Registers are the slave's tables; the slices are shared with the server.
type Registers struct {
	Coils            []byte
	DiscreteInputs   []byte
	HoldingRegisters []uint16
	InputRegisters   []uint16
}

type Snapshot struct {
	LDR          uint16 `json:"ldr"`
	Pot          uint16 `json:"pot"`
	ToggleButton bool   `json:"toggleButton"`
	ModeButton   bool   `json:"modeButton"`
	PWM          uint16 `json:"pwm"`
	Status       bool   `json:"status"`
}

type Module struct {
	mu        sync.Mutex
	regs      Registers
	m         config.ModbusIOMap
	activeLow bool
}

// New seeds the analog inputs and releases both buttons.
func New(regs Registers, m *config.ModbusIOMap, activeLow bool, ldr, pot uint16) (*Module, error) {
	if m == nil {
		m = config.DefaultModbusIOMap()
	}
	mod := &Module{regs: regs, m: *m, activeLow: activeLow}
	for _, a := range []uint16{m.LDRRegister, m.PotRegister} {
		if int(a) >= len(regs.InputRegisters) {
			return nil, fmt.Errorf("input register %d out of range", a)
		}
	}
	for _, a := range []uint16{m.ToggleButtonInput, m.ModeButtonInput} {
		if int(a) >= len(regs.DiscreteInputs) {
			return nil, fmt.Errorf("discrete input %d out of range", a)
		}
	}
	if int(m.PWMRegister) >= len(regs.HoldingRegisters) || int(m.StatusCoil) >= len(regs.Coils) {
		return nil, fmt.Errorf("output address out of range")
	}

	_ = mod.SetAnalog(ports.LightSensor, ldr)
	_ = mod.SetAnalog(ports.Potentiometer, pot)
	_ = mod.SetButton(ports.ToggleButton, false)
	_ = mod.SetButton(ports.ModeButton, false)
	return mod, nil
}

func (m *Module) analogAddr(ch ports.AnalogChannel) (uint16, error) {
	switch ch {
	case ports.LightSensor:
		return m.m.LDRRegister, nil
	case ports.Potentiometer:
		return m.m.PotRegister, nil
	}
	return 0, ports.ErrUnknownChannel
}

func (m *Module) buttonAddr(in ports.DigitalInput) (uint16, error) {
	switch in {
	case ports.ToggleButton:
		return m.m.ToggleButtonInput, nil
	case ports.ModeButton:
		return m.m.ModeButtonInput, nil
	}
	return 0, ports.ErrUnknownChannel
}

func (m *Module) SetAnalog(ch ports.AnalogChannel, v uint16) error {
	addr, err := m.analogAddr(ch)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs.InputRegisters[addr] = v
	return nil
}

// SetButton drives a button's raw input for the logical pressed state.
func (m *Module) SetButton(in ports.DigitalInput, pressed bool) error {
	addr, err := m.buttonAddr(in)
	if err != nil {
		return err
	}
	raw := byte(0)
	if pressed != m.activeLow {
		raw = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs.DiscreteInputs[addr] = raw
	return nil
}

// Press holds a button for the given time and then releases it.
func (m *Module) Press(in ports.DigitalInput, hold time.Duration) error {
	if err := m.SetButton(in, true); err != nil {
		return err
	}
	time.AfterFunc(hold, func() { _ = m.SetButton(in, false) })
	return nil
}

func (m *Module) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	pressed := func(addr uint16) bool {
		return (m.regs.DiscreteInputs[addr] != 0) != m.activeLow
	}
	return Snapshot{
		LDR:          m.regs.InputRegisters[m.m.LDRRegister],
		Pot:          m.regs.InputRegisters[m.m.PotRegister],
		ToggleButton: pressed(m.m.ToggleButtonInput),
		ModeButton:   pressed(m.m.ModeButtonInput),
		PWM:          m.regs.HoldingRegisters[m.m.PWMRegister],
		Status:       m.regs.Coils[m.m.StatusCoil] != 0,
	}
}

// WatchOutputs logs every change the controller makes to the outputs.
func (m *Module) WatchOutputs(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	last := m.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		s := m.Snapshot()
		if s.PWM != last.PWM || s.Status != last.Status {
			logging.Info("Outputs changed", "pwm", s.PWM, "status", s.Status)
		}
		last = s
	}
}
