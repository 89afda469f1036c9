package ports

import (
	"context"
	"sync"
)

// Sim is an in-memory port set. Tests and the bench REST tools drive the
// inputs through the setters while the control loop reads them.
type Sim struct {
	mu      sync.Mutex
	analog  [2]uint16
	digital [2]bool
	pwm     uint16
	status  bool
	closed  bool
}

// NewSim starts with both buttons released for the given polarity.
func NewSim(ldr, pot uint16, activeLow bool) *Sim {
	s := &Sim{}
	s.analog[LightSensor] = ldr
	s.analog[Potentiometer] = pot
	s.digital[ToggleButton] = activeLow
	s.digital[ModeButton] = activeLow
	return s
}

func (s *Sim) ReadAnalog(_ context.Context, ch AnalogChannel) (uint16, error) {
	if ch != LightSensor && ch != Potentiometer {
		return 0, ErrUnknownChannel
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analog[ch], nil
}

func (s *Sim) ReadDigital(_ context.Context, in DigitalInput) (bool, error) {
	if in != ToggleButton && in != ModeButton {
		return false, ErrUnknownChannel
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digital[in], nil
}

func (s *Sim) WritePWM(_ context.Context, level uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pwm = level
	return nil
}

func (s *Sim) WriteStatus(_ context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = on
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Sim) SetAnalog(ch AnalogChannel, v uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analog[ch] = v
}

func (s *Sim) SetDigital(in DigitalInput, level bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digital[in] = level
}

func (s *Sim) PWM() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pwm
}

func (s *Sim) Status() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
