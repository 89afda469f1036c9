package modbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/logging"
	"github.com/goburrow/modbus"
)

const (
	READ  = uint8(1)
	WRITE = uint8(2)
)

var (
	ErrEmptyResponse = errors.New("empty modbus response")
	// ErrBackoff is returned without touching the bus while a reconnect is pending.
	ErrBackoff = errors.New("modbus reconnect backoff")
)

type ModbusHandler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// IOClient talks to a single I/O module (one unit id) on an RTU or TCP bus.
// Calls are serialized; the control loop is the only regular caller but
// shutdown may race it.
type IOClient struct {
	mu      sync.Mutex
	handler ModbusHandler // satisfied by both RTU and TCP handlers
	client  modbus.Client
	unitId  byte
	address string

	settleAfterWrite time.Duration

	// Connection and backoff state
	connOK      bool
	nextAttempt time.Time
	backoff     time.Duration
	backoffMin  time.Duration
	backoffMax  time.Duration
	lastConnErr error
}

func newIOClient(handler ModbusHandler, cfg *config.ModbusConfig, address string) *IOClient {
	return &IOClient{
		handler:          handler,
		client:           modbus.NewClient(handler),
		unitId:           cfg.UnitId,
		address:          address,
		settleAfterWrite: cfg.SettleAfterWrite(),
		backoff:          0,
		backoffMin:       200 * time.Millisecond,
		backoffMax:       5 * time.Second,
	}
}

func NewRTUIOClient(cfg *config.ModbusConfig) *IOClient {
	handler := modbus.NewRTUClientHandler(cfg.Port)
	handler.BaudRate = cfg.Baud
	handler.DataBits = cfg.DataBits
	handler.Parity = cfg.Parity
	handler.StopBits = cfg.StopBits
	handler.Timeout = cfg.Timeout()
	handler.SlaveId = cfg.UnitId
	if cfg.Debug {
		handler.Logger = logging.WrapSlog("io", cfg.Port)
	}
	return newIOClient(handler, cfg, cfg.Port)
}

func NewTCPIOClient(cfg *config.ModbusConfig) *IOClient {
	handler := modbus.NewTCPClientHandler(cfg.TCPAddr)
	handler.Timeout = cfg.Timeout()
	handler.SlaveId = cfg.UnitId
	if cfg.Debug {
		handler.Logger = logging.WrapSlog("io", cfg.TCPAddr)
	}
	return newIOClient(handler, cfg, cfg.TCPAddr)
}

func NewIOClient(cfg *config.ModbusConfig) (*IOClient, error) {
	switch cfg.Type {
	case "rtu":
		return NewRTUIOClient(cfg), nil
	case "tcp":
		return NewTCPIOClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported modbus type: %s", cfg.Type)
	}
}

// ensureConnected never sleeps: inside the backoff window it fails with the
// last connect error so the caller's cycle keeps its pace.
func (m *IOClient) ensureConnected() error {
	if m.connOK {
		return nil
	}
	if now := time.Now(); now.Before(m.nextAttempt) {
		return fmt.Errorf("%w: %s retry in %v: %w", ErrBackoff, m.address,
			m.nextAttempt.Sub(now).Round(time.Millisecond), m.lastConnErr)
	}

	_ = m.handler.Close() // cleanup any stale
	if err := m.handler.Connect(); err != nil {
		m.bumpBackoff(err)
		return fmt.Errorf("modbus connect %s: %w", m.address, err)
	}

	m.client = modbus.NewClient(m.handler)
	m.connOK = true
	m.backoff = 0
	m.nextAttempt = time.Time{}
	m.lastConnErr = nil
	logging.Info("Modbus I/O module connected", "address", m.address, "unitId", m.unitId)
	return nil
}

func (m *IOClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connOK = false
	return m.handler.Close()
}

func (m *IOClient) bumpBackoff(err error) {
	m.connOK = false
	m.lastConnErr = err
	if m.backoff == 0 {
		m.backoff = m.backoffMin
	} else {
		m.backoff *= 2
		if m.backoff > m.backoffMax {
			m.backoff = m.backoffMax
		}
	}
	m.nextAttempt = time.Now().Add(m.backoff)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "connection") ||
		strings.Contains(s, "broken pipe") ||
		strings.Contains(s, "reset") ||
		strings.Contains(s, "closed") ||
		strings.Contains(s, "i/o") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "eof")
}

func (m *IOClient) withClient(ctx context.Context, access uint8, fn func() ([]byte, error)) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureConnected(); err != nil {
		return nil, err
	}

	v, err := m.call(ctx, access, fn)
	if err == nil {
		return v, nil
	}
	if isTransient(err) {
		// drop the connection; the next call reconnects after backoff
		m.bumpBackoff(err)
	}
	return nil, err
}

func (m *IOClient) call(ctx context.Context, access uint8, fn func() ([]byte, error)) ([]byte, error) {
	v, err := fn()
	if err != nil {
		return nil, err
	}
	if access == WRITE && m.settleAfterWrite > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.settleAfterWrite):
		}
	}
	return v, nil
}

// ===== FC2: Discrete Inputs =====
func (m *IOClient) ReadDiscreteInput(ctx context.Context, addr uint16) (bool, error) {
	data, err := m.withClient(ctx, READ, func() ([]byte, error) {
		// qty=1 returns 1 byte; bit0 is the input
		return m.client.ReadDiscreteInputs(addr, 1)
	})
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, ErrEmptyResponse
	}
	return (data[0] & 0x01) != 0, nil
}

// ===== FC4: Input Registers =====
func (m *IOClient) ReadInputRegister(ctx context.Context, addr uint16) (uint16, error) {
	data, err := m.withClient(ctx, READ, func() ([]byte, error) {
		return m.client.ReadInputRegisters(addr, 1)
	})
	if err != nil {
		return 0, err
	}
	if len(data) < 2 {
		return 0, ErrEmptyResponse
	}
	return uint16(data[0])<<8 | uint16(data[1]), nil
}

// ===== FC6: Single Holding Register =====
func (m *IOClient) WriteSingleRegister(ctx context.Context, addr uint16, value uint16) error {
	_, err := m.withClient(ctx, WRITE, func() ([]byte, error) {
		return m.client.WriteSingleRegister(addr, value)
	})
	return err
}

// ===== FC5: Single Coil =====
func (m *IOClient) WriteSingleCoil(ctx context.Context, addr uint16, on bool) error {
	_, err := m.withClient(ctx, WRITE, func() ([]byte, error) {
		val := uint16(0)
		if on {
			val = 0xFF00
		}
		return m.client.WriteSingleCoil(addr, val)
	})
	return err
}
