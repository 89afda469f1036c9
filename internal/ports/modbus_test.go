package ports

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbrandon/mbserver"
)

func freeTCPAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func startIOModule(t *testing.T) (*mbserver.Server, string) {
	t.Helper()
	addr := freeTCPAddr(t)
	srv := mbserver.NewServer()
	require.NoError(t, srv.ListenTCP(addr))
	t.Cleanup(srv.Close)
	return srv, addr
}

func TestModbus_ReadsAndWritesMappedPoints(t *testing.T) {
	srv, addr := startIOModule(t)
	srv.InputRegisters[4] = 12345 // ldr
	srv.InputRegisters[5] = 777   // pot
	srv.DiscreteInputs[2] = 1     // toggle button
	srv.DiscreteInputs[3] = 0     // mode button

	p, err := NewModbus(&config.ModbusConfig{
		Type:      "tcp",
		TCPAddr:   addr,
		UnitId:    1,
		TimeoutMs: 500,
		Map: &config.ModbusIOMap{
			LDRRegister:       4,
			PotRegister:       5,
			ToggleButtonInput: 2,
			ModeButtonInput:   3,
			PWMRegister:       10,
			StatusCoil:        7,
		},
	})
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ldr, err := p.ReadAnalog(ctx, LightSensor)
	require.NoError(t, err)
	assert.Equal(t, uint16(12345), ldr)

	pot, err := p.ReadAnalog(ctx, Potentiometer)
	require.NoError(t, err)
	assert.Equal(t, uint16(777), pot)

	toggle, err := p.ReadDigital(ctx, ToggleButton)
	require.NoError(t, err)
	assert.True(t, toggle)

	mode, err := p.ReadDigital(ctx, ModeButton)
	require.NoError(t, err)
	assert.False(t, mode)

	require.NoError(t, p.WritePWM(ctx, 40000))
	assert.Equal(t, uint16(40000), srv.HoldingRegisters[10])

	require.NoError(t, p.WriteStatus(ctx, true))
	assert.Equal(t, byte(1), srv.Coils[7])
}

func TestModbus_SkipsUnchangedWrites(t *testing.T) {
	srv, addr := startIOModule(t)

	p, err := NewModbus(&config.ModbusConfig{Type: "tcp", TCPAddr: addr, UnitId: 1, TimeoutMs: 500})
	require.NoError(t, err)
	defer p.Close()
	ctx := context.Background()

	require.NoError(t, p.WritePWM(ctx, 100))
	assert.Equal(t, uint16(100), srv.HoldingRegisters[0])

	// a value changed behind our back is not rewritten while the cache agrees
	srv.HoldingRegisters[0] = 5
	require.NoError(t, p.WritePWM(ctx, 100))
	assert.Equal(t, uint16(5), srv.HoldingRegisters[0])

	require.NoError(t, p.WritePWM(ctx, 200))
	assert.Equal(t, uint16(200), srv.HoldingRegisters[0])
}

func TestModbus_UnreachableModule(t *testing.T) {
	p, err := NewModbus(&config.ModbusConfig{Type: "tcp", TCPAddr: freeTCPAddr(t), UnitId: 1, TimeoutMs: 100})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ReadAnalog(context.Background(), LightSensor)
	assert.Error(t, err)
}
