package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goburrow/serial"
	"github.com/womat/mbserver"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/iosim"
	"github.com/fisaks/lightedge/internal/logging"
)

// runModuleSimulator serves one I/O module as an RTU slave on the serial
// port the edge config points at (usually one end of a virtual null modem).
func runModuleSimulator(ctx context.Context, mb *config.ModbusConfig, activeLow bool, restAddr string) {
	s := mbserver.NewServer()
	id := mb.UnitId
	if id != 1 {
		if err := s.NewDevice(id); err != nil {
			logging.Fatal("NewDevice", "unitId", id, "error", err)
		}
	}
	dev := s.Devices[id]
	module, err := iosim.New(iosim.Registers{
		Coils:            dev.Coils,
		DiscreteInputs:   dev.DiscreteInputs,
		HoldingRegisters: dev.HoldingRegisters,
		InputRegisters:   dev.InputRegisters,
	}, mb.Map, activeLow, 30000, 32768)
	if err != nil {
		logging.Fatal("I/O module setup", "error", err)
	}

	port, err := serial.Open(&serial.Config{
		Address:  mb.Port,
		BaudRate: mb.Baud,
		DataBits: mb.DataBits,
		StopBits: mb.StopBits,
		Parity:   mb.Parity,
		Timeout:  2 * time.Second,
	})
	if err != nil {
		logging.Fatal("serial open", "port", mb.Port, "error", err)
	}
	defer port.Close()

	if err := s.ListenRTU(port); err != nil {
		logging.Fatal("ListenRTU", "port", mb.Port, "error", err)
	}
	logging.Info("RTU I/O module ready", "port", mb.Port, "unitId", id, "rest", restAddr)

	go module.WatchOutputs(ctx, 200*time.Millisecond)
	go func() {
		if err := http.ListenAndServe(restAddr, module.Handler()); err != nil {
			logging.Error("REST API stopped", "error", err)
		}
	}()
	<-ctx.Done()
}

func main() {
	configPath := os.Getenv("SIM_CONFIG_PATH")
	if configPath == "" {
		logging.Fatal("SIM_CONFIG_PATH not set")
	}
	restAddr := os.Getenv("SIM_REST_ADDR")
	if restAddr == "" {
		restAddr = ":8080"
	}
	cfg, err := config.LoadEdgeConfig(configPath)
	if err != nil {
		logging.Fatal("Edge config error", "error", err)
	}
	mb := cfg.IO.Modbus
	if mb == nil || mb.Type != "rtu" {
		logging.Fatal("io.modbus with type rtu is required", "path", configPath)
	}
	if port := os.Getenv("SIM_SERIAL_PORT"); port != "" {
		mb.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runModuleSimulator(ctx, mb, cfg.IO.ActiveLow(), restAddr)
	logging.Info("bye")
}
