package main

// cSpell:ignore mbserver Modbus
import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tbrandon/mbserver"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/iosim"
	"github.com/fisaks/lightedge/internal/logging"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ioMap takes the register map from an edge config when one is given.
func ioMap(path string) (*config.ModbusIOMap, bool) {
	if path == "" {
		return config.DefaultModbusIOMap(), true
	}
	cfg, err := config.LoadEdgeConfig(path)
	if err != nil {
		logging.Fatal("Edge config error", "path", path, "error", err)
	}
	if cfg.IO.Modbus == nil {
		return config.DefaultModbusIOMap(), cfg.IO.ActiveLow()
	}
	return cfg.IO.Modbus.Map, cfg.IO.ActiveLow()
}

func main() {
	addr := getenv("MB_LISTEN_ADDR", ":1502")
	restAddr := getenv("SIM_REST_ADDR", ":8080")
	m, activeLow := ioMap(os.Getenv("SIM_CONFIG_PATH"))

	srv := mbserver.NewServer()
	module, err := iosim.New(iosim.Registers{
		Coils:            srv.Coils,
		DiscreteInputs:   srv.DiscreteInputs,
		HoldingRegisters: srv.HoldingRegisters,
		InputRegisters:   srv.InputRegisters,
	}, m, activeLow, 30000, 32768)
	if err != nil {
		logging.Fatal("I/O module setup", "error", err)
	}

	if err := srv.ListenTCP(addr); err != nil {
		logging.Fatal("ListenTCP", "addr", addr, "error", err)
	}
	defer srv.Close()
	logging.Info("Modbus TCP I/O module listening", "addr", addr, "rest", restAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go module.WatchOutputs(ctx, 200*time.Millisecond)
	go func() {
		if err := http.ListenAndServe(restAddr, module.Handler()); err != nil {
			logging.Error("REST API stopped", "error", err)
		}
	}()
	<-ctx.Done()
	logging.Info("bye")
}
