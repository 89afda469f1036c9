package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/control"
	"github.com/fisaks/lightedge/internal/logging"
	"github.com/fisaks/lightedge/internal/messaging"
	"github.com/fisaks/lightedge/internal/ports"
	"github.com/fisaks/lightedge/internal/timex"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// serveMetrics exposes Prometheus metrics until the process exits.
func serveMetrics(addr string, inbox *messaging.Inbox) {
	metrics.NewGauge(`lightedge_inbox_dropped_total`, func() float64 { return float64(inbox.Dropped()) })
	metrics.NewGauge(`lightedge_inbox_queued`, func() float64 { return float64(inbox.Len()) })
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	logging.Info("Metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logging.Error("Metrics server stopped", "error", err)
	}
}

func main() {
	path := getenv("EDGE_CONFIG_PATH", "/etc/lightedge/edge-config.json")

	cfg, err := config.LoadEdgeConfig(path)
	if err != nil {
		logging.Fatal("Edge config error", "path", path, "error", err)
	}
	// environment wins over the file so the key can stay out of it
	cfg.Broker.URL = getenv("MQTT_URL", cfg.Broker.URL)
	cfg.Broker.Username = getenv("MQTT_USERNAME", cfg.Broker.Username)
	cfg.Broker.Key = getenv("MQTT_KEY", cfg.Broker.Key)
	cfg.Broker.ClientID = getenv("EDGE_NAME", cfg.Broker.ClientID)

	logging.Info("Loaded config",
		"broker", cfg.Broker.URL,
		"clientId", cfg.Broker.ClientID,
		"driver", cfg.IO.Driver,
		"publishIntervalMs", cfg.Control.PublishIntervalMs,
		"loopDelayMs", cfg.Control.LoopDelayMs,
	)

	io, err := ports.New(&cfg.IO)
	if err != nil {
		logging.Fatal("I/O init failed", "driver", cfg.IO.Driver, "error", err)
	}
	defer func() {
		if err := io.Close(); err != nil {
			logging.Warn("I/O close failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker := messaging.NewFeedBroker(cfg.Broker, cfg.Feeds)
	connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.Broker.ConnectTimeout())
	err = broker.Connect(connectCtx)
	cancelConnect()
	if err != nil {
		_ = io.Close()
		logging.Fatal("Broker unreachable", "broker", cfg.Broker.URL, "error", err)
	}
	if err := broker.StartFeedSubscriber(ctx); err != nil {
		_ = io.Close()
		logging.Fatal("Feed subscribe failed", "error", err)
	}

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go serveMetrics(addr, broker.Inbox())
	}

	ctl := control.New(cfg, io, broker, timex.NewMonotonic())
	ctl.Run(ctx)
	logging.Info("Shutting down")

	closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := broker.Close(closeCtx); err != nil {
		logging.Warn("Broker close failed", "error", err)
	}
	logging.Info("bye")
}
