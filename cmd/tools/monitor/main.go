package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/mqtt"
	"github.com/fisaks/lightedge/internal/util"
)

// describe renders one feed value in words; unknown topics print raw.
func describe(feeds config.FeedConfig, topic string, payload []byte) string {
	v := util.Trimmed(payload)
	switch topic {
	case feeds.LDR:
		return "ambient=" + v
	case feeds.Pot:
		if _, err := util.ParseInt(payload); err != nil {
			return fmt.Sprintf("brightness=%q (not a number)", v)
		}
		return "brightness=" + v + "%"
	case feeds.LEDStatus:
		return "led=" + util.OnOff(v == "1")
	case feeds.Button:
		return "toggle=" + v
	case feeds.ResetButton:
		switch v {
		case "1":
			return "mode=AUTO"
		case "0":
			return "mode=MANUAL"
		}
		return fmt.Sprintf("mode=%q (ignored)", v)
	default:
		return v
	}
}

func main() {
	path := flag.String("config", os.Getenv("EDGE_CONFIG_PATH"), "edge config file (broker and feeds)")
	broker := flag.String("broker", "", "override broker url")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "--config or EDGE_CONFIG_PATH is required")
		os.Exit(2)
	}
	cfg, err := config.LoadEdgeConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *broker != "" {
		cfg.Broker.URL = *broker
	}
	if key := os.Getenv("MQTT_KEY"); key != "" {
		cfg.Broker.Key = key
	}
	cfg.Broker.ClientID = "lightedge-monitor-" + strconv.Itoa(os.Getpid())

	client := mqtt.MustConnect(cfg.Broker)
	defer client.Disconnect(200)

	handler := func(_ MQTT.Client, msg MQTT.Message) {
		fmt.Printf("%s %-28s %s\n", time.Now().Format("15:04:05.000"), msg.Topic(), describe(cfg.Feeds, msg.Topic(), msg.Payload()))
	}
	filters := map[string]byte{
		cfg.Feeds.LDR:         0,
		cfg.Feeds.Pot:         0,
		cfg.Feeds.LEDStatus:   0,
		cfg.Feeds.Button:      0,
		cfg.Feeds.ResetButton: 0,
	}
	if token := client.SubscribeMultiple(filters, handler); token.Wait() && token.Error() != nil {
		fmt.Fprintf(os.Stderr, "subscribe: %v\n", token.Error())
		os.Exit(1)
	}
	fmt.Printf("Connected to %s, watching %d feeds...\n", cfg.Broker.URL, len(filters))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nShutting down...")
}
