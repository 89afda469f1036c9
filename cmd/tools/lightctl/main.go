package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/mqtt"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  lightctl [flags] toggle on|off
  lightctl [flags] mode auto|manual
  lightctl [flags] brightness PERCENT

Publishes a command to the controller's feeds, exactly as the dashboard would.

Flags:
`)
	flag.PrintDefaults()
}

// command resolves the feed and payload for a command line.
func command(feeds config.FeedConfig, args []string) (topic, payload string, err error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("expected a command and one value")
	}
	cmd, arg := args[0], strings.ToLower(args[1])
	switch cmd {
	case "toggle":
		switch arg {
		case "on", "off":
			return feeds.Button, strings.ToUpper(arg), nil
		}
		return "", "", fmt.Errorf("toggle takes on or off, got %q", args[1])
	case "mode":
		switch arg {
		case "auto":
			return feeds.ResetButton, "1", nil
		case "manual":
			return feeds.ResetButton, "0", nil
		}
		return "", "", fmt.Errorf("mode takes auto or manual, got %q", args[1])
	case "brightness":
		p, err := strconv.Atoi(arg)
		if err != nil || p < 0 || p > 100 {
			return "", "", fmt.Errorf("brightness takes a percentage 0..100, got %q", args[1])
		}
		return feeds.Pot, strconv.Itoa(p), nil
	default:
		return "", "", fmt.Errorf("unknown command %q", cmd)
	}
}

func main() {
	path := flag.String("config", os.Getenv("EDGE_CONFIG_PATH"), "edge config file (broker and feeds)")
	broker := flag.String("broker", "", "override broker url")
	flag.Usage = usage
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "--config or EDGE_CONFIG_PATH is required")
		usage()
		os.Exit(2)
	}
	cfg, err := config.LoadEdgeConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	topic, payload, err := command(cfg.Feeds, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(2)
	}

	if *broker != "" {
		cfg.Broker.URL = *broker
	}
	if key := os.Getenv("MQTT_KEY"); key != "" {
		cfg.Broker.Key = key
	}
	cfg.Broker.ClientID = "lightctl-" + strconv.Itoa(os.Getpid())

	client := mqtt.MustConnect(cfg.Broker)
	defer client.Disconnect(250)

	if err := mqtt.PublishText(client, topic, payload, cfg.Broker.PublishTimeout()); err != nil {
		fmt.Fprintf(os.Stderr, "publish: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s <- %s\n", topic, payload)
}
