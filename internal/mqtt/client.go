package mqtt

// cSpell:ignore mqtt
import (
	"time"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/logging"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// NewClientOptions builds paho options for a broker section. Hooks such as
// OnConnect are left to the caller.
func NewClientOptions(cfg config.BrokerConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().AddBroker(cfg.URL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Key)
	}
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	if t := cfg.ConnectTimeout(); t > 0 {
		opts.SetConnectTimeout(t)
	}
	// handlers only queue, so in-order delivery costs nothing and keeps
	// a mode command ahead of the toggle that follows it
	opts.SetOrderMatters(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logging.Warn("mqtt connection lost", "clientId", cfg.ClientID, "error", err)
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		logging.Info("mqtt reconnecting", "clientId", cfg.ClientID)
	})
	return opts
}

// MustConnect is for the command line tools: it logs and exits when the
// broker cannot be reached.
func MustConnect(cfg config.BrokerConfig) mqtt.Client {
	c := mqtt.NewClient(NewClientOptions(cfg))
	if tok := c.Connect(); tok.Wait() && tok.Error() != nil {
		logging.Fatal("mqtt connect", "broker", cfg.URL, "error", tok.Error())
	}
	return c
}
