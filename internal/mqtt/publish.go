package mqtt

import (
	"fmt"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/fisaks/lightedge/internal/logging"
)

// PublishText sends a plain text feed value with QoS 1 and waits up to timeout.
func PublishText(client MQTT.Client, topic, value string, timeout time.Duration) error {
	token := client.Publish(topic, 1, false, value)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: timeout after %v", topic, timeout)
	}
	if err := token.Error(); err != nil {
		logging.Error("Failed to publish", "topic", topic, "error", err)
		return err
	}
	logging.Info("Published", "topic", topic, "value", value)
	return nil
}
