package messaging

import (
	"context"
	"errors"
)

type QoS byte

const (
	AtMostOnce    QoS = 0
	FireAndForget QoS = 0
	AtLeastOnce   QoS = 1
	ExactlyOnce   QoS = 2
	AsyncNoWait   QoS = 3 // not a real QoS, will switch to 0 on publish but not wait on returned token
)

var ErrNotConnected = errors.New("client not initialized")

// Message is an inbound publish as delivered by the broker.
type Message struct {
	Topic   string
	Payload []byte
}

// Subscription is returned when you Subscribe you can Unsubscribe later.
type Subscription interface {
	Unsubscribe(ctx context.Context) error
}

type Handler func(ctx context.Context, topic string, payload []byte)

type Broker interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	Publish(ctx context.Context, topic string, qos QoS, retain bool, payload []byte) error
	Subscribe(ctx context.Context, topic string, qos QoS, handler Handler) (Subscription, error)
	IsConnected() bool
}
