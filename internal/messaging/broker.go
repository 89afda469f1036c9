package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/logging"
	mqttopts "github.com/fisaks/lightedge/internal/mqtt"
)

type MsgBroker struct {
	config config.BrokerConfig
	client mqtt.Client
	mu     sync.RWMutex
	// handlers survive reconnects; they are re-subscribed on every connect
	subs           map[string]subscription
	onConnectHooks map[string]OnConnectHook
}

type subscription struct {
	qos     QoS
	handler Handler
	ctx     context.Context
}

// OnConnectHook runs on the paho connect goroutine after every (re)connect.
type OnConnectHook func()

func NewMsgBroker(cfg config.BrokerConfig) *MsgBroker {
	return &MsgBroker{
		config:         cfg,
		subs:           make(map[string]subscription),
		onConnectHooks: make(map[string]OnConnectHook),
	}
}

func (b *MsgBroker) Connect(ctx context.Context) error {
	if b.client == nil {
		b.client = mqtt.NewClient(b.optionsFromConfig())
	}
	if b.client.IsConnected() {
		return nil
	}

	t := b.client.Connect()
	select {
	case <-t.Done():
		if err := t.Error(); err != nil {
			return fmt.Errorf("mqtt connect %s: %w", b.config.URL, err)
		}
		return nil
	case <-ctx.Done():
		b.client.Disconnect(250)
		return ctx.Err()
	}
}

func (b *MsgBroker) optionsFromConfig() *mqtt.ClientOptions {
	opts := mqttopts.NewClientOptions(b.config)
	opts.OnConnect = func(c mqtt.Client) {
		logging.Info("mqtt connected", "broker", b.config.URL, "clientId", b.config.ClientID)
		b.resubscribe()
		b.runOnConnectHooks()
	}
	return opts
}

func (b *MsgBroker) AddOnConnectHook(id string, fn OnConnectHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onConnectHooks[id] = fn
}

func (b *MsgBroker) RemoveOnConnectHook(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.onConnectHooks, id)
}

func (b *MsgBroker) runOnConnectHooks() {
	b.mu.RLock()
	hooks := make([]OnConnectHook, 0, len(b.onConnectHooks))
	for _, fn := range b.onConnectHooks {
		hooks = append(hooks, fn)
	}
	b.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}

func (b *MsgBroker) resubscribe() {
	b.mu.RLock()
	subs := make(map[string]subscription, len(b.subs))
	for k, v := range b.subs {
		subs[k] = v
	}
	b.mu.RUnlock()

	for topic, s := range subs {
		token := b.client.Subscribe(topic, byte(s.qos), b.wrap(s.ctx, s.handler))
		if !token.WaitTimeout(b.subscribeTimeout()) {
			logging.Error("resubscribe timeout", "clientId", b.config.ClientID, "topic", topic)
			continue
		}
		if err := token.Error(); err != nil {
			logging.Error("resubscribe failed", "clientId", b.config.ClientID, "topic", topic, "error", err)
		}
	}
}

func (b *MsgBroker) IsConnected() bool {
	if b.client == nil {
		return false
	}
	return b.client.IsConnected()
}

func (b *MsgBroker) Close(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	// Graceful disconnect with short timeout
	done := make(chan struct{})
	go func() {
		// 250 ms quiesce period
		b.client.Disconnect(250)
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MsgBroker) Publish(ctx context.Context, topic string, qos QoS, retain bool, payload []byte) error {
	if b.client == nil {
		return ErrNotConnected
	}
	qosByte, wait := qosToByte(qos)
	token := b.client.Publish(topic, qosByte, retain, payload)
	if !wait {
		return nil
	}
	timeout := b.config.PublishTimeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	select {
	case <-token.Done():
		return token.Error()
	case <-time.After(timeout):
		return fmt.Errorf("publish timeout after %v", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func qosToByte(qos QoS) (byte, bool) {
	if qos > 2 {
		return 0, false
	}
	return byte(qos), true
}

func (b *MsgBroker) subscribeTimeout() time.Duration {
	if t := b.config.SubscribeTimeout(); t > 0 {
		return t
	}
	return 5 * time.Second
}

// wrap converts a paho message to our handler and logs panics without crashing.
func (b *MsgBroker) wrap(ctx context.Context, handler Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("mqtt handler panic", "clientId", b.config.ClientID, "topic", msg.Topic(), "err", r)
			}
		}()
		handler(ctx, msg.Topic(), msg.Payload())
	}
}

// Subscribe registers handler and waits for SUBACK with timeout. Handlers run
// on paho goroutines and must not block.
func (b *MsgBroker) Subscribe(ctx context.Context, topic string, qos QoS, handler Handler) (Subscription, error) {
	if b.client == nil {
		return nil, ErrNotConnected
	}
	token := b.client.Subscribe(topic, byte(qos), b.wrap(ctx, handler))

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}

		b.mu.Lock()
		b.subs[topic] = subscription{qos: qos, handler: handler, ctx: ctx}
		b.mu.Unlock()

		return &msgSubscription{broker: b, topic: topic}, nil

	case <-time.After(b.subscribeTimeout()):
		return nil, fmt.Errorf("subscribe timeout for %s", topic)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// subscription wrapper
type msgSubscription struct {
	broker *MsgBroker
	topic  string
}

func (s *msgSubscription) Unsubscribe(ctx context.Context) error {
	b := s.broker
	b.mu.Lock()
	delete(b.subs, s.topic)
	b.mu.Unlock()

	token := b.client.Unsubscribe(s.topic)
	timeout := 3 * time.Second
	select {
	case <-token.Done():
		return token.Error()
	case <-time.After(timeout):
		return fmt.Errorf("unsubscribe timeout for %s", s.topic)
	case <-ctx.Done():
		return ctx.Err()
	}
}
