package messaging

import (
	"context"
	"sync/atomic"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/logging"
)

// FeedBroker is the controller's view of the broker: plain text feed
// publishes out, the three command feeds queued into an Inbox.
type FeedBroker struct {
	Broker
	feeds config.FeedConfig
	inbox *Inbox
	// set on every (re)connect, consumed by the control loop
	refresh atomic.Bool
}

func NewFeedBroker(cfg config.BrokerConfig, feeds config.FeedConfig) *FeedBroker {
	msgBroker := NewMsgBroker(cfg)
	fb := &FeedBroker{
		Broker: msgBroker,
		feeds:  feeds,
		inbox:  NewInbox(cfg.InboxSize),
	}
	msgBroker.AddOnConnectHook("telemetry-refresh", func() { fb.refresh.Store(true) })
	return fb
}

// CommandFeeds lists the feeds the controller listens on.
func (b *FeedBroker) CommandFeeds() []string {
	return []string{b.feeds.Button, b.feeds.ResetButton, b.feeds.Pot}
}

// StartFeedSubscriber subscribes to every command feed.
func (b *FeedBroker) StartFeedSubscriber(ctx context.Context) error {
	for _, topic := range b.CommandFeeds() {
		if _, err := b.Subscribe(ctx, topic, AtMostOnce, b.OnMessage); err != nil {
			return err
		}
		logging.Info("Subscribed to feed", "topic", topic)
	}
	return nil
}

func (b *FeedBroker) OnMessage(_ context.Context, topic string, payload []byte) {
	logging.Debug("Received feed message", "topic", topic, "payload", string(payload))
	// copied: the loop handles it after the callback has returned
	b.inbox.Push(Message{Topic: topic, Payload: append([]byte(nil), payload...)})
}

func (b *FeedBroker) Inbox() *Inbox { return b.inbox }

// PublishFeed sends one feed value fire-and-forget style (QoS 0, not
// retained) but still waits for the write so failures are reported.
func (b *FeedBroker) PublishFeed(ctx context.Context, topic, value string) error {
	return b.Publish(ctx, topic, AtMostOnce, false, []byte(value))
}

// TakeRefresh reports whether a (re)connect happened since the last call.
func (b *FeedBroker) TakeRefresh() bool {
	return b.refresh.Swap(false)
}
