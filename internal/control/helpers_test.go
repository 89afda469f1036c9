package control

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fisaks/lightedge/internal/config"
	"github.com/fisaks/lightedge/internal/messaging"
)

var testFeeds = config.FeedConfig{
	LDR:         "me/feeds/ldr",
	Pot:         "me/feeds/pot",
	Button:      "me/feeds/button",
	ResetButton: "me/feeds/reset",
	LEDStatus:   "me/feeds/led",
}

var errBrokerDown = errors.New("broker down")

func sample(v uint16) *uint16 { return &v }

type fakeClock struct{ now uint32 }

func (c *fakeClock) Ticks() uint32 { return c.now }

type published struct {
	topic, value string
}

type fakeBroker struct {
	inbox   *messaging.Inbox
	refresh bool
	sent    []published
	attempt []string
	fail    map[string]bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{inbox: messaging.NewInbox(8), fail: map[string]bool{}}
}

func (b *fakeBroker) PublishFeed(_ context.Context, topic, value string) error {
	b.attempt = append(b.attempt, topic)
	if b.fail[topic] {
		return errBrokerDown
	}
	b.sent = append(b.sent, published{topic, value})
	return nil
}

func (b *fakeBroker) Inbox() *messaging.Inbox { return b.inbox }

func (b *fakeBroker) TakeRefresh() bool {
	r := b.refresh
	b.refresh = false
	return r
}

func (b *fakeBroker) value(topic string) (string, bool) {
	for i := len(b.sent) - 1; i >= 0; i-- {
		if b.sent[i].topic == topic {
			return b.sent[i].value, true
		}
	}
	return "", false
}

func (b *fakeBroker) push(topic, payload string) {
	b.inbox.Push(messaging.Message{Topic: topic, Payload: []byte(payload)})
}

func testConfig(t *testing.T) *config.EdgeConfig {
	t.Helper()
	cfg := &config.EdgeConfig{
		Broker: config.BrokerConfig{URL: "tcp://localhost:1883"},
		Feeds:  testFeeds,
	}
	require.NoError(t, cfg.Validate())
	return cfg
}
