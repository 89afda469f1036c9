package messaging

import (
	"sync/atomic"

	"github.com/fisaks/lightedge/internal/logging"
)

// Inbox decouples broker callbacks from the control loop. Producers never
// block: when the buffer is full the message is dropped, which matches the
// at-most-once contract of the feeds.
type Inbox struct {
	ch      chan Message
	dropped atomic.Uint64
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = 1
	}
	return &Inbox{ch: make(chan Message, size)}
}

func (i *Inbox) Push(m Message) bool {
	select {
	case i.ch <- m:
		return true
	default:
		n := i.dropped.Add(1)
		logging.Warn("Inbox full, dropping message", "topic", m.Topic, "dropped", n)
		return false
	}
}

// Drain hands queued messages to fn without blocking. At most one buffer's
// worth is handled per call so a flooding producer cannot starve the caller.
func (i *Inbox) Drain(fn func(Message)) int {
	n := 0
	for n < cap(i.ch) {
		select {
		case m := <-i.ch:
			fn(m)
			n++
		default:
			return n
		}
	}
	return n
}

func (i *Inbox) Len() int        { return len(i.ch) }
func (i *Inbox) Dropped() uint64 { return i.dropped.Load() }
