package servernode

import (
	"sync"

	"github.com/cuemby/ircfed/pkg/netstate"
)

// Subscriber is a channel that receives every NetworkStateChange emitted
// by the server task, in causal order.
type Subscriber chan netstate.NetworkStateChange

// broker fans a NetworkStateChange out to every live subscriber. Adapted
// from pkg/events.Broker: a buffered-per-subscriber map instead of a
// single shared event channel, since here the publisher (the server
// task) must never block on a slow subscriber.
type broker struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]struct{}
}

func newBroker() *broker {
	return &broker{subscribers: make(map[Subscriber]struct{})}
}

// Subscribe registers a new subscriber with the given buffer depth.
func (b *broker) Subscribe(buffer int) Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := make(Subscriber, buffer)
	b.subscribers[sub] = struct{}{}
	return sub
}

// Unsubscribe removes and closes a subscriber.
func (b *broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// publish delivers change to every subscriber without blocking; a
// subscriber whose buffer is full misses the notification rather than
// stalling the server task (the server task is single-
// threaded; all mutation of the network state happens here" — it must
// never wait on a reader).
func (b *broker) publish(change netstate.NetworkStateChange) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		select {
		case sub <- change:
		default:
		}
	}
}
