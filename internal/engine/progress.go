package engine

import (
	"sync"

	"github.com/Nullvora/mabor-bench/internal/model"
)

// subscriberBufferSize is the channel buffer for each progress subscriber.
// Events are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// Event phases.
const (
	PhaseStarted  = "started"
	PhaseFinished = "finished"
)

// Event describes run progress for one unit.
type Event struct {
	Unit   model.RunUnit
	Phase  string
	Status string
	Reason string
	Index  int
	Total  int
}

// Broker fans run progress out to subscribers so the CLI can render live
// progress without coupling the executor to any output format. It is safe
// for concurrent use.
//
// After Close, late subscribers receive an immediately closed channel
// instead of blocking forever.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewBroker creates a progress broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel receiving progress events and an unsubscribe
// function. If the run has already finished, the channel is closed.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish sends an event to all subscribers, dropping it for any whose
// buffer is full so execution never blocks on a slow consumer.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close signals that no more events will be published. All subscriber
// channels are closed and future Subscribe calls return a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
