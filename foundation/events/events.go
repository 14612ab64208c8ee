// Package events fans node events out to registered subscribers such as
// websocket clients.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// messageBuffer is how many events a slow subscriber can fall behind before
// events are dropped for it.
const messageBuffer = 100

// Event is a single message published by the node.
type Event struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Events maintains a mapping of subscriber id and channels so goroutines
// can register and receive events.
type Events struct {
	mu      sync.RWMutex
	m       map[string]chan Event
	seq     atomic.Uint64
	dropped atomic.Uint64
}

// New constructs an events hub.
func New() *Events {
	return &Events{
		m: make(map[string]chan Event),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events) Acquire(id string) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.m[id]; exists {
		return ch
	}

	ch := make(chan Event, messageBuffer)
	evt.m[id] = ch
	return ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Send stamps the message and delivers it to every subscriber. Send never
// blocks; a subscriber with a full buffer misses the event.
func (evt *Events) Send(message string) Event {
	e := Event{
		Seq:     evt.seq.Add(1),
		Time:    time.Now().UTC(),
		Message: message,
	}

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- e:
		default:
			evt.dropped.Add(1)
		}
	}

	return e
}

// Subscribers returns the number of registered subscribers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Dropped returns how many deliveries were skipped because a subscriber
// was not keeping up.
func (evt *Events) Dropped() uint64 {
	return evt.dropped.Load()
}
