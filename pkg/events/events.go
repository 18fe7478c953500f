package events

import (
	"sort"
	"sync"

	"github.com/metahead-arena/headball/pkg/log"
)

// Event is a named in-process event with an arbitrary payload.
type Event struct {
	Topic   string
	Payload interface{}
}

// Handler handles a published event.
type Handler func(event Event)

// Bus is an in-process publish/subscribe bus decoupling the transport
// from its consumers. Handlers for a topic are invoked synchronously in
// subscription order.
type Bus struct {
	lock   sync.RWMutex
	nextID uint64
	topics map[string]map[uint64]Handler
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		topics: make(map[string]map[uint64]Handler),
	}
}

// Subscription is a handle to a registered handler.
type Subscription struct {
	bus   *Bus
	topic string
	id    uint64
}

// Subscribe registers a handler for a topic and returns a subscription handle.
func (b *Bus) Subscribe(topic string, handler Handler) *Subscription {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.nextID++
	handlers, ok := b.topics[topic]
	if !ok {
		handlers = make(map[uint64]Handler)
		b.topics[topic] = handlers
	}
	handlers[b.nextID] = handler

	return &Subscription{
		bus:   b,
		topic: topic,
		id:    b.nextID,
	}
}

// Unsubscribe removes the handler from the bus. It is idempotent and
// never fails for an already-removed handler.
func (s *Subscription) Unsubscribe() {
	s.bus.lock.Lock()
	defer s.bus.lock.Unlock()

	handlers, ok := s.bus.topics[s.topic]
	if !ok {
		return
	}
	delete(handlers, s.id)
	if len(handlers) == 0 {
		delete(s.bus.topics, s.topic)
	}
}

// Publish delivers an event to all handlers subscribed to its topic.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.lock.RLock()
	handlers := make([]Handler, 0, len(b.topics[topic]))
	ids := make([]uint64, 0, len(b.topics[topic]))
	for id := range b.topics[topic] {
		ids = append(ids, id)
	}
	// map iteration order is random; deliver in subscription order
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		handlers = append(handlers, b.topics[topic][id])
	}
	b.lock.RUnlock()

	if len(handlers) == 0 {
		log.Trace("No subscribers for topic %s", topic)
		return
	}

	event := Event{Topic: topic, Payload: payload}
	for _, handler := range handlers {
		handler(event)
	}
}
