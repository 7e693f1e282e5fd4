package events

import (
	"context"
	"sync"
)

// MemoryBus delivers events synchronously inside the process. Every event
// goes through the same envelope encoding the NATS bus uses.
type MemoryBus struct {
	mu       sync.Mutex
	events   []Event
	handlers map[int]Handler
	nextId   int
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[int]Handler),
	}
}

func (b *MemoryBus) Emit(_ context.Context, e Event) error {
	env, err := NewEnvelope(e)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.events = append(b.events, e)
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(env)
	}
	return nil
}

func (b *MemoryBus) Subscribe(h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextId
	b.nextId++
	b.handlers[id] = h

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}, nil
}

// Events returns the emitted events in order.
func (b *MemoryBus) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Names returns the names of the emitted events in order.
func (b *MemoryBus) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Name())
	}
	return out
}

// Last returns the most recent event with the given name or nil.
func (b *MemoryBus) Last(name string) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Name() == name {
			return b.events[i]
		}
	}
	return nil
}

func (b *MemoryBus) Reset() {
	b.mu.Lock()
	b.events = nil
	b.mu.Unlock()
}
