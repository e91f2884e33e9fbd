// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stratastor/logger"
)

// Event bases group related event kinds, mirroring the driver's
// notification sources.
const (
	BaseEthernet = "ETH"
	BaseIP       = "IP"
)

// Event is a single notification delivered to registered handlers.
type Event struct {
	ID        string
	Base      string
	Kind      int32
	Timestamp time.Time
	Payload   any
}

// Handler receives events. Handlers for the same base are invoked
// sequentially in publication order; a handler must not block for long
// or it stalls dispatch for every subscriber.
type Handler func(Event)

type registration struct {
	id      string
	base    string
	handler Handler
}

// Bus is an in-process event dispatcher. Publication is non-blocking:
// when the queue is full the event is dropped and counted rather than
// stalling the publisher.
type Bus struct {
	logger logger.Logger

	eventChan chan Event
	stopChan  chan struct{}

	wg         sync.WaitGroup
	mu         sync.RWMutex
	handlers   []registration
	isShutdown bool

	dropped atomic.Uint64
}

// NewBus creates a bus with the given queue depth and starts its
// dispatch goroutine.
func NewBus(queueSize int, l logger.Logger) *Bus {
	if queueSize <= 0 {
		queueSize = 64
	}
	b := &Bus{
		logger:    l,
		eventChan: make(chan Event, queueSize),
		stopChan:  make(chan struct{}),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Register subscribes a handler to all events of the given base and
// returns a registration ID for Unregister.
func (b *Bus) Register(base string, fn Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.handlers = append(b.handlers, registration{id: id, base: base, handler: fn})
	return id
}

// Unregister removes a previously registered handler.
func (b *Bus) Unregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, reg := range b.handlers {
		if reg.id == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Publish queues an event for dispatch (non-blocking).
func (b *Bus) Publish(base string, kind int32, payload any) {
	b.mu.RLock()
	if b.isShutdown {
		b.mu.RUnlock()
		return
	}
	b.mu.RUnlock()

	event := Event{
		ID:        uuid.NewString(),
		Base:      base,
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	select {
	case b.eventChan <- event:
		// Event queued successfully
	default:
		// Channel full - log warning but don't block
		b.dropped.Add(1)
		b.logger.Warn("Event queue full, dropping event",
			"base", base,
			"kind", kind,
			"event_id", event.ID)
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Pending returns the number of queued, undelivered events.
func (b *Bus) Pending() int {
	return len(b.eventChan)
}

// dispatch delivers events to handlers. A single goroutine keeps
// per-base ordering intact.
func (b *Bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case <-b.stopChan:
			// Drain what is already queued before exiting.
			for {
				select {
				case event := <-b.eventChan:
					b.deliver(event)
				default:
					return
				}
			}
		case event := <-b.eventChan:
			b.deliver(event)
		}
	}
}

func (b *Bus) deliver(event Event) {
	b.mu.RLock()
	regs := make([]registration, 0, len(b.handlers))
	for _, reg := range b.handlers {
		if reg.base == event.Base {
			regs = append(regs, reg)
		}
	}
	b.mu.RUnlock()

	for _, reg := range regs {
		reg.handler(event)
	}
}

// Close stops dispatch after draining queued events. Safe to call more
// than once.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.isShutdown {
		b.mu.Unlock()
		return
	}
	b.isShutdown = true
	b.mu.Unlock()

	close(b.stopChan)
	b.wg.Wait()
}
