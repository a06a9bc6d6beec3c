// Package events is the in-process pub/sub bus for gateway events.
// Delivery is synchronous in the publisher's goroutine; the subscriber list
// is copied out under the lock and callbacks run unlocked, so a callback may
// subscribe, unsubscribe, or publish without deadlocking.
package events

import (
	"sync"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
)

// Callback receives a published event.
type Callback func(telemetry.Event)

type subscription struct {
	id            uint32
	category      telemetry.Category
	allCategories bool
	cb            Callback
}

// Bus fans events out to category-filtered subscribers.
type Bus struct {
	mu     sync.Mutex
	subs   []subscription
	nextID uint32
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{nextID: 1}
}

// Subscribe registers cb for one category and returns its subscription id.
func (b *Bus) Subscribe(cat telemetry.Category, cb Callback) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, category: cat, cb: cb})
	return id
}

// SubscribeAll registers cb for every category.
func (b *Bus) SubscribeAll(cb Callback) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, allCategories: true, cb: cb})
	return id
}

// Unsubscribe removes a subscription. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(id uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every matching subscriber, in subscription order.
func (b *Bus) Publish(ev telemetry.Event) {
	b.mu.Lock()
	toCall := make([]Callback, 0, len(b.subs))
	for _, s := range b.subs {
		if s.allCategories || s.category == ev.Category {
			toCall = append(toCall, s.cb)
		}
	}
	b.mu.Unlock()

	for _, cb := range toCall {
		cb(ev)
	}
}
