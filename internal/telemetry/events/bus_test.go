package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
)

func TestCategoryFilter(t *testing.T) {
	b := New()

	var network, health []telemetry.Event
	b.Subscribe(telemetry.CategoryNetwork, func(ev telemetry.Event) { network = append(network, ev) })
	b.Subscribe(telemetry.CategoryHealth, func(ev telemetry.Event) { health = append(health, ev) })

	b.Publish(telemetry.Event{ID: telemetry.EvtSeqGap, Category: telemetry.CategoryNetwork})
	b.Publish(telemetry.Event{ID: telemetry.EvtHeartbeatOK, Category: telemetry.CategoryHealth})
	b.Publish(telemetry.Event{ID: telemetry.EvtSeqReorder, Category: telemetry.CategoryNetwork})

	require.Len(t, network, 2)
	require.Len(t, health, 1)
	require.Equal(t, telemetry.EvtSeqGap, network[0].ID)
	require.Equal(t, telemetry.EvtSeqReorder, network[1].ID)
}

func TestSubscribeAll(t *testing.T) {
	b := New()
	var got []telemetry.Event
	b.SubscribeAll(func(ev telemetry.Event) { got = append(got, ev) })

	b.Publish(telemetry.Event{Category: telemetry.CategoryTracking})
	b.Publish(telemetry.Event{Category: telemetry.CategoryControl})
	require.Len(t, got, 2)
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	count := 0
	id := b.Subscribe(telemetry.CategoryNetwork, func(telemetry.Event) { count++ })

	b.Publish(telemetry.Event{Category: telemetry.CategoryNetwork})
	b.Unsubscribe(id)
	b.Publish(telemetry.Event{Category: telemetry.CategoryNetwork})

	require.Equal(t, 1, count)

	// Unknown id is a no-op.
	b.Unsubscribe(9999)
}

func TestReentrantSubscribeFromCallback(t *testing.T) {
	b := New()
	nested := 0
	b.Subscribe(telemetry.CategoryControl, func(telemetry.Event) {
		b.Subscribe(telemetry.CategoryControl, func(telemetry.Event) { nested++ })
	})

	// Must not deadlock; the nested subscriber sees only later publishes.
	b.Publish(telemetry.Event{Category: telemetry.CategoryControl})
	require.Equal(t, 0, nested)
	b.Publish(telemetry.Event{Category: telemetry.CategoryControl})
	require.Equal(t, 1, nested)
}

func TestReentrantPublishFromCallback(t *testing.T) {
	b := New()
	var order []telemetry.EventID
	b.SubscribeAll(func(ev telemetry.Event) {
		order = append(order, ev.ID)
		if ev.ID == telemetry.EvtSeqGap {
			b.Publish(telemetry.Event{ID: telemetry.EvtConfigChange, Category: telemetry.CategoryControl})
		}
	})

	b.Publish(telemetry.Event{ID: telemetry.EvtSeqGap, Category: telemetry.CategoryNetwork})
	require.Equal(t, []telemetry.EventID{telemetry.EvtSeqGap, telemetry.EvtConfigChange}, order)
}

func TestConcurrentPublishers(t *testing.T) {
	b := New()
	var mu sync.Mutex
	count := 0
	b.SubscribeAll(func(telemetry.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Publish(telemetry.Event{Category: telemetry.CategoryNetwork})
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 800, count)
}
