package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesTopicSubscribers(t *testing.T) {
	hub := NewHub()
	first, cleanupFirst := hub.Subscribe("attendance")
	second, cleanupSecond := hub.Subscribe("attendance")
	other, cleanupOther := hub.Subscribe("payroll")
	defer cleanupOther()

	// Act
	hub.Publish("attendance", Event{Event: "clocking", Data: "ana"})

	// Assert
	for _, ch := range []chan Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, "attendance", ev.Topic)
			assert.Equal(t, "clocking", ev.Event)
			assert.Equal(t, "ana", ev.Data)
		default:
			t.Fatal("expected an event")
		}
	}
	assert.Empty(t, other)

	cleanupFirst()
	cleanupFirst()
	assert.Equal(t, 1, hub.SubscriberCount("attendance"))
	_, open := <-first
	assert.False(t, open)

	cleanupSecond()
	assert.Equal(t, 0, hub.SubscriberCount("attendance"))
}

func TestHub_PublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("attendance")
	defer cleanup()

	// Act
	for i := 0; i < 15; i++ {
		hub.Publish("attendance", Event{Event: "clocking", Data: i})
	}

	// Assert
	require.Len(t, ch, 10)
	assert.Equal(t, 0, (<-ch).Data)
}
