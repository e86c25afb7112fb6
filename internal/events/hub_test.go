package events

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Publish(MakeEvent("req-1", TypeJobEnqueued, 1, map[string]any{"job_id": 7}))

	for _, ch := range []chan string{a, b} {
		var e Event
		require.NoError(t, json.Unmarshal([]byte(<-ch), &e))
		assert.Equal(t, TypeJobEnqueued, e.Type)
		assert.Equal(t, "req-1", e.RequestID)
	}
}

func TestHubDropsWhenSubscriberStalls(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Nobody reads; the buffer fills and the rest fall on the floor instead
	// of blocking the publisher.
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish(fmt.Sprintf("evt-%d", i))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	// Publishing after unsubscribe must not panic on the closed channel.
	h.Publish("late")

	_, open := <-ch
	assert.False(t, open)
}
