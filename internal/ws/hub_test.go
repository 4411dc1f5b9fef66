package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishQueuesEncodedEvent(t *testing.T) {
	h := NewHub()

	h.Publish(Event{Type: "stock_update", Action: "purchase_completed", Message: "sold"})

	require.Len(t, h.Broadcast, 1)
	var got Event
	require.NoError(t, json.Unmarshal(<-h.Broadcast, &got))
	assert.Equal(t, "stock_update", got.Type)
	assert.Equal(t, "purchase_completed", got.Action)
}

func TestPublishOnNilHub(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(Event{Type: "stock_update"}) })
}

func TestPublishDropsWhenFull(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.Broadcast)+5; i++ {
		h.Publish(Event{Type: "stock_update"})
	}
	assert.Equal(t, cap(h.Broadcast), len(h.Broadcast))
}

func TestStopIsRepeatable(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	assert.NotPanics(t, func() {
		h.Stop()
		h.Stop()
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestJoinAfterStopDoesNotBlock(t *testing.T) {
	h := NewHub()
	h.Stop()

	joined := make(chan bool, 1)
	go func() { joined <- h.Join(nil) }()

	select {
	case ok := <-joined:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Join blocked on a stopped hub")
	}

	left := make(chan struct{})
	go func() {
		h.Leave(nil)
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("Leave blocked on a stopped hub")
	}
}
