package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"civic-pulse/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastReachesSubscribersOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	watcher := NewClient(nil)
	other := NewClient(nil)
	hub.Register(watcher)
	hub.Register(other)
	hub.Subscribe(watcher, events.PollChannel("p1"))
	hub.Subscribe(other, events.PollChannel("p2"))

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(events.PollChannel("p1")) == 1 && hub.SubscriberCount(events.PollChannel("p2")) == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, watcher.IsSubscribed(events.PollChannel("p1")))
	assert.False(t, watcher.IsSubscribed(events.PollChannel("p2")))

	pub := NewLocalPublisher(hub)
	require.NoError(t, pub.Publish(ctx, events.PollChannel("p1"), events.NewEvent(events.TypeTallyUpdated, "p1", map[string]int{"a": 1})))

	select {
	case msg := <-watcher.Send:
		var ev events.Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		assert.Equal(t, "p1", ev.PollID)
		assert.Equal(t, events.TypeTallyUpdated, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("watcher did not receive the event")
	}
	assert.Empty(t, other.Send)

	hub.Unregister(watcher)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, hub.SubscriberCount(events.PollChannel("p1")))

	_, open := <-watcher.Send
	assert.False(t, open)
}

func TestClient_SendMessageDropsWhenFull(t *testing.T) {
	c := NewClient(nil)
	for i := 0; i < cap(c.Send)+10; i++ {
		c.SendMessage([]byte("x"))
	}
	assert.Len(t, c.Send, cap(c.Send))
}
