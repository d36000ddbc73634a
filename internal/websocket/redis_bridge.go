package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"civic-pulse/pkg/events"
)

// RedisBridge relays poll events from every API instance to the clients
// connected to this one.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub}
}

func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, events.PollChannel("*"), func(_ context.Context, event events.Event) error {
		return deliver(b.hub, event)
	})
}

// LocalPublisher delivers events straight to the hub. Used when Redis is
// disabled and there is a single instance.
type LocalPublisher struct {
	hub *Hub
}

func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) Publish(_ context.Context, _ string, event events.Event) error {
	return deliver(p.hub, event)
}

func deliver(hub *Hub, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	hub.Broadcast(events.PollChannel(event.PollID), data)
	return nil
}
