package events

import (
	"context"
	"fmt"
	"time"
)

// Event types published after poll mutations.
const (
	TypeTallyUpdated   = "poll.tally"
	TypeOptionAdded    = "poll.option_added"
	TypeOptionApproved = "poll.option_approved"
	TypeOptionDeleted  = "poll.option_deleted"
)

type Event struct {
	Type      string      `json:"type"`
	PollID    string      `json:"poll_id"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

func NewEvent(eventType, pollID string, payload interface{}) Event {
	return Event{Type: eventType, PollID: pollID, Payload: payload, Timestamp: time.Now().UnixMilli()}
}

// PollChannel is the Pub/Sub channel carrying one poll's events.
func PollChannel(pollID string) string {
	return fmt.Sprintf("poll:%s", pollID)
}

type Handler func(ctx context.Context, event Event) error

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler Handler) error
}

type Broker interface {
	Publisher
	Subscriber
}
