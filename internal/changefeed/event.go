package changefeed

import (
	"encoding/json"
	"fmt"
	"strings"

	"revq/internal/review"
)

// ChangeKind classifies a remote mutation event.
type ChangeKind string

const (
	// KindInsert reports a new item entering the queue.
	KindInsert ChangeKind = "insert"
	// KindUpdate reports field changes on an item still in the queue.
	KindUpdate ChangeKind = "update"
	// KindStatusLeftPending reports an item resolved elsewhere, leaving the
	// pending queue.
	KindStatusLeftPending ChangeKind = "status_left_pending"
)

// Event is the normalized shape of one remote mutation notification.
type Event struct {
	ItemID string     `json:"item_id"`
	Kind   ChangeKind `json:"change_kind"`
	// Origin identifies the client that caused the mutation. Events from
	// this session's own client id are dropped by the listener.
	Origin string `json:"origin,omitempty"`
	// Item carries the full item payload for insert and update events.
	Item *review.Item `json:"item,omitempty"`
}

// DecodeEvent parses a raw feed message into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("parse change event: %w", err)
	}
	if strings.TrimSpace(event.ItemID) == "" {
		return Event{}, fmt.Errorf("change event missing item_id")
	}
	switch event.Kind {
	case KindInsert, KindUpdate, KindStatusLeftPending:
	default:
		return Event{}, fmt.Errorf("unknown change kind %q", event.Kind)
	}
	return event, nil
}
