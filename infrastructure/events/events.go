package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType is also the routing key on the exchange.
type EventType string

const (
	EventRoomCreated     EventType = "room.created"
	EventMemberJoined    EventType = "member.joined"
	EventMemberLeft      EventType = "member.left"
	EventMessageSent     EventType = "message.sent"
	EventLocationCreated EventType = "location.created"
	EventLocationRenamed EventType = "location.renamed"
	EventLocationDeleted EventType = "location.deleted"
)

type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RoomToken string         `json:"room_token,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func NewEvent(eventType EventType, roomToken string, data map[string]any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RoomToken: roomToken,
		Data:      data,
	}
}
