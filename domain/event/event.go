// Package event defines what the chat core pushes to connected clients and
// the Dispatcher that carries it there.
package event

import (
	"time"

	"github.com/hilthontt/townhall/domain/model"
	"github.com/samber/lo"
)

type Type string

const (
	Message        Type = "message"
	MessageHistory Type = "messageHistory"
	PresenceJoined Type = "presenceJoined"
	PresenceLeft   Type = "presenceLeft"
	Error          Type = "error"
)

const TimestampLayout = time.RFC3339Nano

type Envelope struct {
	Type      Type   `json:"type"`
	RoomToken string `json:"roomToken,omitempty"`
	Data      any    `json:"data"`
}

type MessagePayload struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
}

type HistoryPayload struct {
	Messages []MessagePayload `json:"messages"`
}

type PresencePayload struct {
	ConnectionID string   `json:"connectionId"`
	DisplayName  string   `json:"displayName"`
	Members      []string `json:"members"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Dispatcher delivers an envelope to the given connections. Implementations
// must not block on slow receivers.
type Dispatcher interface {
	Dispatch(connectionIDs []string, env *Envelope)
}

func ToMessagePayload(m *model.Message) MessagePayload {
	return MessagePayload{
		ID:        m.ID,
		Author:    m.Author,
		Body:      m.Body,
		Timestamp: m.CreatedAt.UTC().Format(TimestampLayout),
	}
}

func NewMessage(m *model.Message) *Envelope {
	return &Envelope{
		Type:      Message,
		RoomToken: m.RoomToken,
		Data:      ToMessagePayload(m),
	}
}

func NewHistory(roomToken string, messages []*model.Message) *Envelope {
	return &Envelope{
		Type:      MessageHistory,
		RoomToken: roomToken,
		Data: HistoryPayload{
			Messages: lo.Map(messages, func(m *model.Message, _ int) MessagePayload {
				return ToMessagePayload(m)
			}),
		},
	}
}

func NewPresence(t Type, roomToken, connectionID, displayName string, members []string) *Envelope {
	if members == nil {
		members = []string{}
	}
	return &Envelope{
		Type:      t,
		RoomToken: roomToken,
		Data: PresencePayload{
			ConnectionID: connectionID,
			DisplayName:  displayName,
			Members:      members,
		},
	}
}

func NewError(code, message string) *Envelope {
	return &Envelope{
		Type: Error,
		Data: ErrorPayload{Code: code, Message: message},
	}
}
