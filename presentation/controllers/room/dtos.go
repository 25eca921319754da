package room

import (
	"time"

	"github.com/hilthontt/townhall/domain/event"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/samber/lo"
)

type ResolveRoomRequest struct {
	RoomToken string `json:"roomToken" binding:"max=64"`
}

type HistoryQuery struct {
	Limit int `form:"limit"`
}

type RoomResponse struct {
	Token     string    `json:"token"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Members   []string  `json:"members"`
}

type RoomPageResponse struct {
	RoomResponse
	Messages []event.MessagePayload `json:"messages"`
}

type MessagesResponse struct {
	RoomToken string                 `json:"roomToken"`
	Messages  []event.MessagePayload `json:"messages"`
	Count     int                    `json:"count"`
}

func toRoomResponse(room *model.Room, members []string) RoomResponse {
	if members == nil {
		members = []string{}
	}
	return RoomResponse{
		Token:     room.Token,
		Name:      room.Name,
		CreatedAt: room.CreatedAt,
		Members:   members,
	}
}

func toMessagePayloads(messages []*model.Message) []event.MessagePayload {
	return lo.Map(messages, func(m *model.Message, _ int) event.MessagePayload {
		return event.ToMessagePayload(m)
	})
}
