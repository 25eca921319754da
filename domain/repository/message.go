package repository

import (
	"context"

	"github.com/hilthontt/townhall/domain/model"
)

//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../../mocks/mock_message_repository.go -package=mocks

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	// GetRecentByRoom returns at most limit messages of the room, newest
	// first.
	GetRecentByRoom(ctx context.Context, roomToken string, limit int) ([]*model.Message, error)
}
