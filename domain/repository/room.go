package repository

import (
	"context"

	"github.com/hilthontt/townhall/domain/model"
)

//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../../mocks/mock_room_repository.go -package=mocks

type RoomRepository interface {
	// Create returns apperror.ErrDuplicateToken when the token is taken.
	Create(ctx context.Context, room *model.Room) error
	GetByToken(ctx context.Context, token string) (*model.Room, error)
}
