package repository

import (
	"context"

	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
	"gorm.io/gorm"
)

type roomRepository struct {
	*BaseRepository[model.Room]
}

func NewRoomRepository(db *gorm.DB) repository.RoomRepository {
	return &roomRepository{BaseRepository: NewBaseRepository[model.Room](db)}
}

func (r *roomRepository) Create(ctx context.Context, room *model.Room) error {
	return r.create(ctx, room, apperror.ErrDuplicateToken)
}

func (r *roomRepository) GetByToken(ctx context.Context, token string) (*model.Room, error) {
	return r.first(ctx, "token = ?", token)
}
