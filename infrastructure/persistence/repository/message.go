package repository

import (
	"context"

	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type messageRepository struct {
	*BaseRepository[model.Message]
}

func NewMessageRepository(db *gorm.DB) repository.MessageRepository {
	return &messageRepository{BaseRepository: NewBaseRepository[model.Message](db)}
}

func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	return r.create(ctx, message, pkgerrors.Errorf("message %s already stored", message.ID))
}

func (r *messageRepository) GetRecentByRoom(ctx context.Context, roomToken string, limit int) ([]*model.Message, error) {
	var messages []*model.Message
	query := r.db(ctx).
		Where("room_token = ?", roomToken).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list recent messages")
	}
	return messages, nil
}
