package memory

import (
	"context"
	"sync"

	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
)

type roomRepository struct {
	mu      sync.RWMutex
	byToken map[string]model.Room
}

func NewRoomRepository() repository.RoomRepository {
	return &roomRepository{byToken: make(map[string]model.Room)}
}

func (r *roomRepository) Create(_ context.Context, room *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byToken[room.Token]; taken {
		return apperror.ErrDuplicateToken
	}
	r.byToken[room.Token] = *room
	return nil
}

func (r *roomRepository) GetByToken(_ context.Context, token string) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.byToken[token]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &room, nil
}
