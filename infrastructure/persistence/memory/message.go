package memory

import (
	"context"
	"sync"

	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
)

type messageRepository struct {
	mu     sync.RWMutex
	byRoom map[string][]model.Message
}

func NewMessageRepository() repository.MessageRepository {
	return &messageRepository{byRoom: make(map[string][]model.Message)}
}

// Create appends; callers persist a room's messages in timestamp order.
func (r *messageRepository) Create(_ context.Context, message *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byRoom[message.RoomToken] = append(r.byRoom[message.RoomToken], *message)
	return nil
}

func (r *messageRepository) GetRecentByRoom(_ context.Context, roomToken string, limit int) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byRoom[roomToken]
	if limit <= 0 || limit > len(stored) {
		limit = len(stored)
	}

	out := make([]*model.Message, 0, limit)
	for i := len(stored) - 1; i >= len(stored)-limit; i-- {
		m := stored[i]
		out = append(out, &m)
	}
	return out, nil
}
