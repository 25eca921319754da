package cache

import (
	"context"
	"time"

	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
)

// RoomCache keeps resolved rooms in process. Rooms never change or go away
// once created, so entries only leave by eviction.
type RoomCache struct {
	repository.RoomRepository
	local *Local[model.Room]
}

func NewRoomCache(inner repository.RoomRepository, maxItems int, ttl time.Duration) *RoomCache {
	return &RoomCache{
		RoomRepository: inner,
		local:          NewLocal[model.Room](LocalOptions{MaxItems: maxItems, TTL: ttl}),
	}
}

func (c *RoomCache) Create(ctx context.Context, room *model.Room) error {
	if err := c.RoomRepository.Create(ctx, room); err != nil {
		return err
	}
	c.local.Set(room.Token, *room)
	return nil
}

func (c *RoomCache) GetByToken(ctx context.Context, token string) (*model.Room, error) {
	if room, ok := c.local.Get(token); ok {
		return &room, nil
	}

	room, err := c.RoomRepository.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	c.local.Set(token, *room)
	return room, nil
}
