package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	historyKeyPrefix = "townhall:history:"
	historyTTL       = 24 * time.Hour
)

// MessageHistoryCache keeps the newest messages of every room in a redis
// sorted set scored by creation time. The set is only trusted once a warm
// marker exists for the room; until then reads go to the wrapped repository,
// which stays the source of truth. Redis failures are logged and bypassed.
type MessageHistoryCache struct {
	inner  repository.MessageRepository
	redis  *redis.Client
	size   int
	logger *logger.Logger
}

func NewMessageHistoryCache(inner repository.MessageRepository, client *redis.Client, size int, log *logger.Logger) *MessageHistoryCache {
	if size <= 0 {
		size = 200
	}
	return &MessageHistoryCache{inner: inner, redis: client, size: size, logger: log}
}

func historyKey(roomToken string) string {
	return historyKeyPrefix + roomToken
}

func warmKey(roomToken string) string {
	return historyKeyPrefix + roomToken + ":warm"
}

func (c *MessageHistoryCache) Create(ctx context.Context, message *model.Message) error {
	if err := c.inner.Create(ctx, message); err != nil {
		return err
	}

	if err := c.add(ctx, message.RoomToken, message); err != nil {
		c.logger.Warn("failed to cache message, invalidating room history",
			zap.Error(err),
			zap.String("roomToken", message.RoomToken),
		)
		c.redis.Del(ctx, warmKey(message.RoomToken), historyKey(message.RoomToken))
	}
	return nil
}

func (c *MessageHistoryCache) GetRecentByRoom(ctx context.Context, roomToken string, limit int) ([]*model.Message, error) {
	if limit > 0 && limit <= c.size {
		cached, hit, err := c.recent(ctx, roomToken, limit)
		if err != nil {
			c.logger.Warn("history cache read failed", zap.Error(err), zap.String("roomToken", roomToken))
		}
		if hit {
			return cached, nil
		}
	}

	messages, err := c.inner.GetRecentByRoom(ctx, roomToken, limit)
	if err != nil {
		return nil, err
	}

	if err := c.warm(ctx, roomToken); err != nil {
		c.logger.Debug("failed to warm history cache", zap.Error(err), zap.String("roomToken", roomToken))
	}
	return messages, nil
}

func (c *MessageHistoryCache) recent(ctx context.Context, roomToken string, limit int) ([]*model.Message, bool, error) {
	warm, err := c.redis.Exists(ctx, warmKey(roomToken)).Result()
	if err != nil || warm == 0 {
		return nil, false, err
	}

	raw, err := c.redis.ZRevRange(ctx, historyKey(roomToken), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, false, err
	}

	out := make([]*model.Message, 0, len(raw))
	for _, r := range raw {
		var m model.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, false, fmt.Errorf("failed to decode cached message: %w", err)
		}
		out = append(out, &m)
	}
	return out, true, nil
}

// warm merges the newest stored messages into the set and marks it trusted.
// Messages added concurrently by Create are newer than the snapshot, so the
// merge never loses them.
func (c *MessageHistoryCache) warm(ctx context.Context, roomToken string) error {
	messages, err := c.inner.GetRecentByRoom(ctx, roomToken, c.size)
	if err != nil {
		return err
	}

	members := make([]redis.Z, 0, len(messages))
	for _, m := range messages {
		z, err := member(m)
		if err != nil {
			return err
		}
		members = append(members, z)
	}

	key := historyKey(roomToken)
	_, err = c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(members) > 0 {
			pipe.ZAdd(ctx, key, members...)
			pipe.ZRemRangeByRank(ctx, key, 0, int64(-c.size-1))
			pipe.Expire(ctx, key, historyTTL)
		}
		pipe.Set(ctx, warmKey(roomToken), 1, historyTTL)
		return nil
	})
	return err
}

func (c *MessageHistoryCache) add(ctx context.Context, roomToken string, m *model.Message) error {
	z, err := member(m)
	if err != nil {
		return err
	}

	key := historyKey(roomToken)
	_, err = c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, z)
		pipe.ZRemRangeByRank(ctx, key, 0, int64(-c.size-1))
		pipe.Expire(ctx, key, historyTTL)
		return nil
	})
	return err
}

// member encodes m canonically so the copy written on send and the copy read
// back from the store collapse into one set member.
func member(m *model.Message) (redis.Z, error) {
	canonical := *m
	canonical.CreatedAt = m.CreatedAt.UTC().Truncate(time.Millisecond)

	data, err := json.Marshal(canonical)
	if err != nil {
		return redis.Z{}, err
	}
	return redis.Z{Score: float64(canonical.CreatedAt.UnixMilli()), Member: string(data)}, nil
}
