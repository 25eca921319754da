package message

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/keylock"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/infrastructure/registry"
	"go.uber.org/zap"
)

const (
	maxMessageLength = 2000

	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
)

// ConnectionLookup finds the room a connection currently sits in.
type ConnectionLookup interface {
	Lookup(connectionID string) (registry.Entry, bool)
}

type MessageUseCase interface {
	// Send persists body as a message of the sender's current room.
	Send(ctx context.Context, connectionID, body string) (*model.Message, error)
	// History returns up to limit most recent messages, oldest first.
	History(ctx context.Context, roomToken string, limit int) ([]*model.Message, error)
}

type messageUseCase struct {
	repository     repository.MessageRepository
	connections    ConnectionLookup
	eventPublisher events.Publisher
	logger         *logger.Logger
	locks          *keylock.KeyLock
	now            func() time.Time

	stampMu    sync.Mutex
	lastStamps map[string]time.Time
}

func NewMessageUseCase(
	repository repository.MessageRepository,
	connections ConnectionLookup,
	eventPublisher events.Publisher,
	logger *logger.Logger,
) MessageUseCase {
	return &messageUseCase{
		repository:     repository,
		connections:    connections,
		eventPublisher: eventPublisher,
		logger:         logger,
		locks:          keylock.New(),
		now:            time.Now,
		lastStamps:     make(map[string]time.Time),
	}
}

func (uc *messageUseCase) Send(ctx context.Context, connectionID, body string) (*model.Message, error) {
	sender, ok := uc.connections.Lookup(connectionID)
	if !ok {
		return nil, apperror.ErrNotJoined
	}

	body, err := validateMessageContent(body)
	if err != nil {
		return nil, err
	}

	unlock := uc.locks.Lock(sender.RoomToken)
	defer unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	message := &model.Message{
		ID:        id.String(),
		RoomToken: sender.RoomToken,
		Author:    sender.DisplayName,
		Body:      body,
		CreatedAt: uc.stamp(sender.RoomToken),
	}

	if err := uc.repository.Create(ctx, message); err != nil {
		uc.logger.Error("failed to persist message",
			zap.Error(err),
			zap.String("roomToken", sender.RoomToken),
			zap.String("connectionID", connectionID),
		)
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	events.PublishAsync(uc.eventPublisher, uc.logger, events.NewEvent(events.EventMessageSent, message.RoomToken, map[string]any{
		"id":        message.ID,
		"author":    message.Author,
		"body":      message.Body,
		"createdAt": message.CreatedAt,
	}))

	uc.logger.Debug("message persisted", zap.String("messageID", message.ID), zap.String("roomToken", message.RoomToken))
	return message, nil
}

func (uc *messageUseCase) History(ctx context.Context, roomToken string, limit int) ([]*model.Message, error) {
	if roomToken == "" {
		return []*model.Message{}, nil
	}

	messages, err := uc.repository.GetRecentByRoom(ctx, roomToken, normalizeLimit(limit))
	if err != nil {
		uc.logger.Error("failed to load message history", zap.Error(err), zap.String("roomToken", roomToken))
		return nil, fmt.Errorf("failed to load message history: %w", err)
	}
	if messages == nil {
		return []*model.Message{}, nil
	}

	slices.Reverse(messages)
	return messages, nil
}

// stamp hands out the server timestamp for the next message of a room, at
// the millisecond precision every store keeps. It never goes below the
// previous stamp even if the wall clock steps back. Callers hold the room
// lock.
func (uc *messageUseCase) stamp(roomToken string) time.Time {
	now := uc.now().UTC().Truncate(time.Millisecond)

	uc.stampMu.Lock()
	defer uc.stampMu.Unlock()

	if last, ok := uc.lastStamps[roomToken]; ok && now.Before(last) {
		now = last
	}
	uc.lastStamps[roomToken] = now
	return now
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		return MaxMessageLimit
	}
	return limit
}

func validateMessageContent(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", apperror.ErrInvalidMessage.Withf("message body cannot be empty")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return "", apperror.ErrInvalidMessage.Withf("message body exceeds %d characters", maxMessageLength)
	}
	return body, nil
}
