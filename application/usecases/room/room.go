package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/domain/repository"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.uber.org/zap"
)

const maxTokenAttempts = 5

var ErrTokenSpaceExhausted = errors.New("could not mint a unique room token")

type RoomUseCase interface {
	// Resolve returns the room behind requestedToken, or a freshly minted
	// room when the token is empty or unknown.
	Resolve(ctx context.Context, requestedToken string) (*model.Room, error)
	Get(ctx context.Context, token string) (*model.Room, error)
}

type roomUseCase struct {
	repository     repository.RoomRepository
	eventPublisher events.Publisher
	logger         *logger.Logger
	newToken       func() (string, error)
	now            func() time.Time
}

func NewRoomUseCase(
	repository repository.RoomRepository,
	eventPublisher events.Publisher,
	logger *logger.Logger,
) RoomUseCase {
	return &roomUseCase{
		repository:     repository,
		eventPublisher: eventPublisher,
		logger:         logger,
		newToken:       generateToken,
		now:            time.Now,
	}
}

func (uc *roomUseCase) Resolve(ctx context.Context, requestedToken string) (*model.Room, error) {
	requestedToken = strings.TrimSpace(requestedToken)

	if requestedToken != "" {
		room, err := uc.repository.GetByToken(ctx, requestedToken)
		switch {
		case err == nil:
			return room, nil
		case !errors.Is(err, apperror.ErrNotFound):
			uc.logger.Error("failed to look up room", zap.Error(err), zap.String("token", requestedToken))
			return nil, fmt.Errorf("failed to look up room: %w", err)
		}
		uc.logger.Debug("requested room token unknown, minting a new room", zap.String("token", requestedToken))
	}

	return uc.create(ctx)
}

func (uc *roomUseCase) create(ctx context.Context) (*model.Room, error) {
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := uc.newToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room token: %w", err)
		}

		room := &model.Room{
			ID:        uuid.NewString(),
			Token:     token,
			Name:      model.DefaultRoomName(token),
			CreatedAt: uc.now().UTC(),
		}

		err = uc.repository.Create(ctx, room)
		if errors.Is(err, apperror.ErrDuplicateToken) {
			uc.logger.Warn("room token collision, retrying", zap.String("token", token), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			uc.logger.Error("failed to create room", zap.Error(err), zap.String("token", token))
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		events.PublishAsync(uc.eventPublisher, uc.logger, events.NewEvent(events.EventRoomCreated, room.Token, map[string]any{
			"id":   room.ID,
			"name": room.Name,
		}))

		uc.logger.Info("room created", zap.String("token", room.Token))
		return room, nil
	}

	return nil, ErrTokenSpaceExhausted
}

func (uc *roomUseCase) Get(ctx context.Context, token string) (*model.Room, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.ErrNotFound
	}

	room, err := uc.repository.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrNotFound.Withf("room %s not found", token)
		}
		uc.logger.Error("failed to get room", zap.Error(err), zap.String("token", token))
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}
