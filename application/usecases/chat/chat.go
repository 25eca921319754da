// Package chat drives a connection through its session: joining a room,
// talking in it and leaving it.
package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/hilthontt/townhall/application/usecases/message"
	"github.com/hilthontt/townhall/application/usecases/presence"
	"github.com/hilthontt/townhall/application/usecases/room"
	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/event"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/infrastructure/keylock"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/infrastructure/registry"
	"go.uber.org/zap"
)

const maxDisplayNameLength = 50

// Sessions is the part of the connection registry the orchestrator writes.
type Sessions interface {
	Join(connectionID, displayName, roomToken string) (registry.Entry, bool)
	Leave(connectionID string) (registry.Entry, bool)
	Lookup(connectionID string) (registry.Entry, bool)
	ConnectionsIn(roomToken string) []string
}

type ChatUseCase interface {
	Join(ctx context.Context, connectionID, displayName, roomToken string) (*model.Room, error)
	Send(ctx context.Context, connectionID, body string) (*model.Message, error)
	// Leave is safe to call for connections that never joined.
	Leave(ctx context.Context, connectionID string)
}

type chatUseCase struct {
	rooms        room.RoomUseCase
	messages     message.MessageUseCase
	presence     presence.PresenceUseCase
	sessions     Sessions
	dispatcher   event.Dispatcher
	logger       *logger.Logger
	locks        *keylock.KeyLock
	historyLimit int
}

func NewChatUseCase(
	rooms room.RoomUseCase,
	messages message.MessageUseCase,
	presence presence.PresenceUseCase,
	sessions Sessions,
	dispatcher event.Dispatcher,
	logger *logger.Logger,
	historyLimit int,
) ChatUseCase {
	return &chatUseCase{
		rooms:        rooms,
		messages:     messages,
		presence:     presence,
		sessions:     sessions,
		dispatcher:   dispatcher,
		logger:       logger,
		locks:        keylock.New(),
		historyLimit: historyLimit,
	}
}

func (uc *chatUseCase) Join(ctx context.Context, connectionID, displayName, roomToken string) (*model.Room, error) {
	displayName, err := uc.validateDisplayName(connectionID, displayName)
	if err != nil {
		return nil, err
	}

	joined, err := uc.rooms.Resolve(ctx, strings.TrimSpace(roomToken))
	if err != nil {
		uc.logger.Warn("failed to resolve room for join",
			zap.Error(err),
			zap.String("connectionID", connectionID),
			zap.String("requestedToken", roomToken),
		)
		return nil, err
	}

	previous, moved := uc.enter(ctx, connectionID, displayName, joined.Token)
	if moved {
		uc.announceLeave(ctx, previous)
	}

	uc.logger.Info("connection joined room",
		zap.String("connectionID", connectionID),
		zap.String("displayName", displayName),
		zap.String("roomToken", joined.Token),
	)
	return joined, nil
}

// enter registers the connection, announces it and replays history while
// holding the room lock, so the joiner sees every message exactly once:
// either in the history or as a live frame.
func (uc *chatUseCase) enter(ctx context.Context, connectionID, displayName, roomToken string) (registry.Entry, bool) {
	unlock := uc.locks.Lock(roomToken)
	defer unlock()

	previous, moved := uc.sessions.Join(connectionID, displayName, roomToken)
	entry, _ := uc.sessions.Lookup(connectionID)

	uc.presence.OnJoin(ctx, entry)

	history, err := uc.messages.History(ctx, roomToken, uc.historyLimit)
	if err != nil {
		uc.dispatcher.Dispatch([]string{connectionID}, event.NewError(apperror.CodeOf(err), "failed to load message history"))
		return previous, moved
	}
	uc.dispatcher.Dispatch([]string{connectionID}, event.NewHistory(roomToken, history))

	return previous, moved
}

func (uc *chatUseCase) Send(ctx context.Context, connectionID, body string) (*model.Message, error) {
	sender, ok := uc.sessions.Lookup(connectionID)
	if !ok {
		return nil, apperror.ErrNotJoined
	}

	unlock := uc.locks.Lock(sender.RoomToken)
	defer unlock()

	sent, err := uc.messages.Send(ctx, connectionID, body)
	if err != nil {
		return nil, err
	}

	uc.dispatcher.Dispatch(uc.sessions.ConnectionsIn(sent.RoomToken), event.NewMessage(sent))
	return sent, nil
}

func (uc *chatUseCase) Leave(ctx context.Context, connectionID string) {
	entry, ok := uc.sessions.Lookup(connectionID)
	if !ok {
		return
	}

	unlock := uc.locks.Lock(entry.RoomToken)
	entry, ok = uc.sessions.Leave(connectionID)
	if ok {
		uc.presence.OnLeave(ctx, entry)
	}
	unlock()

	if ok {
		uc.logger.Info("connection left room",
			zap.String("connectionID", connectionID),
			zap.String("roomToken", entry.RoomToken),
		)
	}
}

func (uc *chatUseCase) announceLeave(ctx context.Context, entry registry.Entry) {
	unlock := uc.locks.Lock(entry.RoomToken)
	defer unlock()

	uc.presence.OnLeave(ctx, entry)
}

func (uc *chatUseCase) validateDisplayName(connectionID, displayName string) (string, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return "", apperror.ErrInvalidDisplayName.Withf("display name cannot be empty")
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return "", apperror.ErrInvalidDisplayName.Withf("display name exceeds %d characters", maxDisplayNameLength)
	}
	if current, ok := uc.sessions.Lookup(connectionID); ok && current.DisplayName != displayName {
		return "", apperror.ErrDisplayNameLocked.Withf("connection already joined as %q", current.DisplayName)
	}
	return displayName, nil
}
