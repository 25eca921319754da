package presence

import (
	"context"

	"github.com/hilthontt/townhall/domain/event"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/infrastructure/registry"
	"go.uber.org/zap"
)

// RoomMembers is the read side of the connection registry.
type RoomMembers interface {
	MembersOf(roomToken string) []string
	ConnectionsIn(roomToken string) []string
}

type PresenceUseCase interface {
	// OnJoin announces entry to everyone now in its room, the joiner included.
	OnJoin(ctx context.Context, entry registry.Entry)
	// OnLeave announces entry to whoever is left in its room.
	OnLeave(ctx context.Context, entry registry.Entry)
}

type presenceUseCase struct {
	members        RoomMembers
	dispatcher     event.Dispatcher
	eventPublisher events.Publisher
	logger         *logger.Logger
}

func NewPresenceUseCase(
	members RoomMembers,
	dispatcher event.Dispatcher,
	eventPublisher events.Publisher,
	logger *logger.Logger,
) PresenceUseCase {
	return &presenceUseCase{
		members:        members,
		dispatcher:     dispatcher,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (uc *presenceUseCase) OnJoin(_ context.Context, entry registry.Entry) {
	uc.announce(event.PresenceJoined, events.EventMemberJoined, entry)
}

func (uc *presenceUseCase) OnLeave(_ context.Context, entry registry.Entry) {
	uc.announce(event.PresenceLeft, events.EventMemberLeft, entry)
}

func (uc *presenceUseCase) announce(t event.Type, busType events.EventType, entry registry.Entry) {
	members := uc.members.MembersOf(entry.RoomToken)
	recipients := uc.members.ConnectionsIn(entry.RoomToken)

	if len(recipients) > 0 {
		uc.dispatcher.Dispatch(recipients, event.NewPresence(t, entry.RoomToken, entry.ConnectionID, entry.DisplayName, members))
	}

	events.PublishAsync(uc.eventPublisher, uc.logger, events.NewEvent(busType, entry.RoomToken, map[string]any{
		"connectionId": entry.ConnectionID,
		"displayName":  entry.DisplayName,
		"members":      members,
	}))

	uc.logger.Info("presence changed",
		zap.String("type", string(t)),
		zap.String("roomToken", entry.RoomToken),
		zap.String("displayName", entry.DisplayName),
		zap.Int("members", len(members)),
	)
}
