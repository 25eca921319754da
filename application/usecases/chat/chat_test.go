package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hilthontt/townhall/application/usecases/message"
	"github.com/hilthontt/townhall/application/usecases/presence"
	"github.com/hilthontt/townhall/application/usecases/room"
	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/event"
	"github.com/hilthontt/townhall/domain/repository"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/infrastructure/persistence/memory"
	"github.com/hilthontt/townhall/infrastructure/registry"
	"github.com/hilthontt/townhall/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	frames map[string][]*event.Envelope
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{frames: make(map[string][]*event.Envelope)}
}

func (d *recordingDispatcher) Dispatch(connectionIDs []string, env *event.Envelope) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range connectionIDs {
		d.frames[id] = append(d.frames[id], env)
	}
}

func (d *recordingDispatcher) types(connectionID string) []event.Type {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]event.Type, 0, len(d.frames[connectionID]))
	for _, env := range d.frames[connectionID] {
		out = append(out, env.Type)
	}
	return out
}

func (d *recordingDispatcher) last(connectionID string) *event.Envelope {
	d.mu.Lock()
	defer d.mu.Unlock()
	frames := d.frames[connectionID]
	if len(frames) == 0 {
		return nil
	}
	return frames[len(frames)-1]
}

type harness struct {
	chat       ChatUseCase
	registry   *registry.Registry
	dispatcher *recordingDispatcher
}

func newHarness(t *testing.T, rooms repository.RoomRepository, messages repository.MessageRepository) *harness {
	t.Helper()
	log := logger.NewNop()
	publisher := events.NewNoopPublisher()
	reg := registry.New()
	dispatcher := newRecordingDispatcher()

	roomUC := room.NewRoomUseCase(rooms, publisher, log)
	messageUC := message.NewMessageUseCase(messages, reg, publisher, log)
	presenceUC := presence.NewPresenceUseCase(reg, dispatcher, publisher, log)

	return &harness{
		chat:       NewChatUseCase(roomUC, messageUC, presenceUC, reg, dispatcher, log, message.DefaultMessageLimit),
		registry:   reg,
		dispatcher: dispatcher,
	}
}

func newMemoryHarness(t *testing.T) *harness {
	return newHarness(t, memory.NewRoomRepository(), memory.NewMessageRepository())
}

func TestAliceAndBob(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newMemoryHarness(t)

	// Given a minted room with alice and bob in it
	joined, err := h.chat.Join(ctx, "c1", "alice", "")
	req.NoError(err)
	req.True(room.ValidToken(joined.Token))

	again, err := h.chat.Join(ctx, "c2", "bob", joined.Token)
	req.NoError(err)
	req.Equal(joined.ID, again.ID)
	req.Equal([]string{"alice", "bob"}, h.registry.MembersOf(joined.Token))

	// When alice disconnects
	h.chat.Leave(ctx, "c1")

	// Then only bob remains and only bob hears about it
	req.Equal([]string{"bob"}, h.registry.MembersOf(joined.Token))

	last := h.dispatcher.last("c2")
	req.Equal(event.PresenceLeft, last.Type)
	req.Equal("alice", last.Data.(event.PresencePayload).DisplayName)
	req.NotContains(h.dispatcher.types("c1"), event.PresenceLeft)
}

func TestJoinDeliversPresenceThenHistory(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newMemoryHarness(t)

	joined, err := h.chat.Join(ctx, "c1", "alice", "")
	req.NoError(err)
	_, err = h.chat.Send(ctx, "c1", "A")
	req.NoError(err)
	_, err = h.chat.Send(ctx, "c1", "B")
	req.NoError(err)

	_, err = h.chat.Join(ctx, "c2", "bob", joined.Token)
	req.NoError(err)

	req.Equal([]event.Type{event.PresenceJoined, event.MessageHistory}, h.dispatcher.types("c2"))

	history := h.dispatcher.last("c2").Data.(event.HistoryPayload)
	req.Len(history.Messages, 2)
	req.Equal("A", history.Messages[0].Body)
	req.Equal("B", history.Messages[1].Body)
}

func TestSendReachesWholeRoomOnly(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newMemoryHarness(t)

	joined, err := h.chat.Join(ctx, "c1", "alice", "")
	req.NoError(err)
	_, err = h.chat.Join(ctx, "c2", "bob", joined.Token)
	req.NoError(err)
	_, err = h.chat.Join(ctx, "c3", "carol", "")
	req.NoError(err)

	sent, err := h.chat.Send(ctx, "c2", " hello ")
	req.NoError(err)
	req.Equal("hello", sent.Body)
	req.Equal("bob", sent.Author)

	for _, id := range []string{"c1", "c2"} {
		last := h.dispatcher.last(id)
		req.Equal(event.Message, last.Type, id)
		req.Equal(sent.ID, last.Data.(event.MessagePayload).ID)
	}
	req.NotEqual(event.Message, h.dispatcher.last("c3").Type)
}

func TestSendWithoutJoin(t *testing.T) {
	req := require.New(t)
	h := newMemoryHarness(t)

	_, err := h.chat.Send(context.Background(), "ghost", "hi")

	req.ErrorIs(err, apperror.ErrNotJoined)
	req.Empty(h.dispatcher.types("ghost"))
}

func TestFailedResolveRegistersNothing(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	rooms := mocks.NewMockRoomRepository(ctrl)
	storageDown := errors.New("no reachable servers")
	rooms.EXPECT().GetByToken(gomock.Any(), "a1b2c3d4e5f6").Return(nil, storageDown)

	h := newHarness(t, rooms, memory.NewMessageRepository())

	_, err := h.chat.Join(context.Background(), "c1", "alice", "a1b2c3d4e5f6")

	req.ErrorIs(err, storageDown)
	_, ok := h.registry.Lookup("c1")
	req.False(ok)
	req.Zero(h.registry.RoomCount())
	req.Empty(h.dispatcher.types("c1"))
}

func TestHistoryFailureKeepsJoin(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	messages := mocks.NewMockMessageRepository(ctrl)
	messages.EXPECT().GetRecentByRoom(gomock.Any(), gomock.Any(), message.DefaultMessageLimit).Return(nil, errors.New("timeout"))

	h := newHarness(t, memory.NewRoomRepository(), messages)

	joined, err := h.chat.Join(context.Background(), "c1", "alice", "")

	req.NoError(err)
	req.Equal([]string{"alice"}, h.registry.MembersOf(joined.Token))
	req.Equal([]event.Type{event.PresenceJoined, event.Error}, h.dispatcher.types("c1"))
}

func TestDisplayNameRules(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		h := newMemoryHarness(t)
		_, err := h.chat.Join(ctx, "c1", "   ", "")
		require.ErrorIs(t, err, apperror.ErrInvalidDisplayName)
		require.Zero(t, h.registry.Count())
	})

	t.Run("too long", func(t *testing.T) {
		h := newMemoryHarness(t)
		long := make([]rune, maxDisplayNameLength+1)
		for i := range long {
			long[i] = 'a'
		}
		_, err := h.chat.Join(ctx, "c1", string(long), "")
		require.ErrorIs(t, err, apperror.ErrInvalidDisplayName)
	})

	t.Run("locked after join", func(t *testing.T) {
		h := newMemoryHarness(t)
		joined, err := h.chat.Join(ctx, "c1", "alice", "")
		require.NoError(t, err)

		_, err = h.chat.Join(ctx, "c1", "mallory", joined.Token)
		require.ErrorIs(t, err, apperror.ErrDisplayNameLocked)

		_, err = h.chat.Join(ctx, "c1", " alice ", joined.Token)
		require.NoError(t, err)
		require.Equal(t, []string{"alice"}, h.registry.MembersOf(joined.Token))
	})
}

func TestSwitchingRoomsAnnouncesLeave(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newMemoryHarness(t)

	first, err := h.chat.Join(ctx, "c1", "alice", "")
	req.NoError(err)
	_, err = h.chat.Join(ctx, "c2", "bob", first.Token)
	req.NoError(err)

	second, err := h.chat.Join(ctx, "c1", "alice", "")
	req.NoError(err)
	req.NotEqual(first.Token, second.Token)

	req.Equal([]string{"bob"}, h.registry.MembersOf(first.Token))
	req.Equal([]string{"alice"}, h.registry.MembersOf(second.Token))

	last := h.dispatcher.last("c2")
	req.Equal(event.PresenceLeft, last.Type)
	req.Equal(first.Token, last.RoomToken)
}

func TestLeaveIsIdempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newMemoryHarness(t)

	_, err := h.chat.Join(ctx, "c1", "alice", "")
	req.NoError(err)

	h.chat.Leave(ctx, "c1")
	h.chat.Leave(ctx, "c1")
	h.chat.Leave(ctx, "never-joined")

	req.Zero(h.registry.Count())
	req.Zero(h.registry.RoomCount())
}
