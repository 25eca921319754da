package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	chatUseCase "github.com/hilthontt/townhall/application/usecases/chat"
	messageUseCase "github.com/hilthontt/townhall/application/usecases/message"
	presenceUseCase "github.com/hilthontt/townhall/application/usecases/presence"
	roomUseCase "github.com/hilthontt/townhall/application/usecases/room"
	"github.com/hilthontt/townhall/domain/event"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/infrastructure/persistence/memory"
	"github.com/hilthontt/townhall/infrastructure/registry"
	"github.com/hilthontt/townhall/infrastructure/websocket"
	"github.com/stretchr/testify/require"
)

type received struct {
	Type      event.Type      `json:"type"`
	RoomToken string          `json:"roomToken"`
	Data      json.RawMessage `json:"data"`
}

func startServer(t *testing.T) (string, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reg := registry.New()
	core := websocket.NewCore(log, nil)
	go core.Run(ctx)

	publisher := events.NewNoopPublisher()
	rooms := roomUseCase.NewRoomUseCase(memory.NewRoomRepository(), publisher, log)
	messages := messageUseCase.NewMessageUseCase(memory.NewMessageRepository(), reg, publisher, log)
	presence := presenceUseCase.NewPresenceUseCase(reg, core, publisher, log)
	chat := chatUseCase.NewChatUseCase(rooms, messages, presence, reg, core, log, 50)

	controller := NewWebSocketController(ctx, chat, core, websocket.ClientOptions{
		SendBuffer:        16,
		MessagesPerSecond: 100,
		MessageBurst:      100,
	}, log)

	router := gin.New()
	router.GET("/ws", controller.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", reg
}

func dial(t *testing.T, url string) *gorilla.Conn {
	t.Helper()
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *gorilla.Conn, frame any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func next(t *testing.T, conn *gorilla.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var env received
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func expect[T any](t *testing.T, conn *gorilla.Conn, typ event.Type) (received, T) {
	t.Helper()
	env := next(t, conn)
	require.Equal(t, typ, env.Type, string(env.Data))
	var data T
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return env, data
}

func join(name, token string) map[string]any {
	return map[string]any{"type": "join", "data": map[string]string{"displayName": name, "roomToken": token}}
}

func TestChatOverWebSocket(t *testing.T) {
	url, reg := startServer(t)

	alice := dial(t, url)
	send(t, alice, join("alice", ""))

	env, joined := expect[event.PresencePayload](t, alice, event.PresenceJoined)
	token := env.RoomToken
	require.NotEmpty(t, token)
	require.Equal(t, "alice", joined.DisplayName)
	require.Equal(t, []string{"alice"}, joined.Members)

	_, history := expect[event.HistoryPayload](t, alice, event.MessageHistory)
	require.Empty(t, history.Messages)

	send(t, alice, map[string]any{"type": "message", "data": map[string]string{"body": "first"}})
	_, first := expect[event.MessagePayload](t, alice, event.Message)
	require.Equal(t, "first", first.Body)
	require.Equal(t, "alice", first.Author)

	bob := dial(t, url)
	send(t, bob, join("bob", token))

	_, bobJoined := expect[event.PresencePayload](t, bob, event.PresenceJoined)
	require.ElementsMatch(t, []string{"alice", "bob"}, bobJoined.Members)
	_, bobHistory := expect[event.HistoryPayload](t, bob, event.MessageHistory)
	require.Len(t, bobHistory.Messages, 1)
	require.Equal(t, "first", bobHistory.Messages[0].Body)

	_, seen := expect[event.PresencePayload](t, alice, event.PresenceJoined)
	require.Equal(t, "bob", seen.DisplayName)

	send(t, bob, map[string]any{"type": "message", "data": map[string]string{"body": "hi alice"}})
	_, toAlice := expect[event.MessagePayload](t, alice, event.Message)
	_, toBob := expect[event.MessagePayload](t, bob, event.Message)
	require.Equal(t, toAlice, toBob)
	require.Equal(t, "bob", toBob.Author)

	require.NoError(t, alice.Close())

	env, left := expect[event.PresencePayload](t, bob, event.PresenceLeft)
	require.Equal(t, token, env.RoomToken)
	require.Equal(t, "alice", left.DisplayName)
	require.Equal(t, []string{"bob"}, left.Members)
	require.Equal(t, []string{"bob"}, reg.MembersOf(token))
}

func TestErrorFramesGoToSenderOnly(t *testing.T) {
	url, _ := startServer(t)
	conn := dial(t, url)

	send(t, conn, map[string]any{"type": "message", "data": map[string]string{"body": "hello"}})
	_, notJoined := expect[event.ErrorPayload](t, conn, event.Error)
	require.Equal(t, "not_joined", notJoined.Code)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte("not json")))
	_, invalid := expect[event.ErrorPayload](t, conn, event.Error)
	require.Equal(t, websocket.CodeInvalidFrame, invalid.Code)

	send(t, conn, map[string]any{"type": "dance"})
	_, unknown := expect[event.ErrorPayload](t, conn, event.Error)
	require.Equal(t, websocket.CodeUnknownType, unknown.Code)

	send(t, conn, join("   ", ""))
	_, badName := expect[event.ErrorPayload](t, conn, event.Error)
	require.Equal(t, "invalid_display_name", badName.Code)

	send(t, conn, join("carol", ""))
	expect[event.PresencePayload](t, conn, event.PresenceJoined)
	expect[event.HistoryPayload](t, conn, event.MessageHistory)

	send(t, conn, map[string]any{"type": "message", "data": map[string]string{"body": "   "}})
	_, empty := expect[event.ErrorPayload](t, conn, event.Error)
	require.Equal(t, "invalid_message", empty.Code)
}
