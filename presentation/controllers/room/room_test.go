package room

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	messageUseCase "github.com/hilthontt/townhall/application/usecases/message"
	roomUseCase "github.com/hilthontt/townhall/application/usecases/room"
	"github.com/hilthontt/townhall/infrastructure/events"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/infrastructure/persistence/memory"
	"github.com/hilthontt/townhall/infrastructure/registry"
	"github.com/stretchr/testify/require"
)

type harness struct {
	router   *gin.Engine
	registry *registry.Registry
	messages messageUseCase.MessageUseCase
}

func newHarness() *harness {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	reg := registry.New()

	rooms := roomUseCase.NewRoomUseCase(memory.NewRoomRepository(), events.NewNoopPublisher(), log)
	messages := messageUseCase.NewMessageUseCase(memory.NewMessageRepository(), reg, events.NewNoopPublisher(), log)
	controller := NewRoomController(rooms, messages, reg, log, 3)

	router := gin.New()
	router.POST("/rooms", controller.ResolveRoom)
	router.GET("/rooms/:token", controller.GetRoom)
	router.GET("/rooms/:token/messages", controller.GetMessages)

	return &harness{router: router, registry: reg, messages: messages}
}

func (h *harness) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) resolve(t *testing.T, body string) RoomResponse {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/rooms", []byte(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out RoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestResolveRoom(t *testing.T) {
	req := require.New(t)
	h := newHarness()

	minted := h.resolve(t, "")
	req.True(roomUseCase.ValidToken(minted.Token))
	req.Equal("Room "+minted.Token, minted.Name)
	req.Empty(minted.Members)

	h.registry.Join("c1", "alice", minted.Token)

	again := h.resolve(t, fmt.Sprintf(`{"roomToken":%q}`, minted.Token))
	req.Equal(minted.Token, again.Token)
	req.Equal([]string{"alice"}, again.Members)

	fresh := h.resolve(t, `{"roomToken":"no-such-room"}`)
	req.NotEqual("no-such-room", fresh.Token)
}

func TestGetRoomPage(t *testing.T) {
	req := require.New(t)
	h := newHarness()
	ctx := context.Background()

	room := h.resolve(t, "")
	h.registry.Join("c1", "alice", room.Token)
	for i := range 5 {
		_, err := h.messages.Send(ctx, "c1", fmt.Sprintf("message %d", i))
		req.NoError(err)
	}

	rec := h.do(t, http.MethodGet, "/rooms/"+room.Token, nil)
	req.Equal(http.StatusOK, rec.Code)

	var page RoomPageResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
	req.Equal(room.Token, page.Token)
	req.Equal([]string{"alice"}, page.Members)
	req.Len(page.Messages, 3)
	req.Equal("message 2", page.Messages[0].Body)
	req.Equal("message 4", page.Messages[2].Body)

	rec = h.do(t, http.MethodGet, "/rooms/a1b2c3d4e5f6", nil)
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestGetMessages(t *testing.T) {
	req := require.New(t)
	h := newHarness()
	ctx := context.Background()

	room := h.resolve(t, "")
	h.registry.Join("c1", "alice", room.Token)
	for i := range 4 {
		_, err := h.messages.Send(ctx, "c1", fmt.Sprintf("m%d", i))
		req.NoError(err)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"m1", "m2", "m3"}},
		{"?limit=2", []string{"m2", "m3"}},
		{"?limit=-1", []string{"m0", "m1", "m2", "m3"}},
	}
	for _, tt := range tests {
		t.Run("limit"+tt.query, func(t *testing.T) {
			rec := h.do(t, http.MethodGet, "/rooms/"+room.Token+"/messages"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var out MessagesResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			require.Equal(t, len(tt.want), out.Count)
			for i, body := range tt.want {
				require.Equal(t, body, out.Messages[i].Body)
			}
		})
	}

	rec := h.do(t, http.MethodGet, "/rooms/unknown/messages?limit=abc", nil)
	req.Equal(http.StatusBadRequest, rec.Code)
}
