package room

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/application/usecases/message"
	"github.com/hilthontt/townhall/application/usecases/room"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/presentation/controllers"
)

// Members lists the display names currently connected to a room.
type Members interface {
	MembersOf(roomToken string) []string
}

type RoomController interface {
	ResolveRoom(ctx *gin.Context)
	GetRoom(ctx *gin.Context)
	GetMessages(ctx *gin.Context)
}

type roomController struct {
	rooms        room.RoomUseCase
	messages     message.MessageUseCase
	members      Members
	logger       *logger.Logger
	historyLimit int
}

func NewRoomController(
	rooms room.RoomUseCase,
	messages message.MessageUseCase,
	members Members,
	logger *logger.Logger,
	historyLimit int,
) RoomController {
	return &roomController{
		rooms:        rooms,
		messages:     messages,
		members:      members,
		logger:       logger,
		historyLimit: historyLimit,
	}
}

// ResolveRoom returns the requested room, or mints one when the body is
// empty or names an unknown token.
func (c *roomController) ResolveRoom(ctx *gin.Context) {
	var req ResolveRoomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		controllers.BindError(ctx, err)
		return
	}

	room, err := c.rooms.Resolve(ctx.Request.Context(), req.RoomToken)
	if err != nil {
		controllers.WriteError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, toRoomResponse(room, c.members.MembersOf(room.Token)))
}

func (c *roomController) GetRoom(ctx *gin.Context) {
	room, err := c.rooms.Get(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		controllers.WriteError(ctx, c.logger, err)
		return
	}

	history, err := c.messages.History(ctx.Request.Context(), room.Token, c.historyLimit)
	if err != nil {
		controllers.WriteError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, RoomPageResponse{
		RoomResponse: toRoomResponse(room, c.members.MembersOf(room.Token)),
		Messages:     toMessagePayloads(history),
	})
}

func (c *roomController) GetMessages(ctx *gin.Context) {
	var query HistoryQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		controllers.BindError(ctx, err)
		return
	}
	if query.Limit == 0 {
		query.Limit = c.historyLimit
	}

	room, err := c.rooms.Get(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		controllers.WriteError(ctx, c.logger, err)
		return
	}

	history, err := c.messages.History(ctx.Request.Context(), room.Token, query.Limit)
	if err != nil {
		controllers.WriteError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, MessagesResponse{
		RoomToken: room.Token,
		Messages:  toMessagePayloads(history),
		Count:     len(history),
	})
}
