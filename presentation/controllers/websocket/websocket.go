package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hilthontt/townhall/application/usecases/chat"
	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/domain/event"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/infrastructure/websocket"
	"github.com/hilthontt/townhall/presentation/controllers"
	"go.uber.org/zap"
)

type WebSocketController interface {
	HandleConnection(ctx *gin.Context)
}

type webSocketController struct {
	chat    chat.ChatUseCase
	core    *websocket.Core
	options websocket.ClientOptions
	logger  *logger.Logger
	// serveCtx outlives the upgrade request; pumps stop with the server.
	serveCtx context.Context
}

func NewWebSocketController(
	serveCtx context.Context,
	chatUseCase chat.ChatUseCase,
	core *websocket.Core,
	options websocket.ClientOptions,
	logger *logger.Logger,
) WebSocketController {
	return &webSocketController{
		chat:     chatUseCase,
		core:     core,
		options:  options,
		logger:   logger,
		serveCtx: serveCtx,
	}
}

// HandleConnection upgrades the request and hands the socket to the pumps.
// The connection joins nothing until it sends a join frame.
func (c *webSocketController) HandleConnection(ctx *gin.Context) {
	conn, err := c.core.Upgrade(ctx.Writer, ctx.Request)
	if err != nil {
		// the upgrader has already answered the request
		c.logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("ip", ctx.ClientIP()))
		return
	}

	client := websocket.NewClient(conn, uuid.NewString(), c.options, c.logger)
	if err := c.core.Register(client); err != nil {
		c.logger.Warn("rejecting websocket connection", zap.Error(err))
		client.Close()
		return
	}

	c.logger.Debug("websocket connected", zap.String("connectionID", client.ID), zap.String("ip", ctx.ClientIP()))

	go client.WritePump()
	go client.ReadPump(c.serveCtx, c.core, c)
}

func (c *webSocketController) HandleFrame(ctx context.Context, client *websocket.Client, frame *websocket.Frame) {
	switch frame.Type {
	case websocket.FrameJoin:
		var input websocket.JoinInput
		if !c.decode(client, frame, &input) {
			return
		}
		if input.RoomToken == "" {
			input.RoomToken = frame.RoomToken
		}
		if _, err := c.chat.Join(ctx, client.ID, input.DisplayName, input.RoomToken); err != nil {
			c.reject(client, err)
		}

	case websocket.FrameMessage:
		var input websocket.MessageInput
		if !c.decode(client, frame, &input) {
			return
		}
		if _, err := c.chat.Send(ctx, client.ID, input.Body); err != nil {
			c.reject(client, err)
		}

	case websocket.FrameLeave:
		c.chat.Leave(ctx, client.ID)

	default:
		c.core.Dispatch([]string{client.ID}, event.NewError(websocket.CodeUnknownType, "unknown frame type "+frame.Type))
	}
}

func (c *webSocketController) HandleDisconnect(ctx context.Context, client *websocket.Client) {
	c.chat.Leave(ctx, client.ID)
	c.logger.Debug("websocket disconnected", zap.String("connectionID", client.ID))
}

func (c *webSocketController) decode(client *websocket.Client, frame *websocket.Frame, into any) bool {
	if len(frame.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(frame.Data, into); err != nil {
		c.core.Dispatch([]string{client.ID}, event.NewError(websocket.CodeInvalidFrame, "data does not match the "+frame.Type+" frame"))
		return false
	}
	return true
}

// reject reports err to the sender only. Internal errors keep their details
// in the log.
func (c *webSocketController) reject(client *websocket.Client, err error) {
	message := err.Error()
	if controllers.StatusOf(err) == http.StatusInternalServerError {
		c.logger.Error("websocket frame failed", zap.Error(err), zap.String("connectionID", client.ID))
		message = "something went wrong, please try again later"
	}
	c.core.Dispatch([]string{client.ID}, event.NewError(apperror.CodeOf(err), message))
}
