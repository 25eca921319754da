package dependency

import (
	chatUseCase "github.com/hilthontt/townhall/application/usecases/chat"
	locationUseCase "github.com/hilthontt/townhall/application/usecases/location"
	messageUseCase "github.com/hilthontt/townhall/application/usecases/message"
	presenceUseCase "github.com/hilthontt/townhall/application/usecases/presence"
	roomUseCase "github.com/hilthontt/townhall/application/usecases/room"
	"github.com/hilthontt/townhall/infrastructure/registry"
	"github.com/hilthontt/townhall/infrastructure/websocket"
	"github.com/hilthontt/townhall/presentation/middlewares"
)

func (c *Container) initWebSocket() {
	c.Registry = registry.New()
	c.WSCore = websocket.NewCore(c.Logger, middlewares.SplitOrigins(c.Config.Cors.AllowOrigins))

	c.Logger.Info("WebSocket components initialized successfully")
}

func (c *Container) initUseCases() {
	c.LocationUC = locationUseCase.NewLocationUseCase(c.LocationRepo, c.EventPublisher, c.Logger)
	c.RoomUC = roomUseCase.NewRoomUseCase(c.RoomRepo, c.EventPublisher, c.Logger)
	c.MessageUC = messageUseCase.NewMessageUseCase(c.MessageRepo, c.Registry, c.EventPublisher, c.Logger)
	c.PresenceUC = presenceUseCase.NewPresenceUseCase(c.Registry, c.WSCore, c.EventPublisher, c.Logger)
	c.ChatUC = chatUseCase.NewChatUseCase(
		c.RoomUC,
		c.MessageUC,
		c.PresenceUC,
		c.Registry,
		c.WSCore,
		c.Logger,
		c.Config.Chat.HistoryLimit,
	)

	c.Logger.Info("Use cases initialized successfully")
}
