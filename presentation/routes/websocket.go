package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/presentation/controllers/websocket"
)

func WebsocketRoutes(router gin.IRoutes, controller websocket.WebSocketController) {
	router.GET("/ws", controller.HandleConnection)
}
