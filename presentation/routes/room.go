package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/presentation/controllers/room"
)

func RoomRoutes(router *gin.RouterGroup, controller room.RoomController, mintLimit gin.HandlerFunc) {
	rooms := router.Group("/rooms")
	{
		rooms.POST("", mintLimit, controller.ResolveRoom)
		rooms.GET("/:token", controller.GetRoom)
		rooms.GET("/:token/messages", controller.GetMessages)
	}
}
