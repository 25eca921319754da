package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/hilthontt/townhall/presentation/controllers/location"
	"github.com/hilthontt/townhall/presentation/middlewares"
)

func LocationRoutes(router *gin.RouterGroup, controller location.LocationController, etags middlewares.ETagStore, mutationLimit gin.HandlerFunc) {
	locations := router.Group("/locations")
	locations.Use(middlewares.RequireRole(), middlewares.ETagMiddleware(etags))
	{
		locations.GET("", controller.ListLocations)
		locations.GET("/:id", controller.GetLocation)

		editors := middlewares.RequireRole(model.RoleAdmin, model.RoleManager)
		locations.POST("", editors, mutationLimit, controller.CreateLocation)
		locations.PATCH("/:id", editors, mutationLimit, controller.RenameLocation)
		locations.DELETE("/:id", editors, mutationLimit, controller.DeleteLocation)
	}
}
