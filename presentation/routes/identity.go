package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/presentation/controllers/identity"
	"github.com/hilthontt/townhall/presentation/middlewares"
)

func IdentityRoutes(router *gin.RouterGroup, controller identity.IdentityController) {
	me := router.Group("/me", middlewares.RequireRole())
	{
		me.GET("/information", controller.GetInformation)
	}
}
