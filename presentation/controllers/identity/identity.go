package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/presentation/controllers"
	"github.com/hilthontt/townhall/presentation/middlewares"
)

type IdentityResponse struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type IdentityController interface {
	GetInformation(ctx *gin.Context)
}

type identityController struct{}

func NewIdentityController() IdentityController {
	return &identityController{}
}

// GetInformation echoes the caller's verified identity.
func (c *identityController) GetInformation(ctx *gin.Context) {
	identity, ok := middlewares.GetIdentityFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, controllers.ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	ctx.JSON(http.StatusOK, IdentityResponse{
		Name: identity.Name,
		Role: string(identity.Role),
	})
}
