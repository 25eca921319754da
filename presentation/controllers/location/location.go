package location

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/application/usecases/location"
	"github.com/hilthontt/townhall/domain/repository"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/presentation/controllers"
	"github.com/hilthontt/townhall/presentation/middlewares"
	"go.uber.org/zap"
)

type LocationController interface {
	ListLocations(ctx *gin.Context)
	GetLocation(ctx *gin.Context)
	CreateLocation(ctx *gin.Context)
	RenameLocation(ctx *gin.Context)
	DeleteLocation(ctx *gin.Context)
}

type locationController struct {
	usecase location.LocationUseCase
	logger  *logger.Logger
}

func NewLocationController(usecase location.LocationUseCase, logger *logger.Logger) LocationController {
	return &locationController{
		usecase: usecase,
		logger:  logger,
	}
}

func (c *locationController) ListLocations(ctx *gin.Context) {
	var query ListLocationsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		controllers.BindError(ctx, err)
		return
	}

	locations, err := c.usecase.List(ctx.Request.Context(), repository.LocationFilter{
		Level:    query.Level,
		ParentID: query.ParentID,
	})
	if err != nil {
		controllers.WriteError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, toLocationsResponse(locations))
}

func (c *locationController) GetLocation(ctx *gin.Context) {
	location, err := c.usecase.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		controllers.WriteError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, toLocationResponse(location))
}

func (c *locationController) CreateLocation(ctx *gin.Context) {
	var req CreateLocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controllers.BindError(ctx, err)
		return
	}

	location, err := c.usecase.Create(ctx.Request.Context(), req.Name, req.Level, req.ParentID)
	if err != nil {
		controllers.WriteError(ctx, c.logger, err)
		return
	}

	c.audit(ctx, "location created", location.ID)
	ctx.JSON(http.StatusCreated, toLocationResponse(location))
}

func (c *locationController) RenameLocation(ctx *gin.Context) {
	var req RenameLocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controllers.BindError(ctx, err)
		return
	}

	location, err := c.usecase.Rename(ctx.Request.Context(), ctx.Param("id"), req.Name)
	if err != nil {
		controllers.WriteError(ctx, c.logger, err)
		return
	}

	c.audit(ctx, "location renamed", location.ID)
	ctx.JSON(http.StatusOK, toLocationResponse(location))
}

func (c *locationController) DeleteLocation(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.usecase.Delete(ctx.Request.Context(), id); err != nil {
		controllers.WriteError(ctx, c.logger, err)
		return
	}

	c.audit(ctx, "location deleted", id)
	ctx.Status(http.StatusNoContent)
}

func (c *locationController) audit(ctx *gin.Context, msg, locationID string) {
	fields := []zap.Field{zap.String("locationID", locationID)}
	if identity, ok := middlewares.GetIdentityFromContext(ctx); ok {
		fields = append(fields, zap.String("by", identity.Name), zap.String("role", string(identity.Role)))
	}
	c.logger.Info(msg, fields...)
}
