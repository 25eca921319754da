// Package controllers holds what the resource controllers share: the error
// body and the mapping from domain errors to HTTP statuses.
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/domain/apperror"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"github.com/hilthontt/townhall/presentation/middlewares"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func StatusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindReferential:
		return http.StatusUnprocessableEntity
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError answers with the status and code of err. Internal errors are
// logged and reported with a generic message only.
func WriteError(ctx *gin.Context, log *logger.Logger, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err), zap.String("path", ctx.FullPath()))
		_ = ctx.Error(err)
		ctx.JSON(status, ErrorResponse{
			Error:   "internal_error",
			Message: "something went wrong, please try again later",
		})
		return
	}

	ctx.JSON(status, ErrorResponse{
		Error:   apperror.CodeOf(err),
		Message: err.Error(),
	})
}

// BindError answers a request whose body or query failed to bind.
func BindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: middlewares.TranslateValidationError(err),
	})
}
