package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/services"
	"github.com/k4sper1love/school-service/internal/utils"
)

const msgInternal = "Internal server error"

// BaseHandler carries what every resource handler shares.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.LoggerFromContext(c.Request.Context(), h.logger)
}

// LogRequest logs the start of a handler with optional key/value pairs.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	h.log(c).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string) {
	h.log(c).Error(msg, "error", err)
}

// parseIDParam writes a 404 and returns 0 when the path id is not a positive integer.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found."})
		return 0
	}
	return uint(id)
}

// bindJSON writes a 400 and returns false when the body is not valid JSON for dest.
func (h *BaseHandler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		h.log(c).Warn("Invalid request payload", "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request payload: " + err.Error()})
		return false
	}
	return true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, validationErrors)
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.log(c).Warn("Permission denied",
			"resource", permissionError.Resource,
			"action", permissionError.Action,
			"reason", permissionError.Reason)
		c.JSON(http.StatusForbidden, models.DetailResponse{Detail: permissionError.Reason})
		return
	}

	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: notFound.Error()})
		return
	}

	switch {
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.DetailResponse{Detail: "No active account found with the given credentials"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, models.DetailResponse{Detail: "You do not have permission to perform this action."})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found."})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msgInternal})
	}
}
