package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/services"
	"github.com/k4sper1love/school-service/internal/utils"
)

type EnrollmentHandler struct {
	BaseHandler
	service services.EnrollmentService
}

func NewEnrollmentHandler(service services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.EnrollmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	enrollment, err := h.service.Enroll(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	enrollments, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollments)
}
