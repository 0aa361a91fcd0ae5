package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/services"
	"github.com/k4sper1love/school-service/internal/utils"
)

type GradeHandler struct {
	BaseHandler
	service services.GradeService
}

func NewGradeHandler(service services.GradeService, logger utils.Logger) *GradeHandler {
	return &GradeHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

func (h *GradeHandler) ListGrades(c *gin.Context) {
	grades, err := h.service.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, grades)
}

func (h *GradeHandler) GetGrade(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	grade, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, grade)
}

func (h *GradeHandler) CreateGrade(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.GradeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	grade, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, grade)
}

func (h *GradeHandler) UpdateGrade(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.GradeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	grade, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, grade)
}

func (h *GradeHandler) DeleteGrade(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
