package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/services"
	"github.com/k4sper1love/school-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AnalyticsHandler struct {
	BaseHandler
	service services.AnalyticsService
}

func NewAnalyticsHandler(service services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== ANALYTICS ENDPOINTS =====

// GetRequestCounts returns request counts per endpoint, busiest first
// @Summary Get request counts per endpoint
// @Tags analytics
// @Produce json
// @Param user_id query int false "Only requests made by this user"
// @Param method query string false "Only requests with this HTTP method"
// @Success 200 {array} models.EndpointCount
// @Failure 400 {object} map[string][]string "Invalid user_id"
// @Failure 401 {object} models.DetailResponse "Unauthorized"
// @Router /analytics/ [get]
func (h *AnalyticsHandler) GetRequestCounts(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	counts, err := h.service.CountsByEndpoint(c.Request.Context(), filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if counts == nil {
		counts = []models.EndpointCount{}
	}
	c.JSON(http.StatusOK, counts)
}

// ExportRequestCounts streams the same aggregation as an XLSX workbook
// @Summary Export request counts
// @Tags analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param user_id query int false "Only requests made by this user"
// @Param method query string false "Only requests with this HTTP method"
// @Router /analytics/export/ [get]
func (h *AnalyticsHandler) ExportRequestCounts(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), filter, &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Exported analytics", "bytes", buf.Len())
	c.Header("Content-Disposition", `attachment; filename="analytics.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *AnalyticsHandler) parseFilter(c *gin.Context) (models.AnalyticsFilter, bool) {
	var filter models.AnalyticsFilter

	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, services.ValidationErrors{
				"user_id": {"A valid integer is required."},
			})
			return filter, false
		}
		uid := uint(id)
		filter.UserID = &uid
	}
	filter.Method = c.Query("method")

	return filter, true
}
