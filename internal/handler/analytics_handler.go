package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/b2b-admin-api/internal/middleware"
	"github.com/noah-isme/b2b-admin-api/internal/service"
	"github.com/noah-isme/b2b-admin-api/pkg/response"
)

// AnalyticsHandler exposes catalog aggregates and process metrics.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Summary godoc
// @Summary Catalog and offer funnel aggregates
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/summary [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, cacheHit, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// CategoryBreakdown godoc
// @Summary Product counts per category
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/categories [get]
func (h *AnalyticsHandler) CategoryBreakdown(c *gin.Context) {
	breakdown, cacheHit, err := h.analytics.CategoryBreakdown(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, breakdown, nil, middleware.ExtractMeta(c))
}

// SystemMetrics godoc
// @Summary Process-level request and cache counters
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) SystemMetrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.analytics.SystemMetrics(), nil)
}
