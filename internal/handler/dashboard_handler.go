package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/b2b-admin-api/internal/middleware"
	"github.com/noah-isme/b2b-admin-api/internal/service"
	"github.com/noah-isme/b2b-admin-api/pkg/response"
)

// DashboardHandler exposes the composed admin landing page payload.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Admin godoc
// @Summary Admin dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	payload, cacheHit, err := h.dashboard.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, payload, nil, middleware.ExtractMeta(c))
}
