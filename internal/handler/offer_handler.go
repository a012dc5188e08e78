package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/b2b-admin-api/internal/middleware"
	"github.com/noah-isme/b2b-admin-api/internal/models"
	"github.com/noah-isme/b2b-admin-api/internal/service"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
	"github.com/noah-isme/b2b-admin-api/pkg/response"
)

type offerService interface {
	List(ctx context.Context, filter models.OfferFilter) (*service.OfferListResult, bool, error)
	Get(ctx context.Context, id string) (*models.SupplierOfferDetail, error)
	Approve(ctx context.Context, id, reviewerID string, req service.ReviewOfferRequest) (*models.SupplierOfferDetail, error)
	Reject(ctx context.Context, id, reviewerID string, req service.ReviewOfferRequest) (*models.SupplierOfferDetail, error)
}

// OfferHandler exposes the supplier-offer review workflow.
type OfferHandler struct {
	offers offerService
}

// NewOfferHandler constructs OfferHandler.
func NewOfferHandler(offers offerService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// List godoc
// @Summary List supplier offers
// @Tags Offers
// @Produce json
// @Param status query string false "Filter by workflow status"
// @Param supplierId query string false "Filter by supplier"
// @Param productId query string false "Filter by product"
// @Param search query string false "Search supplier or product"
// @Param page query int false "Page"
// @Param per_page query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /offers [get]
func (h *OfferHandler) List(c *gin.Context) {
	var filter models.OfferFilter
	if status := strings.ToUpper(c.Query("status")); status != "" {
		switch models.OfferStatus(status) {
		case models.OfferStatusPending, models.OfferStatusApproved, models.OfferStatusRejected:
			s := models.OfferStatus(status)
			filter.Status = &s
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown offer status"))
			return
		}
	}
	filter.SupplierID = c.Query("supplierId")
	filter.ProductID = c.Query("productId")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("per_page", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	result, cacheHit, err := h.offers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, result.Offers, result.Pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get offer detail
// @Tags Offers
// @Produce json
// @Param id path string true "Offer ID"
// @Success 200 {object} response.Envelope
// @Router /offers/{id} [get]
func (h *OfferHandler) Get(c *gin.Context) {
	offer, err := h.offers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}

// Approve godoc
// @Summary Approve a pending offer
// @Tags Offers
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Param payload body service.ReviewOfferRequest false "Review note"
// @Success 200 {object} response.Envelope
// @Router /offers/{id}/approve [post]
func (h *OfferHandler) Approve(c *gin.Context) {
	h.review(c, h.offers.Approve)
}

// Reject godoc
// @Summary Reject a pending offer
// @Tags Offers
// @Accept json
// @Produce json
// @Param id path string true "Offer ID"
// @Param payload body service.ReviewOfferRequest false "Review note"
// @Success 200 {object} response.Envelope
// @Router /offers/{id}/reject [post]
func (h *OfferHandler) Reject(c *gin.Context) {
	h.review(c, h.offers.Reject)
}

func (h *OfferHandler) review(c *gin.Context, apply func(ctx context.Context, id, reviewerID string, req service.ReviewOfferRequest) (*models.SupplierOfferDetail, error)) {
	var req service.ReviewOfferRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	offer, err := apply(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}
