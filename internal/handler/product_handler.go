package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/b2b-admin-api/internal/middleware"
	"github.com/noah-isme/b2b-admin-api/internal/models"
	"github.com/noah-isme/b2b-admin-api/internal/service"
	"github.com/noah-isme/b2b-admin-api/pkg/config"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
	"github.com/noah-isme/b2b-admin-api/pkg/response"
)

type productService interface {
	List(ctx context.Context, filter models.ProductFilter) (*service.ProductListResult, bool, error)
	Get(ctx context.Context, id string) (*models.MasterProductDetail, error)
	Create(ctx context.Context, req service.CreateProductRequest, actorID string) (*models.MasterProduct, error)
	Update(ctx context.Context, id string, req service.UpdateProductRequest, actorID string) (*models.MasterProduct, error)
	ToggleApproval(ctx context.Context, id, actorID string) (*service.ToggleResult, error)
	AttachImage(ctx context.Context, id, filename, contentType string, data []byte, maxSize int64, allowedMIMEs []string, actorID string) (*service.ImageResult, error)
	ImageDownload(ctx context.Context, id, token string) (string, string, error)
	Deactivate(ctx context.Context, id, actorID string) error
}

// ProductHandler exposes master-product catalog endpoints.
type ProductHandler struct {
	products productService
	uploads  config.UploadsConfig
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(products productService, uploads config.UploadsConfig) *ProductHandler {
	return &ProductHandler{products: products, uploads: uploads}
}

// List godoc
// @Summary List master products
// @Tags Products
// @Produce json
// @Param search query string false "Search by name or SKU"
// @Param category query string false "Filter by category"
// @Param is_approved query bool false "Filter by approval state"
// @Param page query int false "Page"
// @Param per_page query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter models.ProductFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.CategoryID = c.Query("category")
	if approved := c.Query("is_approved"); approved != "" {
		if approved == "true" {
			v := true
			filter.Approved = &v
		} else if approved == "false" {
			v := false
			filter.Approved = &v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("per_page", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	result, cacheHit, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, result.Products, result.Pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get product detail
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, product, nil)
}

// Create godoc
// @Summary Create master product
// @Tags Products
// @Accept json
// @Produce json
// @Param payload body service.CreateProductRequest true "Product payload"
// @Success 201 {object} response.Envelope
// @Router /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	product, err := h.products.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, product)
}

// Update godoc
// @Summary Update master product
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param payload body service.UpdateProductRequest true "Product payload"
// @Success 200 {object} response.Envelope
// @Router /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	product, err := h.products.Update(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, product, nil)
}

// ToggleApproval godoc
// @Summary Toggle product approval
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope
// @Router /products/{id}/toggle-approval [post]
func (h *ProductHandler) ToggleApproval(c *gin.Context) {
	result, err := h.products.ToggleApproval(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UploadImage godoc
// @Summary Upload a product image
// @Tags Products
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Product ID"
// @Param image formData file true "Image file"
// @Success 200 {object} response.Envelope
// @Router /products/{id}/image [post]
func (h *ProductHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "image file required"))
		return
	}
	if h.uploads.MaxFileSizeBytes > 0 && fileHeader.Size > h.uploads.MaxFileSizeBytes {
		response.Error(c, appErrors.ErrPayloadTooLarge)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck
	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	result, err := h.products.AttachImage(c.Request.Context(), c.Param("id"), fileHeader.Filename, contentType, data,
		h.uploads.MaxFileSizeBytes, h.uploads.AllowedMIMEs, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	payload := gin.H{"image_path": result.Path}
	if result.Token != "" {
		payload["download_url"] = fmt.Sprintf("/api/v1/products/%s/image?token=%s", c.Param("id"), result.Token)
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// DownloadImage godoc
// @Summary Download a product image via signed token
// @Tags Products
// @Produce octet-stream
// @Param id path string true "Product ID"
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /products/{id}/image [get]
func (h *ProductHandler) DownloadImage(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "download token required"))
		return
	}
	path, _, err := h.products.ImageDownload(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.File(path)
}

// Delete godoc
// @Summary Deactivate master product
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 204
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.products.Deactivate(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
