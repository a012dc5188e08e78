package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/b2b-admin-api/internal/middleware"
	"github.com/noah-isme/b2b-admin-api/internal/models"
	"github.com/noah-isme/b2b-admin-api/internal/service"
	"github.com/noah-isme/b2b-admin-api/pkg/config"
	"github.com/noah-isme/b2b-admin-api/pkg/pagination"
)

type fakeProductSrv struct {
	listResult *service.ProductListResult
	listHit    bool
	listErr    error
	lastFilter models.ProductFilter

	toggleResult *service.ToggleResult
	toggleErr    error

	attachResult *service.ImageResult
	attachErr    error
	lastAttach   struct {
		id          string
		filename    string
		contentType string
		size        int
	}
}

func (f *fakeProductSrv) List(_ context.Context, filter models.ProductFilter) (*service.ProductListResult, bool, error) {
	f.lastFilter = filter
	return f.listResult, f.listHit, f.listErr
}

func (f *fakeProductSrv) Get(context.Context, string) (*models.MasterProductDetail, error) {
	return &models.MasterProductDetail{}, nil
}

func (f *fakeProductSrv) Create(context.Context, service.CreateProductRequest, string) (*models.MasterProduct, error) {
	return &models.MasterProduct{ID: "prod-1"}, nil
}

func (f *fakeProductSrv) Update(context.Context, string, service.UpdateProductRequest, string) (*models.MasterProduct, error) {
	return &models.MasterProduct{ID: "prod-1"}, nil
}

func (f *fakeProductSrv) ToggleApproval(context.Context, string, string) (*service.ToggleResult, error) {
	return f.toggleResult, f.toggleErr
}

func (f *fakeProductSrv) AttachImage(_ context.Context, id, filename, contentType string, data []byte, _ int64, _ []string, _ string) (*service.ImageResult, error) {
	f.lastAttach.id = id
	f.lastAttach.filename = filename
	f.lastAttach.contentType = contentType
	f.lastAttach.size = len(data)
	return f.attachResult, f.attachErr
}

func (f *fakeProductSrv) ImageDownload(context.Context, string, string) (string, string, error) {
	return "", "", nil
}

func (f *fakeProductSrv) Deactivate(context.Context, string, string) error {
	return nil
}

func TestProductHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeProductSrv{
		listResult: &service.ProductListResult{
			Products:   []models.MasterProductDetail{{MasterProduct: models.MasterProduct{ID: "prod-1"}}},
			Pagination: pagination.New(2, 10, 35),
		},
		listHit: true,
	}
	handler := NewProductHandler(srv, config.UploadsConfig{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/products?search=Bolt&category=cat-1&is_approved=true&page=2&per_page=10&sort=name&order=desc", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bolt", srv.lastFilter.Search)
	assert.Equal(t, "cat-1", srv.lastFilter.CategoryID)
	require.NotNil(t, srv.lastFilter.Approved)
	assert.True(t, *srv.lastFilter.Approved)
	assert.Equal(t, 2, srv.lastFilter.Page)
	assert.Equal(t, 10, srv.lastFilter.PageSize)
	assert.Equal(t, "name", srv.lastFilter.SortBy)
	assert.Equal(t, "desc", srv.lastFilter.SortOrder)

	var envelope struct {
		Data       []map[string]interface{} `json:"data"`
		Meta       map[string]interface{}   `json:"meta"`
		Pagination map[string]interface{}   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Len(t, envelope.Data, 1)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, float64(35), envelope.Pagination["total_count"])
	assert.Equal(t, float64(4), envelope.Pagination["total_pages"])
}

func TestProductHandlerCreateRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProductHandler(&fakeProductSrv{}, config.UploadsConfig{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/products", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductHandlerToggleApproval(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProductHandler(&fakeProductSrv{
		toggleResult: &service.ToggleResult{Message: "product approved", NewState: true},
	}, config.UploadsConfig{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/products/prod-1/toggle-approval", nil)
	c.Params = gin.Params{{Key: "id", Value: "prod-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1"})

	handler.ToggleApproval(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "product approved", envelope.Data["message"])
	assert.Equal(t, true, envelope.Data["new_state"])
}

func TestProductHandlerUploadImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeProductSrv{attachResult: &service.ImageResult{Path: "products/prod-1/img.png", Token: "signed-token"}}
	handler := NewProductHandler(srv, config.UploadsConfig{MaxFileSizeBytes: 1 << 20})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/products/prod-1/image", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	c.Params = gin.Params{{Key: "id", Value: "prod-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1"})

	handler.UploadImage(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prod-1", srv.lastAttach.id)
	assert.Equal(t, "photo.png", srv.lastAttach.filename)
	assert.Equal(t, len("png-bytes"), srv.lastAttach.size)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "products/prod-1/img.png", envelope.Data["image_path"])
	assert.Equal(t, "/api/v1/products/prod-1/image?token=signed-token", envelope.Data["download_url"])
}

func TestProductHandlerUploadImageMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProductHandler(&fakeProductSrv{}, config.UploadsConfig{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/products/prod-1/image", nil)
	c.Params = gin.Params{{Key: "id", Value: "prod-1"}}

	handler.UploadImage(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type responseEnvelope struct {
	Data       map[string]interface{} `json:"data"`
	Meta       map[string]interface{} `json:"meta"`
	Pagination map[string]interface{} `json:"pagination"`
	Error      map[string]interface{} `json:"error"`
}
