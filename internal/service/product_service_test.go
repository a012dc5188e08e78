package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/b2b-admin-api/internal/models"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
	"github.com/noah-isme/b2b-admin-api/pkg/storage"
)

type memoryCacheRepo struct {
	data map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

type mockProductRepo struct {
	products  map[string]*models.MasterProductDetail
	listCalls int
}

func (m *mockProductRepo) List(ctx context.Context, filter models.ProductFilter) ([]models.MasterProductDetail, int, error) {
	m.listCalls++
	var out []models.MasterProductDetail
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockProductRepo) FindByID(ctx context.Context, id string) (*models.MasterProductDetail, error) {
	if p, ok := m.products[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProductRepo) ExistsBySKU(ctx context.Context, sku string, excludeID string) (bool, error) {
	for _, p := range m.products {
		if p.SKU == sku && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProductRepo) Create(ctx context.Context, product *models.MasterProduct) error {
	if product.ID == "" {
		product.ID = "generated"
	}
	m.products[product.ID] = &models.MasterProductDetail{MasterProduct: *product}
	return nil
}

func (m *mockProductRepo) Update(ctx context.Context, product *models.MasterProduct) error {
	m.products[product.ID] = &models.MasterProductDetail{MasterProduct: *product}
	return nil
}

func (m *mockProductRepo) SetApproval(ctx context.Context, id string, approved bool) error {
	m.products[id].IsApproved = approved
	return nil
}

func (m *mockProductRepo) SetImagePath(ctx context.Context, id, path string) error {
	m.products[id].ImagePath = &path
	return nil
}

func (m *mockProductRepo) Deactivate(ctx context.Context, id string) error {
	m.products[id].Active = false
	return nil
}

type mockAuditRecorder struct {
	logs []*models.AuditLog
}

func (m *mockAuditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type mockImageStore struct {
	saved map[string][]byte
}

func (m *mockImageStore) Save(filename string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	return filename, nil
}

func (m *mockImageStore) Path(filename string) string {
	return "/storage/" + filename
}

func newProductService(repo *mockProductRepo, cacheRepo *memoryCacheRepo) (*ProductService, *mockAuditRecorder) {
	audit := &mockAuditRecorder{}
	var cache *CacheService
	if cacheRepo != nil {
		cache = NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewProductService(repo, audit, cache, &mockImageStore{}, signer, validator.New(), zap.NewNop(), time.Minute)
	return svc, audit
}

func seedProduct(id, sku string, approved bool) *models.MasterProductDetail {
	return &models.MasterProductDetail{MasterProduct: models.MasterProduct{
		ID: id, SKU: sku, Name: "Product " + id, CategoryID: "c1", Unit: "box", IsApproved: approved, Active: true,
	}}
}

func TestProductServiceListCachesResult(t *testing.T) {
	repo := &mockProductRepo{products: map[string]*models.MasterProductDetail{"p1": seedProduct("p1", "SKU-1", true)}}
	cacheRepo := newMemoryCacheRepo()
	svc, _ := newProductService(repo, cacheRepo)

	filter := models.ProductFilter{Page: 1, PageSize: 20}
	first, hit, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, first.Products, 1)

	second, hit, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, second.Products, 1)
	assert.Equal(t, 1, repo.listCalls)
}

func TestProductServiceDistinctFiltersDistinctKeys(t *testing.T) {
	repo := &mockProductRepo{products: map[string]*models.MasterProductDetail{"p1": seedProduct("p1", "SKU-1", true)}}
	cacheRepo := newMemoryCacheRepo()
	svc, _ := newProductService(repo, cacheRepo)

	_, _, err := svc.List(context.Background(), models.ProductFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	_, hit, err := svc.List(context.Background(), models.ProductFilter{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.listCalls)
}

func TestProductServiceToggleInvalidatesCache(t *testing.T) {
	repo := &mockProductRepo{products: map[string]*models.MasterProductDetail{"p1": seedProduct("p1", "SKU-1", false)}}
	cacheRepo := newMemoryCacheRepo()
	svc, audit := newProductService(repo, cacheRepo)

	filter := models.ProductFilter{Page: 1, PageSize: 20}
	_, _, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	require.NotEmpty(t, cacheRepo.data)

	result, err := svc.ToggleApproval(context.Background(), "p1", "actor")
	require.NoError(t, err)
	assert.True(t, result.NewState)
	assert.Equal(t, "product approved", result.Message)
	assert.Empty(t, cacheRepo.data)
	assert.NotEmpty(t, audit.logs)

	result, err = svc.ToggleApproval(context.Background(), "p1", "actor")
	require.NoError(t, err)
	assert.False(t, result.NewState)
	assert.Equal(t, "product approval revoked", result.Message)
}

func TestProductServiceCreateDuplicateSKU(t *testing.T) {
	repo := &mockProductRepo{products: map[string]*models.MasterProductDetail{"p1": seedProduct("p1", "SKU-1", true)}}
	svc, _ := newProductService(repo, nil)

	_, err := svc.Create(context.Background(), CreateProductRequest{SKU: "SKU-1", Name: "Dup", CategoryID: "c1", Unit: "box"}, "actor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sku already used")
}

func TestProductServiceAttachImageValidation(t *testing.T) {
	repo := &mockProductRepo{products: map[string]*models.MasterProductDetail{"p1": seedProduct("p1", "SKU-1", true)}}
	svc, _ := newProductService(repo, nil)

	_, err := svc.AttachImage(context.Background(), "p1", "photo.bmp", "image/bmp", []byte{1}, 1024, []string{"image/png"}, "actor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image type")

	_, err = svc.AttachImage(context.Background(), "p1", "photo.png", "image/png", make([]byte, 2048), 1024, []string{"image/png"}, "actor")
	require.Error(t, err)

	result, err := svc.AttachImage(context.Background(), "p1", "photo.png", "image/png", []byte{1, 2}, 1024, []string{"image/png"}, "actor")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Path)
	assert.NotEmpty(t, result.Token)
	assert.NotNil(t, repo.products["p1"].ImagePath)
}

func TestProductServiceImageDownload(t *testing.T) {
	repo := &mockProductRepo{products: map[string]*models.MasterProductDetail{"p1": seedProduct("p1", "SKU-1", true)}}
	svc, _ := newProductService(repo, nil)

	result, err := svc.AttachImage(context.Background(), "p1", "photo.png", "image/png", []byte{1, 2}, 0, nil, "actor")
	require.NoError(t, err)

	path, name, err := svc.ImageDownload(context.Background(), "p1", result.Token)
	require.NoError(t, err)
	assert.Equal(t, "/storage/"+result.Path, path)
	assert.Contains(t, result.Path, name)

	_, _, err = svc.ImageDownload(context.Background(), "p2", result.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, _, err = svc.ImageDownload(context.Background(), "p1", "bogus")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
