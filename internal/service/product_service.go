package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/b2b-admin-api/internal/models"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
	"github.com/noah-isme/b2b-admin-api/pkg/pagination"
	"github.com/noah-isme/b2b-admin-api/pkg/storage"
)

// productCachePattern matches every cached product list page; any mutation to
// the catalog invalidates the whole family.
const productCachePattern = "catalog:products:*"

type productRepository interface {
	List(ctx context.Context, filter models.ProductFilter) ([]models.MasterProductDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.MasterProductDetail, error)
	ExistsBySKU(ctx context.Context, sku string, excludeID string) (bool, error)
	Create(ctx context.Context, product *models.MasterProduct) error
	Update(ctx context.Context, product *models.MasterProduct) error
	SetApproval(ctx context.Context, id string, approved bool) error
	SetImagePath(ctx context.Context, id, path string) error
	Deactivate(ctx context.Context, id string) error
}

type productImageStore interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateProductRequest holds payload for creating master products.
type CreateProductRequest struct {
	SKU         string `json:"sku" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id" validate:"required"`
	Unit        string `json:"unit" validate:"required"`
}

// UpdateProductRequest holds payload for updating master products.
type UpdateProductRequest struct {
	SKU         string `json:"sku" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id" validate:"required"`
	Unit        string `json:"unit" validate:"required"`
}

// ToggleResult reports the outcome of an approval toggle.
type ToggleResult struct {
	Message  string `json:"message"`
	NewState bool   `json:"new_state"`
}

// ImageResult reports a stored product image and its signed download token.
type ImageResult struct {
	Path  string `json:"image_path"`
	Token string `json:"token,omitempty"`
}

// ProductListResult is the cached payload for a product list page.
type ProductListResult struct {
	Products   []models.MasterProductDetail `json:"products"`
	Pagination *pagination.Pagination       `json:"pagination"`
}

// ProductService handles master-product catalog use-cases.
type ProductService struct {
	repo      productRepository
	audit     auditRecorder
	cache     *CacheService
	store     productImageStore
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewProductService constructs the product service.
func NewProductService(repo productRepository, audit auditRecorder, cache *CacheService, store productImageStore, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *ProductService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{repo: repo, audit: audit, cache: cache, store: store, signer: signer, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// List returns a product page, serving from cache when possible. The second
// return value reports whether the payload came from cache.
func (s *ProductService) List(ctx context.Context, filter models.ProductFilter) (*ProductListResult, bool, error) {
	key := filter.CacheKey()
	if s.cache != nil {
		var cached ProductListResult
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list products")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	result := &ProductListResult{
		Products:   products,
		Pagination: pagination.New(page, size, total),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache product list", zap.String("key", key), zap.Error(err))
		}
	}
	return result, false, nil
}

// Get returns detailed product information.
func (s *ProductService) Get(ctx context.Context, id string) (*models.MasterProductDetail, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	return product, nil
}

// Create registers a new master product.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest, actorID string) (*models.MasterProduct, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid product payload")
	}
	exists, err := s.repo.ExistsBySKU(ctx, req.SKU, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate sku")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "sku already used")
	}
	product := &models.MasterProduct{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Unit:        req.Unit,
		Active:      true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create product")
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, models.AuditActionProductCreate, product.ID, nil, product)
	return product, nil
}

// Update modifies an existing master product.
func (s *ProductService) Update(ctx context.Context, id string, req UpdateProductRequest, actorID string) (*models.MasterProduct, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid product payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	exists, err := s.repo.ExistsBySKU(ctx, req.SKU, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate sku")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "sku already used")
	}
	before := detail.MasterProduct
	product := detail.MasterProduct
	product.SKU = req.SKU
	product.Name = req.Name
	product.Description = req.Description
	product.CategoryID = req.CategoryID
	product.Unit = req.Unit
	if err := s.repo.Update(ctx, &product); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update product")
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, models.AuditActionProductUpdate, product.ID, &before, &product)
	return &product, nil
}

// ToggleApproval flips the product approval flag and reports the new state.
func (s *ProductService) ToggleApproval(ctx context.Context, id, actorID string) (*ToggleResult, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	newState := !detail.IsApproved
	if err := s.repo.SetApproval(ctx, id, newState); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle approval")
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, models.AuditActionProductToggle, id, &detail.MasterProduct, nil)

	message := "product approved"
	if !newState {
		message = "product approval revoked"
	}
	return &ToggleResult{Message: message, NewState: newState}, nil
}

// AttachImage validates and stores an uploaded product image, then records its path.
func (s *ProductService) AttachImage(ctx context.Context, id, filename, contentType string, data []byte, maxSize int64, allowedMIMEs []string, actorID string) (*ImageResult, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", maxSize))
	}
	if len(allowedMIMEs) > 0 {
		allowed := false
		for _, m := range allowedMIMEs {
			if m == contentType {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "unsupported image type")
		}
	}
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "image storage not configured")
	}

	stored := fmt.Sprintf("products/%s/%s%s", id, uuid.NewString(), path.Ext(filename))
	relPath, err := s.store.Save(stored, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}
	if err := s.repo.SetImagePath(ctx, id, relPath); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record image path")
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, models.AuditActionProductUpdate, id, nil, map[string]string{"image_path": relPath})

	result := &ImageResult{Path: relPath}
	if s.signer != nil {
		token, _, err := s.signer.Generate(id, relPath)
		if err != nil {
			s.logger.Warn("failed to sign image url", zap.String("product_id", id), zap.Error(err))
		} else {
			result.Token = token
		}
	}
	return result, nil
}

// ImageDownload validates a signed token and returns the image path and a
// download name. The token must have been issued for the same product.
func (s *ProductService) ImageDownload(ctx context.Context, id, token string) (string, string, error) {
	if s.signer == nil {
		return "", "", appErrors.Clone(appErrors.ErrNotFound, "image downloads not enabled")
	}
	resourceID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid image token")
	}
	if resourceID != id {
		return "", "", appErrors.Clone(appErrors.ErrUnauthorized, "image token does not match product")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	if detail.ImagePath == nil || *detail.ImagePath != relPath {
		return "", "", appErrors.Clone(appErrors.ErrNotFound, "image unavailable")
	}
	return s.store.Path(relPath), path.Base(relPath), nil
}

// Deactivate soft-deletes a product.
func (s *ProductService) Deactivate(ctx context.Context, id, actorID string) error {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate product")
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, models.AuditActionProductDelete, id, &detail.MasterProduct, nil)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, productCachePattern); err != nil {
		s.logger.Warn("failed to invalidate product cache", zap.Error(err))
	}
}

func (s *ProductService) record(ctx context.Context, actorID, action, resourceID string, before, after interface{}) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "products",
		ResourceID: &resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if before != nil {
		if raw, err := json.Marshal(before); err == nil {
			log.OldValues = raw
		}
	}
	if after != nil {
		if raw, err := json.Marshal(after); err == nil {
			log.NewValues = raw
		}
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record product audit log", zap.Error(err))
	}
}
