package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/b2b-admin-api/internal/models"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
)

type categoryRepository interface {
	ListActive(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, category *models.Category) error
}

// CreateCategoryRequest holds payload for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

// CategoryService exposes the category reference data behind catalog filters.
type CategoryService struct {
	repo      categoryRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService constructs the category service.
func NewCategoryService(repo categoryRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns all active categories.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// Get returns a category by ID.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}

// Create registers a new active category. Slugs are derived from the name
// and must be unique.
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest, actorID string) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid category payload")
	}
	slug := slugify(req.Name)
	if slug == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category name yields an empty slug")
	}
	exists, err := s.repo.ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category slug")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "category already exists")
	}

	category := &models.Category{
		Name:   strings.TrimSpace(req.Name),
		Slug:   slug,
		Active: true,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	if s.audit != nil {
		entry := &models.AuditLog{
			Action:     models.AuditActionCategoryCreate,
			Resource:   "categories",
			ResourceID: &category.ID,
			CreatedAt:  category.CreatedAt,
		}
		if actorID != "" {
			entry.UserID = &actorID
		}
		if raw, err := json.Marshal(category); err == nil {
			entry.NewValues = raw
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record category audit log", zap.Error(err))
		}
	}
	return category, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}
