package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/b2b-admin-api/internal/models"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
	"github.com/noah-isme/b2b-admin-api/pkg/pagination"
)

type supplierRepository interface {
	List(ctx context.Context, filter models.SupplierFilter) ([]models.Supplier, int, error)
	FindByID(ctx context.Context, id string) (*models.Supplier, error)
}

// SupplierService exposes the read-only supplier directory.
type SupplierService struct {
	repo   supplierRepository
	logger *zap.Logger
}

// NewSupplierService constructs the supplier service.
func NewSupplierService(repo supplierRepository, logger *zap.Logger) *SupplierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplierService{repo: repo, logger: logger}
}

// List returns suppliers and pagination metadata.
func (s *SupplierService) List(ctx context.Context, filter models.SupplierFilter) ([]models.Supplier, *pagination.Pagination, error) {
	suppliers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list suppliers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return suppliers, pagination.New(page, size, total), nil
}

// Get returns a supplier by ID.
func (s *SupplierService) Get(ctx context.Context, id string) (*models.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supplier not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supplier")
	}
	return supplier, nil
}
