package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/b2b-admin-api/internal/models"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
	"github.com/noah-isme/b2b-admin-api/pkg/pagination"
)

// offerCachePattern matches every cached offer list page.
const offerCachePattern = "offers:*"

type offerRepository interface {
	List(ctx context.Context, filter models.OfferFilter) ([]models.SupplierOfferDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SupplierOfferDetail, error)
	Review(ctx context.Context, id string, status models.OfferStatus, reviewerID string, note *string, reviewedAt time.Time) (int64, error)
}

// ReviewOfferRequest carries the optional note for an approval or rejection.
type ReviewOfferRequest struct {
	Note string `json:"note" validate:"max=1000"`
}

// OfferListResult is the cached payload for an offer list page.
type OfferListResult struct {
	Offers     []models.SupplierOfferDetail `json:"offers"`
	Pagination *pagination.Pagination       `json:"pagination"`
}

// OfferService handles the supplier-offer review workflow.
type OfferService struct {
	repo      offerRepository
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewOfferService constructs the offer service.
func NewOfferService(repo offerRepository, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *OfferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// List returns an offer page, serving from cache when possible.
func (s *OfferService) List(ctx context.Context, filter models.OfferFilter) (*OfferListResult, bool, error) {
	key := filter.CacheKey()
	if s.cache != nil {
		var cached OfferListResult
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	offers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	result := &OfferListResult{
		Offers:     offers,
		Pagination: pagination.New(page, size, total),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache offer list", zap.String("key", key), zap.Error(err))
		}
	}
	return result, false, nil
}

// Get returns detailed offer information.
func (s *OfferService) Get(ctx context.Context, id string) (*models.SupplierOfferDetail, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offer")
	}
	return offer, nil
}

// Approve transitions a pending offer to APPROVED.
func (s *OfferService) Approve(ctx context.Context, id, reviewerID string, req ReviewOfferRequest) (*models.SupplierOfferDetail, error) {
	return s.review(ctx, id, reviewerID, models.OfferStatusApproved, models.AuditActionOfferApprove, req)
}

// Reject transitions a pending offer to REJECTED.
func (s *OfferService) Reject(ctx context.Context, id, reviewerID string, req ReviewOfferRequest) (*models.SupplierOfferDetail, error) {
	return s.review(ctx, id, reviewerID, models.OfferStatusRejected, models.AuditActionOfferReject, req)
}

// review performs the single PENDING transition. A zero row count from the
// repository means some reviewer got there first; the caller sees a conflict
// rather than a silent overwrite.
func (s *OfferService) review(ctx context.Context, id, reviewerID string, status models.OfferStatus, action string, req ReviewOfferRequest) (*models.SupplierOfferDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	before, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offer")
	}
	if before.Status != models.OfferStatusPending {
		return nil, appErrors.Clone(appErrors.ErrOfferReviewed, "offer already reviewed")
	}

	var note *string
	if req.Note != "" {
		note = &req.Note
	}
	rows, err := s.repo.Review(ctx, id, status, reviewerID, note, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review offer")
	}
	if rows == 0 {
		return nil, appErrors.Clone(appErrors.ErrOfferReviewed, "offer already reviewed")
	}

	if s.cache != nil {
		// A review changes the offer lists, the analytics funnel, and the
		// dashboard pending counts; all three families go stale together.
		for _, pattern := range []string{offerCachePattern, analyticsCachePattern, dashboardCacheKey} {
			if err := s.cache.Invalidate(ctx, pattern); err != nil {
				s.logger.Warn("failed to invalidate cache", zap.String("pattern", pattern), zap.Error(err))
			}
		}
	}

	after, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload offer")
	}

	s.record(ctx, reviewerID, action, id, &before.SupplierOffer, &after.SupplierOffer)
	return after, nil
}

func (s *OfferService) record(ctx context.Context, actorID, action, resourceID string, before, after interface{}) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "offers",
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
		s.logger.Warn("failed to record offer audit log", zap.Error(err))
	}
}
