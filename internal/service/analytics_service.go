package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/b2b-admin-api/internal/dto"
	"github.com/noah-isme/b2b-admin-api/internal/models"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
)

const (
	analyticsSummaryCacheKey   = "analytics:summary"
	analyticsBreakdownCacheKey = "analytics:categories"

	// analyticsCachePattern matches every cached analytics aggregate; offer
	// reviews invalidate it because the funnel counts change.
	analyticsCachePattern = "analytics:*"
)

type analyticsRepository interface {
	CatalogSummary(ctx context.Context) (*models.CatalogSummary, error)
	CategoryBreakdown(ctx context.Context) ([]models.CategoryBreakdown, error)
}

type offerFunnelProvider interface {
	CountByStatus(ctx context.Context) ([]models.OfferFunnelEntry, error)
}

// AnalyticsService serves catalog and offer aggregates with read-through caching.
type AnalyticsService struct {
	repo     analyticsRepository
	offers   offerFunnelProvider
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(repo analyticsRepository, offers offerFunnelProvider, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &AnalyticsService{repo: repo, offers: offers, cache: cache, metrics: metrics, logger: logger, cacheTTL: cacheTTL, now: time.Now}
}

// Summary returns catalog counts plus the offer funnel. The boolean reports
// cache utilisation.
func (s *AnalyticsService) Summary(ctx context.Context) (*dto.AnalyticsSummaryResponse, bool, error) {
	if s.cache != nil {
		var cached dto.AnalyticsSummaryResponse
		if hit, err := s.cache.Get(ctx, analyticsSummaryCacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	summary, err := s.repo.CatalogSummary(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog summary")
	}
	funnel, err := s.offers.CountByStatus(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offer funnel")
	}

	result := &dto.AnalyticsSummaryResponse{
		Catalog:     *summary,
		OfferFunnel: funnel,
		GeneratedAt: s.now().UTC(),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, analyticsSummaryCacheKey, result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache analytics summary", zap.Error(err))
		}
	}
	return result, false, nil
}

// CategoryBreakdown returns per-category composition, cached.
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context) ([]models.CategoryBreakdown, bool, error) {
	if s.cache != nil {
		var cached []models.CategoryBreakdown
		if hit, err := s.cache.Get(ctx, analyticsBreakdownCacheKey, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	breakdown, err := s.repo.CategoryBreakdown(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category breakdown")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, analyticsBreakdownCacheKey, breakdown, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache category breakdown", zap.Error(err))
		}
	}
	return breakdown, false, nil
}

// SystemMetrics returns a lightweight runtime snapshot.
func (s *AnalyticsService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}
