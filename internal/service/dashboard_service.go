package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/b2b-admin-api/internal/dto"
	"github.com/noah-isme/b2b-admin-api/internal/models"
	appErrors "github.com/noah-isme/b2b-admin-api/pkg/errors"
)

const dashboardCacheKey = "dash:admin"

type dashboardAnalyticsRepository interface {
	CatalogSummary(ctx context.Context) (*models.CatalogSummary, error)
	CategoryBreakdown(ctx context.Context) ([]models.CategoryBreakdown, error)
}

type activityProvider interface {
	ListRecentAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL          time.Duration
	TopCategoriesMax  int
	RecentActivityMax int
}

// DashboardService composes the admin landing-page payload.
type DashboardService struct {
	analytics dashboardAnalyticsRepository
	offers    offerFunnelProvider
	activity  activityProvider
	cache     *CacheService
	logger    *zap.Logger
	now       func() time.Time
	cfg       DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Analytics dashboardAnalyticsRepository
	Offers    offerFunnelProvider
	Activity  activityProvider
	Cache     *CacheService
	Logger    *zap.Logger
	Config    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TopCategoriesMax <= 0 {
		cfg.TopCategoriesMax = 5
	}
	if cfg.RecentActivityMax <= 0 {
		cfg.RecentActivityMax = 10
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		analytics: params.Analytics,
		offers:    params.Offers,
		activity:  params.Activity,
		cache:     params.Cache,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// Admin returns the admin dashboard summary and indicates cache utilisation.
func (s *DashboardService) Admin(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	if summary, hit, err := s.tryCache(ctx, dashboardCacheKey); err != nil {
		return nil, false, err
	} else if hit {
		return summary, true, nil
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, dashboardCacheKey, summary)
	return summary, false, nil
}

func (s *DashboardService) tryCache(ctx context.Context, key string) (*dto.DashboardResponse, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	var cached dto.DashboardResponse
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return &cached, true, nil
	}
	return nil, false, nil
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context) (*dto.DashboardResponse, error) {
	if s.analytics == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "analytics repository unavailable")
	}
	catalog, err := s.analytics.CatalogSummary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog summary")
	}

	var funnel []models.OfferFunnelEntry
	pending := 0
	if s.offers != nil {
		funnel, err = s.offers.CountByStatus(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offer funnel")
		}
		for _, entry := range funnel {
			if entry.Status == models.OfferStatusPending {
				pending = entry.Count
			}
		}
	}

	breakdown, err := s.analytics.CategoryBreakdown(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category breakdown")
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].ProductCount > breakdown[j].ProductCount
	})
	if len(breakdown) > s.cfg.TopCategoriesMax {
		breakdown = breakdown[:s.cfg.TopCategoriesMax]
	}

	var activity []models.AuditLog
	if s.activity != nil {
		activity, err = s.activity.ListRecentAuditLogs(ctx, s.cfg.RecentActivityMax)
		if err != nil {
			// Activity is supplementary; the dashboard still renders without it.
			s.logger.Warn("failed to load recent activity", zap.Error(err))
			activity = nil
		}
	}

	return &dto.DashboardResponse{
		Catalog:        *catalog,
		OfferFunnel:    funnel,
		TopCategories:  breakdown,
		PendingOffers:  pending,
		RecentActivity: activity,
		GeneratedAt:    s.now().UTC(),
	}, nil
}
