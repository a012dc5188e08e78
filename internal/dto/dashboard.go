package dto

import (
	"time"

	"github.com/noah-isme/b2b-admin-api/internal/models"
)

// DashboardResponse is the composed admin landing-page payload.
type DashboardResponse struct {
	Catalog        models.CatalogSummary      `json:"catalog"`
	OfferFunnel    []models.OfferFunnelEntry  `json:"offer_funnel"`
	TopCategories  []models.CategoryBreakdown `json:"top_categories"`
	PendingOffers  int                        `json:"pending_offers"`
	RecentActivity []models.AuditLog          `json:"recent_activity,omitempty"`
	GeneratedAt    time.Time                  `json:"generated_at"`
}

// AnalyticsSummaryResponse wraps catalog aggregates for the analytics API.
type AnalyticsSummaryResponse struct {
	Catalog     models.CatalogSummary     `json:"catalog"`
	OfferFunnel []models.OfferFunnelEntry `json:"offer_funnel"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// ExportJobResponse reports an export job with its signed download URL when ready.
type ExportJobResponse struct {
	Job         *models.ExportJob `json:"job"`
	DownloadURL string            `json:"download_url,omitempty"`
}
