package models

import "time"

// CatalogSummary aggregates headline catalog counts.
type CatalogSummary struct {
	TotalProducts    int `db:"total_products" json:"total_products"`
	ApprovedProducts int `db:"approved_products" json:"approved_products"`
	PendingProducts  int `db:"pending_products" json:"pending_products"`
	TotalCategories  int `db:"total_categories" json:"total_categories"`
	TotalSuppliers   int `db:"total_suppliers" json:"total_suppliers"`
}

// OfferFunnelEntry counts offers in a workflow state.
type OfferFunnelEntry struct {
	Status OfferStatus `db:"status" json:"status"`
	Count  int         `db:"count" json:"count"`
}

// CategoryBreakdown summarises catalog composition per category.
type CategoryBreakdown struct {
	CategoryID    string `db:"category_id" json:"category_id"`
	CategoryName  string `db:"category_name" json:"category_name"`
	ProductCount  int    `db:"product_count" json:"product_count"`
	ApprovedCount int    `db:"approved_count" json:"approved_count"`
}

// SystemMetrics is a lightweight runtime snapshot for the analytics API.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
