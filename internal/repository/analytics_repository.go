package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/b2b-admin-api/internal/models"
)

// AnalyticsRepository aggregates catalog and offer statistics.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs an AnalyticsRepository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CatalogSummary returns the headline counts for the dashboard.
func (r *AnalyticsRepository) CatalogSummary(ctx context.Context) (*models.CatalogSummary, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM master_products WHERE active = TRUE) AS total_products,
        (SELECT COUNT(*) FROM master_products WHERE active = TRUE AND is_approved = TRUE) AS approved_products,
        (SELECT COUNT(*) FROM master_products WHERE active = TRUE AND is_approved = FALSE) AS pending_products,
        (SELECT COUNT(*) FROM categories WHERE active = TRUE) AS total_categories,
        (SELECT COUNT(*) FROM suppliers WHERE active = TRUE) AS total_suppliers`
	var summary models.CatalogSummary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("catalog summary: %w", err)
	}
	return &summary, nil
}

// CategoryBreakdown returns per-category product composition.
func (r *AnalyticsRepository) CategoryBreakdown(ctx context.Context) ([]models.CategoryBreakdown, error) {
	const query = `SELECT c.id AS category_id, c.name AS category_name,
        COUNT(p.id) AS product_count,
        COUNT(p.id) FILTER (WHERE p.is_approved) AS approved_count
        FROM categories c
        LEFT JOIN master_products p ON p.category_id = c.id AND p.active = TRUE
        WHERE c.active = TRUE
        GROUP BY c.id, c.name
        ORDER BY product_count DESC, c.name ASC`
	var rows []models.CategoryBreakdown
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	return rows, nil
}
