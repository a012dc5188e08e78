package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/b2b-admin-api/internal/models"
)

// OfferRepository manages persistence for supplier offers.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository constructs an OfferRepository.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerDetailColumns = `o.id, o.supplier_id, o.product_id, o.price, o.currency, o.min_order_qty, o.lead_time_days, o.status, o.reviewed_by, o.reviewed_at, o.review_note, o.created_at, o.updated_at,
        s.name AS supplier_name, p.name AS product_name, p.sku AS product_sku`

// List returns supplier offers matching the filter, newest first by default.
func (r *OfferRepository) List(ctx context.Context, filter models.OfferFilter) ([]models.SupplierOfferDetail, int, error) {
	base := `FROM supplier_offers o
        JOIN suppliers s ON s.id = o.supplier_id
        JOIN master_products p ON p.id = o.product_id`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.SupplierID != "" {
		conditions = append(conditions, fmt.Sprintf("o.supplier_id = $%d", len(args)+1))
		args = append(args, filter.SupplierID)
	}
	if filter.ProductID != "" {
		conditions = append(conditions, fmt.Sprintf("o.product_id = $%d", len(args)+1))
		args = append(args, filter.ProductID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.name) LIKE $%d OR LOWER(p.sku) LIKE $%d OR LOWER(s.name) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"price":      "o.price",
		"status":     "o.status",
		"created_at": "o.created_at",
		"updated_at": "o.updated_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "o.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", offerDetailColumns, base, column, order, size, offset)

	var offers []models.SupplierOfferDetail
	if err := r.db.SelectContext(ctx, &offers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count offers: %w", err)
	}
	return offers, total, nil
}

// FindByID fetches an offer detail by ID.
func (r *OfferRepository) FindByID(ctx context.Context, id string) (*models.SupplierOfferDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM supplier_offers o
        JOIN suppliers s ON s.id = o.supplier_id
        JOIN master_products p ON p.id = o.product_id
        WHERE o.id = $1`, offerDetailColumns)
	var detail models.SupplierOfferDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Review records the single PENDING -> APPROVED/REJECTED transition. The
// WHERE clause on status makes the update a no-op when the offer was already
// reviewed; the caller detects that via the returned row count.
func (r *OfferRepository) Review(ctx context.Context, id string, status models.OfferStatus, reviewerID string, note *string, reviewedAt time.Time) (int64, error) {
	const query = `UPDATE supplier_offers
        SET status = $2, reviewed_by = $3, review_note = $4, reviewed_at = $5, updated_at = $5
        WHERE id = $1 AND status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, query, id, status, reviewerID, note, reviewedAt)
	if err != nil {
		return 0, fmt.Errorf("review offer: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("review offer rows: %w", err)
	}
	return rows, nil
}

// CountByStatus returns the offer funnel used by analytics.
func (r *OfferRepository) CountByStatus(ctx context.Context) ([]models.OfferFunnelEntry, error) {
	const query = `SELECT status, COUNT(*) AS count FROM supplier_offers GROUP BY status ORDER BY status`
	var entries []models.OfferFunnelEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("count offers by status: %w", err)
	}
	return entries, nil
}
