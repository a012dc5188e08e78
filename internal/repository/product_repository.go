package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/b2b-admin-api/internal/models"
)

// ProductRepository manages persistence for master products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository constructs a ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns master products matching the provided filters. The server
// clamps page and page size; the reported page is never adjusted below what
// the caller asked for beyond those bounds.
func (r *ProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.MasterProductDetail, int, error) {
	base := `FROM master_products p
        LEFT JOIN categories c ON c.id = p.category_id
        LEFT JOIN LATERAL (SELECT COUNT(*) AS offer_count FROM supplier_offers o WHERE o.product_id = p.id) oc ON TRUE`
	conditions := []string{"p.active = TRUE"}
	var args []interface{}

	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.Approved != nil {
		conditions = append(conditions, fmt.Sprintf("p.is_approved = $%d", len(args)+1))
		args = append(args, *filter.Approved)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.name) LIKE $%d OR LOWER(p.sku) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"name":       "p.name",
		"sku":        "p.sku",
		"created_at": "p.created_at",
		"updated_at": "p.updated_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "p.created_at"
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

	query := fmt.Sprintf(`SELECT p.id, p.sku, p.name, p.description, p.category_id, p.unit, p.image_path, p.is_approved, p.active, p.created_at, p.updated_at,
        c.name AS category_name, oc.offer_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var products []models.MasterProductDetail
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return products, total, nil
}

// FindByID fetches a product detail by ID.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.MasterProductDetail, error) {
	const query = `SELECT p.id, p.sku, p.name, p.description, p.category_id, p.unit, p.image_path, p.is_approved, p.active, p.created_at, p.updated_at,
        c.name AS category_name,
        (SELECT COUNT(*) FROM supplier_offers o WHERE o.product_id = p.id) AS offer_count
        FROM master_products p
        LEFT JOIN categories c ON c.id = p.category_id
        WHERE p.id = $1`
	var detail models.MasterProductDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsBySKU checks if a product with the given SKU exists, optionally excluding an ID.
func (r *ProductRepository) ExistsBySKU(ctx context.Context, sku string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM master_products WHERE sku = $1"
	args := []interface{}{sku}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check sku: %w", err)
	}
	return true, nil
}

// Create inserts a new master product.
func (r *ProductRepository) Create(ctx context.Context, product *models.MasterProduct) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	const query = `INSERT INTO master_products (id, sku, name, description, category_id, unit, image_path, is_approved, active, created_at, updated_at)
        VALUES (:id, :sku, :name, :description, :category_id, :unit, :image_path, :is_approved, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// Update modifies an existing master product.
func (r *ProductRepository) Update(ctx context.Context, product *models.MasterProduct) error {
	product.UpdatedAt = time.Now().UTC()
	const query = `UPDATE master_products SET sku = :sku, name = :name, description = :description, category_id = :category_id, unit = :unit, image_path = :image_path, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, product); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// SetApproval flips the approval flag and returns the stored state.
func (r *ProductRepository) SetApproval(ctx context.Context, id string, approved bool) error {
	const query = `UPDATE master_products SET is_approved = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, approved, time.Now().UTC()); err != nil {
		return fmt.Errorf("set product approval: %w", err)
	}
	return nil
}

// SetImagePath stores the relative path of an uploaded product image.
func (r *ProductRepository) SetImagePath(ctx context.Context, id, path string) error {
	const query = `UPDATE master_products SET image_path = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC()); err != nil {
		return fmt.Errorf("set product image: %w", err)
	}
	return nil
}

// Deactivate performs a soft delete.
func (r *ProductRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE master_products SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	return nil
}
