package models

import (
	"fmt"
	"strings"
	"time"
)

// MasterProduct is a catalog entry suppliers attach offers to.
type MasterProduct struct {
	ID          string    `db:"id" json:"id"`
	SKU         string    `db:"sku" json:"sku"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CategoryID  string    `db:"category_id" json:"category_id"`
	Unit        string    `db:"unit" json:"unit"`
	ImagePath   *string   `db:"image_path" json:"image_path,omitempty"`
	IsApproved  bool      `db:"is_approved" json:"is_approved"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// MasterProductDetail joins category context onto a product row.
type MasterProductDetail struct {
	MasterProduct
	CategoryName *string `db:"category_name" json:"category_name,omitempty"`
	OfferCount   int     `db:"offer_count" json:"offer_count"`
}

// ProductFilter is the closed set of list parameters for master products.
// Optional fields use pointers so "unset" and zero values stay distinct.
type ProductFilter struct {
	Search     string
	CategoryID string
	Approved   *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// CacheKey renders a canonical cache key for this filter value. Two filters
// that compare equal by value always yield the same key.
func (f ProductFilter) CacheKey() string {
	approved := "-"
	if f.Approved != nil {
		approved = fmt.Sprintf("%t", *f.Approved)
	}
	return fmt.Sprintf("catalog:products:list:p%d:s%d:q%s:c%s:a%s:o%s_%s",
		f.Page, f.PageSize, strings.ToLower(strings.TrimSpace(f.Search)),
		f.CategoryID, approved, f.SortBy, strings.ToLower(f.SortOrder))
}
