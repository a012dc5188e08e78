package models

import (
	"fmt"
	"strings"
	"time"
)

// OfferStatus captures workflow states for supplier offers.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "PENDING"
	OfferStatusApproved OfferStatus = "APPROVED"
	OfferStatusRejected OfferStatus = "REJECTED"
)

// SupplierOffer is a priced proposal by a supplier for a master product.
// Offers enter PENDING and transition exactly once to APPROVED or REJECTED.
type SupplierOffer struct {
	ID           string      `db:"id" json:"id"`
	SupplierID   string      `db:"supplier_id" json:"supplier_id"`
	ProductID    string      `db:"product_id" json:"product_id"`
	Price        float64     `db:"price" json:"price"`
	Currency     string      `db:"currency" json:"currency"`
	MinOrderQty  int         `db:"min_order_qty" json:"min_order_qty"`
	LeadTimeDays int         `db:"lead_time_days" json:"lead_time_days"`
	Status       OfferStatus `db:"status" json:"status"`
	ReviewedBy   *string     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time  `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNote   *string     `db:"review_note" json:"review_note,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// SupplierOfferDetail joins supplier and product context onto an offer row.
type SupplierOfferDetail struct {
	SupplierOffer
	SupplierName string `db:"supplier_name" json:"supplier_name"`
	ProductName  string `db:"product_name" json:"product_name"`
	ProductSKU   string `db:"product_sku" json:"product_sku"`
}

// OfferFilter is the closed set of list parameters for supplier offers.
type OfferFilter struct {
	Status     *OfferStatus
	SupplierID string
	ProductID  string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// CacheKey renders a canonical cache key for this filter value.
func (f OfferFilter) CacheKey() string {
	status := "-"
	if f.Status != nil {
		status = string(*f.Status)
	}
	return fmt.Sprintf("offers:list:p%d:s%d:st%s:sup%s:prod%s:q%s:o%s_%s",
		f.Page, f.PageSize, status, f.SupplierID, f.ProductID,
		strings.ToLower(strings.TrimSpace(f.Search)), f.SortBy, strings.ToLower(f.SortOrder))
}
