package models

import "time"

// Audit actions recorded by services and middleware.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionUserCreate     = "USER_CREATE"
	AuditActionUserUpdate     = "USER_UPDATE"
	AuditActionUserDeactivate = "USER_DEACTIVATE"
	AuditActionProductCreate  = "PRODUCT_CREATE"
	AuditActionProductUpdate  = "PRODUCT_UPDATE"
	AuditActionProductDelete  = "PRODUCT_DELETE"
	AuditActionProductToggle  = "PRODUCT_APPROVAL_TOGGLE"
	AuditActionOfferApprove   = "OFFER_APPROVE"
	AuditActionOfferReject    = "OFFER_REJECT"
	AuditActionCategoryCreate = "CATEGORY_CREATE"
)

// AuditLog records who changed what, with before/after payloads.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
