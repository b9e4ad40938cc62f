package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses. Overdue is derivable from sent + due date at read time;
// it is also settable manually since no background job transitions it.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice is a billing document for a customer, optionally tied to a
// property. Totals are recomputed on every line-item mutation so that
// total == subtotal + tax and subtotal == sum(quantity * unit_price).
type Invoice struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Customer   User      `gorm:"foreignKey:CustomerID" json:"customer"`
	PropertyID *uint     `gorm:"index" json:"property_id"`
	Property   *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`

	Status   string        `gorm:"not null;default:'draft';index" json:"status"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
	Subtotal float64       `gorm:"not null;default:0" json:"subtotal"`
	Tax      float64       `gorm:"not null;default:0" json:"tax"` // caller-supplied, no tax-rate table
	Total    float64       `gorm:"not null;default:0" json:"total"`

	DueDate *time.Time `json:"due_date"`
	SentAt  *time.Time `json:"sent_at"`
	PaidAt  *time.Time `json:"paid_at"` // status=paid implies PaidAt non-nil

	Notes string `gorm:"type:text" json:"notes"`

	// External payment processor references
	StripePaymentIntentID *string `gorm:"index" json:"stripe_payment_intent_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceItem is a single line on an invoice.
type InvoiceItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	InvoiceID   uint    `gorm:"not null;index" json:"invoice_id"`
	Description string  `gorm:"not null" json:"description"`
	Quantity    int     `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	Amount      float64 `gorm:"not null" json:"amount"` // quantity * unit_price
}

// TableName specifies the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// Recalculate recomputes each line amount, the subtotal, and the total from
// the current items and tax. Call after any line-item mutation.
func (inv *Invoice) Recalculate() {
	subtotal := 0.0
	for i := range inv.Items {
		inv.Items[i].Amount = float64(inv.Items[i].Quantity) * inv.Items[i].UnitPrice
		subtotal += inv.Items[i].Amount
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal + inv.Tax
}

// IsOverdue reports whether a sent, unpaid invoice is past its due date.
// Overdue is computed at read time; nothing transitions the stored status.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status != InvoiceStatusSent || inv.DueDate == nil {
		return inv.Status == InvoiceStatusOverdue
	}
	return now.After(*inv.DueDate)
}

// EffectiveStatus returns the status with overdue derived at read time.
func (inv *Invoice) EffectiveStatus(now time.Time) string {
	if inv.IsOverdue(now) {
		return InvoiceStatusOverdue
	}
	return inv.Status
}
