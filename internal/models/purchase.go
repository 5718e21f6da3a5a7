package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase - one batch of fish bought from a supplier. Its stock is consumed by
// SaleItems; remaining stock is always derived, never stored.
type Purchase struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	SupplierID   uint            `gorm:"index;not null" json:"supplier_id"`
	Supplier     Supplier        `gorm:"foreignKey:SupplierID;constraint:OnDelete:RESTRICT" json:"-"`
	PurchaseDate time.Time       `gorm:"index;not null" json:"purchase_date"`
	QuantityKg   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_kg"`
	PricePerKg   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price_per_kg"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_cost"` // quantity_kg * price_per_kg
	Notes        string          `gorm:"size:500" json:"notes"`

	// Uploaded documents; the files live under ATTACHMENT_PATH
	InvoicePath         string `gorm:"size:255" json:"invoice_path"`
	InvoiceOriginalName string `gorm:"size:255" json:"invoice_original_name"`
	ReceiptPath         string `gorm:"size:255" json:"receipt_path"`
	ReceiptOriginalName string `gorm:"size:255" json:"receipt_original_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
