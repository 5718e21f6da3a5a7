package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale - a sale to a customer, made of one or more SaleItems.
// Subtotal, DiscountAmount and TotalAmount are kept in sync with the items by
// the action layer on every item mutation.
type Sale struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	CustomerID         uint            `gorm:"index;not null" json:"customer_id"`
	Customer           Customer        `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"-"`
	SaleDate           time.Time       `gorm:"index;not null" json:"sale_date"`
	IsCredit           bool            `gorm:"not null;default:false;index" json:"is_credit"`
	IsDelivery         bool            `gorm:"not null;default:false" json:"is_delivery"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"discount_percentage"`
	DeliveryFee        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"delivery_fee"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	DiscountAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"discount_amount"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_amount"`
	Notes              string          `gorm:"size:500" json:"notes"`
	Items              []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// SaleItem allocates a slice of one purchase's stock to a sale at a sale price.
type SaleItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	SaleID     uint            `gorm:"index;not null" json:"sale_id"`
	PurchaseID uint            `gorm:"index;not null" json:"purchase_id"`
	Purchase   Purchase        `gorm:"foreignKey:PurchaseID;constraint:OnDelete:RESTRICT" json:"-"`
	QuantityKg decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_kg"`
	PricePerKg decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price_per_kg"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_price"` // quantity_kg * price_per_kg
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
