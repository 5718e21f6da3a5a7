package models

import "time"

type ReceiptStatus string

const (
	ReceiptStatusActive ReceiptStatus = "active"
	ReceiptStatusVoided ReceiptStatus = "voided"
)

// Receipt - numbered proof of a sale. Voided receipts are kept for the audit
// trail; a reissue creates a new row pointing at the voided one.
type Receipt struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	SaleID         uint          `gorm:"index;not null" json:"sale_id"`
	Sale           Sale          `gorm:"foreignKey:SaleID;constraint:OnDelete:RESTRICT" json:"-"`
	ReceiptNumber  string        `gorm:"size:30;uniqueIndex;not null" json:"receipt_number"`
	Status         ReceiptStatus `gorm:"size:20;not null;index" json:"status"`
	IssuedAt       time.Time     `gorm:"not null" json:"issued_at"`
	IssuedBy       uint          `json:"issued_by"`
	VoidedAt       *time.Time    `json:"voided_at"`
	VoidedBy       *uint         `json:"voided_by"`
	VoidReason     *string       `gorm:"size:500" json:"void_reason"`
	ReissuedFromID *uint         `gorm:"index" json:"reissued_from_id"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ReceiptCounter is a single-row sequence locked FOR UPDATE while a number is allocated.
type ReceiptCounter struct {
	ID   uint  `gorm:"primaryKey"`
	Next int64 `gorm:"not null"`
}
