package models

import "time"

type CustomerType string

const (
	CustomerTypeRetail    CustomerType = "retail"
	CustomerTypeWholesale CustomerType = "wholesale"
)

// Customer - buyer; owns sales
type Customer struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"size:200;not null" json:"name"`
	Phone     string       `gorm:"size:50" json:"phone"`
	Email     string       `gorm:"size:100" json:"email"` // receipts are emailed here when set
	Address   string       `gorm:"size:255" json:"address"`
	Type      CustomerType `gorm:"size:20;not null;default:retail" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
