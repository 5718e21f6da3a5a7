// Package receipt renders sale receipts and delivers them to customers.
package receipt

import (
	"time"

	"fishledger-backend/internal/models"

	"github.com/shopspring/decimal"
)

type Business struct {
	Name    string
	Address string
	Phone   string
}

type Line struct {
	Description string
	QuantityKg  decimal.Decimal
	PricePerKg  decimal.Decimal
	Total       decimal.Decimal
}

// Document is everything printed on a receipt.
type Document struct {
	Business Business

	Number       string
	Status       models.ReceiptStatus
	IssuedAt     time.Time
	VoidReason   string
	ReissuedFrom string

	SaleID        uint
	SaleDate      time.Time
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	IsCredit      bool

	Lines          []Line
	Subtotal       decimal.Decimal
	DiscountPct    decimal.Decimal
	DiscountAmount decimal.Decimal
	DeliveryFee    decimal.Decimal
	Total          decimal.Decimal
	Paid           decimal.Decimal
	Outstanding    decimal.Decimal
}

func (d Document) Voided() bool {
	return d.Status == models.ReceiptStatusVoided
}

func (d Document) FileName() string {
	return d.Number + ".pdf"
}
