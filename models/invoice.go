package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Invoice is the write-once bill persisted at settlement.
type Invoice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	TenantID      string          `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	InvoiceNumber string          `gorm:"type:varchar(100);not null" json:"invoice_number"`
	PaymentMode   string          `gorm:"type:varchar(30);not null" json:"payment_mode"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	Tax1          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax1"`
	Tax2          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax2"`
	Surcharges    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"surcharges"`
	Tip           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tip"`
	RoundOff      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"round_off"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"grand_total"`
	// full bill plus tenders as settled
	Snapshot datatypes.JSON `json:"snapshot"`
	// client key of the settle call that wrote this invoice
	SettlementKey string    `gorm:"type:varchar(100)" json:"settlement_key,omitempty"`
	SettledBy     *uint     `json:"settled_by,omitempty"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}
