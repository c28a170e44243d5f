package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAccepted  OrderStatus = "accepted"
	StatusPreparing OrderStatus = "preparing"
	StatusServed    OrderStatus = "served"
	StatusSettled   OrderStatus = "settled"
)

type Channel string

const (
	ChannelDineIn   Channel = "dine-in"
	ChannelDelivery Channel = "delivery"
	ChannelPickup   Channel = "pickup"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelDineIn, ChannelDelivery, ChannelPickup:
		return true
	}
	return false
}

// TableRef identifies a table inside a tenant: its number plus the table category.
type TableRef struct {
	Number     string `json:"number"`
	CategoryID uint   `json:"category_id"`
}

// Key is the value stored in Order.ActiveTableKey while the table is occupied.
func (t TableRef) Key(tenantID string) string {
	return fmt.Sprintf("%s|%s|%d", tenantID, t.Number, t.CategoryID)
}

type Order struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	TenantID        string  `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	Channel         Channel `gorm:"type:varchar(20);not null" json:"channel"`
	TableNumber     *string `gorm:"type:varchar(50)" json:"table_number,omitempty"`
	TableCategoryID *uint   `json:"table_category_id,omitempty"`
	// set while a dine-in order is active, NULL after settlement
	ActiveTableKey *string `gorm:"type:varchar(191);uniqueIndex" json:"-"`

	CustomerName  string `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	CustomerPhone string `gorm:"type:varchar(50)" json:"customer_phone,omitempty"`
	CustomerEmail string `gorm:"type:varchar(255)" json:"customer_email,omitempty"`

	Status      OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IsPaid      bool        `gorm:"not null;default:false" json:"is_paid"`
	PaymentMode string      `gorm:"type:varchar(30)" json:"payment_mode,omitempty"`

	HasTip     bool            `gorm:"not null;default:false" json:"has_tip"`
	TipAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tip_amount"`
	TipStaffID *uint           `json:"tip_staff_id,omitempty"`

	Version        uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	LastModifiedAt time.Time `gorm:"not null" json:"last_modified_at"`

	LineItems []LineItem `gorm:"foreignKey:OrderID" json:"line_items"`
	Batches   []KOTBatch `gorm:"foreignKey:OrderID" json:"batches,omitempty"`
	Invoice   *Invoice   `gorm:"foreignKey:OrderID" json:"invoice,omitempty"`
}

// Table returns the order's table reference, if it has one.
func (o *Order) Table() (TableRef, bool) {
	if o.TableNumber == nil {
		return TableRef{}, false
	}
	ref := TableRef{Number: *o.TableNumber}
	if o.TableCategoryID != nil {
		ref.CategoryID = *o.TableCategoryID
	}
	return ref, true
}

// PendingKOT counts line items holding quantity not yet sent to the kitchen.
func (o *Order) PendingKOT() int {
	n := 0
	for _, item := range o.LineItems {
		if item.PendingQuantity() > 0 {
			n++
		}
	}
	return n
}

func (o *Order) FindLineItem(id uint) (int, bool) {
	for i := range o.LineItems {
		if o.LineItems[i].ID == id {
			return i, true
		}
	}
	return -1, false
}
