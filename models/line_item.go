package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	// nil for custom items entered at billing time
	MenuItemID *uint           `gorm:"index" json:"menu_item_id"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	// quantity already carried by KOT batches
	SentQuantity int       `gorm:"not null;default:0" json:"sent_quantity"`
	BatchID      *string   `gorm:"type:varchar(36);index" json:"batch_id"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// PendingQuantity is the positive delta the kitchen has not seen yet.
func (li *LineItem) PendingQuantity() int {
	if d := li.Quantity - li.SentQuantity; d > 0 {
		return d
	}
	return 0
}

// SameItem reports whether li and other describe the same dish for merging.
// Menu items match by menu id; custom items match by name and unit price.
func (li *LineItem) SameItem(other LineItem) bool {
	if li.MenuItemID != nil || other.MenuItemID != nil {
		return li.MenuItemID != nil && other.MenuItemID != nil && *li.MenuItemID == *other.MenuItemID
	}
	return strings.EqualFold(strings.TrimSpace(li.Name), strings.TrimSpace(other.Name)) &&
		li.UnitPrice.Equal(other.UnitPrice)
}
