package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-orders/billing"
	"github.com/yeremiapane/restaurant-orders/models"
)

// Actor is the session every operation runs under. The tenant is taken from
// here, never from the request body.
type Actor struct {
	TenantID string
	StaffID  uint
	Role     string
}

func (a Actor) staffID() *uint {
	if a.StaffID == 0 {
		return nil
	}
	id := a.StaffID
	return &id
}

// ItemInput is one line as entered by a POS terminal or guest device.
// MenuItemID is nil for custom items typed in at billing time.
type ItemInput struct {
	MenuItemID *uint           `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Notes      string          `json:"notes"`
}

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type CreateOrderInput struct {
	Channel  models.Channel   `json:"channel" binding:"required"`
	Table    *models.TableRef `json:"table"`
	Customer Customer         `json:"customer"`
	Items    []ItemInput      `json:"items"`
	// HoldKOT saves the items without sending them to the kitchen.
	HoldKOT bool `json:"hold_kot"`
}

type Tender struct {
	Mode   string          `json:"mode"`
	Amount decimal.Decimal `json:"amount"`
}

// Payment is how a bill was paid. Tenders are optional; when given they must
// add up to the grand total. SettlementID is the client's key for this
// settlement: retrying with the same key returns the settled order instead of
// a conflict.
type Payment struct {
	Mode         string   `json:"mode"`
	Tenders      []Tender `json:"tenders,omitempty"`
	SettlementID string   `json:"settlement_id,omitempty"`
}

func (p Payment) normalized() Payment {
	p.Mode = strings.TrimSpace(p.Mode)
	p.SettlementID = strings.TrimSpace(p.SettlementID)
	if len(p.Tenders) > 0 {
		tenders := make([]Tender, len(p.Tenders))
		for i, t := range p.Tenders {
			tenders[i] = Tender{Mode: strings.TrimSpace(t.Mode), Amount: t.Amount}
		}
		p.Tenders = tenders
	}
	return p
}

// Equal compares mode, settlement id and tenders in order.
func (p Payment) Equal(other Payment) bool {
	if p.Mode != other.Mode || p.SettlementID != other.SettlementID || len(p.Tenders) != len(other.Tenders) {
		return false
	}
	for i := range p.Tenders {
		if p.Tenders[i].Mode != other.Tenders[i].Mode || !p.Tenders[i].Amount.Equal(other.Tenders[i].Amount) {
			return false
		}
	}
	return true
}

// settlementSnapshot is what Invoice.Snapshot stores.
type settlementSnapshot struct {
	Bill    billing.Bill `json:"bill"`
	Payment Payment      `json:"payment"`
}
