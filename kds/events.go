package kds

import (
	"time"

	"github.com/yeremiapane/restaurant-orders/models"
)

// Event names carried on a tenant channel.
const (
	EventKOTCreated    = "order.kot.created"
	EventStatusChanged = "order.status.changed"
	EventWaiterCalled  = "waiter.called"
)

// Message is the envelope written to every connection.
type Message struct {
	ID    uint        `json:"id,omitempty"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type KOTItem struct {
	LineItemID uint   `json:"line_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

// KOTCreated is consumed by the kitchen display, which merges on BatchID.
type KOTCreated struct {
	OrderID     uint      `json:"order_id"`
	BatchID     string    `json:"batch_id"`
	Sequence    int       `json:"sequence"`
	TableNumber *string   `json:"table_number,omitempty"`
	Items       []KOTItem `json:"items"`
}

type StatusChanged struct {
	OrderID        uint               `json:"order_id"`
	PreviousStatus models.OrderStatus `json:"previous_status"`
	NewStatus      models.OrderStatus `json:"new_status"`
	Timestamp      time.Time          `json:"timestamp"`
}

type WaiterCalled struct {
	TableRef  models.TableRef `json:"table_ref"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewKOTCreated builds the kitchen payload for a persisted batch.
func NewKOTCreated(batch models.KOTBatch) KOTCreated {
	items := make([]KOTItem, len(batch.Items))
	for i, it := range batch.Items {
		items[i] = KOTItem{LineItemID: it.LineItemID, Name: it.Name, Quantity: it.Quantity, Notes: it.Notes}
	}
	return KOTCreated{
		OrderID:     batch.OrderID,
		BatchID:     batch.ID,
		Sequence:    batch.Sequence,
		TableNumber: batch.TableNumber,
		Items:       items,
	}
}
