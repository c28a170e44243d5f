package services

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-orders/models"
)

// Waker is notified after a commit that wrote outbox events.
type Waker interface {
	Wake()
}

// recordEvent writes an outbox row inside the caller's transaction, so the
// event exists if and only if the mutation that caused it committed.
func recordEvent(tx *gorm.DB, tenantID string, orderID *uint, name string, payload interface{}, now time.Time) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", name, err)
	}
	event := models.OutboxEvent{
		TenantID:  tenantID,
		EventName: name,
		OrderID:   orderID,
		Payload:   datatypes.JSON(data),
		CreatedAt: now,
	}
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("record %s event: %w", name, err)
	}
	return nil
}
