package models

import (
	"time"

	"gorm.io/datatypes"
)

// OutboxEvent is a real-time event recorded in the same transaction as the
// order mutation that caused it, waiting for the relay to publish it.
type OutboxEvent struct {
	ID           uint           `gorm:"primaryKey"`
	TenantID     string         `gorm:"type:varchar(64);not null;index"`
	EventName    string         `gorm:"type:varchar(50);not null"`
	OrderID      *uint          `gorm:"index"`
	Payload      datatypes.JSON `gorm:"not null"`
	Attempts     int            `gorm:"not null;default:0"`
	Dispatched   bool           `gorm:"not null;default:false;index:idx_outbox_pending"`
	DispatchedAt *time.Time
	LastError    string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
}
