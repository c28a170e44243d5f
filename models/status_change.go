package models

import "time"

// StatusChange is the audit trail of every order status transition.
type StatusChange struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"not null;index" json:"order_id"`
	TenantID   string      `gorm:"type:varchar(64);not null" json:"tenant_id"`
	FromStatus OrderStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   OrderStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	ChangedBy  *uint       `json:"changed_by,omitempty"`
	CreatedAt  time.Time   `gorm:"not null" json:"created_at"`
}
