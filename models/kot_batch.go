package models

import "time"

// KOTBatch is one kitchen order ticket. Batches are append-only: a later
// quantity increase produces a new batch for the delta.
type KOTBatch struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"batch_id"`
	OrderID     uint           `gorm:"not null;index:idx_batch_order_seq,unique" json:"order_id"`
	Sequence    int            `gorm:"not null;index:idx_batch_order_seq,unique" json:"sequence"`
	TenantID    string         `gorm:"type:varchar(64);not null;index" json:"tenant_id"`
	StaffID     *uint          `json:"staff_id,omitempty"`
	TableNumber *string        `gorm:"type:varchar(50)" json:"table_number,omitempty"`
	Items       []KOTBatchItem `gorm:"foreignKey:BatchID" json:"items"`
	SubmittedAt time.Time      `gorm:"not null" json:"submitted_at"`
}

type KOTBatchItem struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	BatchID    string `gorm:"type:varchar(36);not null;index" json:"-"`
	LineItemID uint   `gorm:"not null" json:"line_item_id"`
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	Quantity   int    `gorm:"not null" json:"quantity"`
	Notes      string `gorm:"type:text" json:"notes,omitempty"`
}
