package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-orders/kds"
	"github.com/yeremiapane/restaurant-orders/models"
)

// pendingDeltas returns one ticket line per item holding quantity the kitchen
// has not seen. Items whose quantity dropped below what was sent yield nothing.
func pendingDeltas(items []models.LineItem) []models.KOTBatchItem {
	var deltas []models.KOTBatchItem
	for _, item := range items {
		d := item.PendingQuantity()
		if d <= 0 {
			continue
		}
		deltas = append(deltas, models.KOTBatchItem{
			LineItemID: item.ID,
			Name:       item.Name,
			Quantity:   d,
			Notes:      item.Notes,
		})
	}
	return deltas
}

// openBatch persists a kitchen ticket for every positive delta on the order,
// marks those quantities as sent and records order.kot.created. It returns nil
// when nothing is pending. Must run inside the order's transaction.
func openBatch(tx *gorm.DB, order *models.Order, staffID *uint, now time.Time) (*models.KOTBatch, error) {
	deltas := pendingDeltas(order.LineItems)
	if len(deltas) == 0 {
		return nil, nil
	}

	var last int
	if err := tx.Model(&models.KOTBatch{}).
		Where("order_id = ?", order.ID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error; err != nil {
		return nil, fmt.Errorf("read batch sequence: %w", err)
	}

	batch := models.KOTBatch{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		Sequence:    last + 1,
		TenantID:    order.TenantID,
		StaffID:     staffID,
		TableNumber: order.TableNumber,
		Items:       deltas,
		SubmittedAt: now,
	}
	if err := tx.Create(&batch).Error; err != nil {
		return nil, fmt.Errorf("create kot batch: %w", err)
	}

	for i := range order.LineItems {
		item := &order.LineItems[i]
		if item.PendingQuantity() == 0 {
			continue
		}
		item.SentQuantity = item.Quantity
		if item.BatchID == nil {
			id := batch.ID
			item.BatchID = &id
		}
		item.UpdatedAt = now
		if err := tx.Model(&models.LineItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"sent_quantity": item.SentQuantity,
			"batch_id":      item.BatchID,
			"updated_at":    now,
		}).Error; err != nil {
			return nil, fmt.Errorf("mark line item %d sent: %w", item.ID, err)
		}
	}

	order.Batches = append(order.Batches, batch)
	orderID := order.ID
	if err := recordEvent(tx, order.TenantID, &orderID, kds.EventKOTCreated, kds.NewKOTCreated(batch), now); err != nil {
		return nil, err
	}
	return &batch, nil
}
