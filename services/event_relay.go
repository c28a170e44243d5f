package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-orders/kds"
	"github.com/yeremiapane/restaurant-orders/models"
	"github.com/yeremiapane/restaurant-orders/utils"
)

// Publisher delivers one event to a tenant's connected clients.
type Publisher interface {
	Publish(ctx context.Context, tenantID string, msg kds.Message) error
}

// EventRelay moves committed outbox events to the publisher in id order.
// When an event fails, later events of the same tenant wait for the next round
// so each tenant's stream stays in commit order.
type EventRelay struct {
	DB          *gorm.DB
	Publisher   Publisher
	Interval    time.Duration
	MaxAttempts int
	BatchSize   int

	wake chan struct{}
}

func NewEventRelay(db *gorm.DB, publisher Publisher) *EventRelay {
	return &EventRelay{
		DB:          db,
		Publisher:   publisher,
		Interval:    500 * time.Millisecond,
		MaxAttempts: 10,
		BatchSize:   100,
		wake:        make(chan struct{}, 1),
	}
}

// Wake asks the relay to poll now. It never blocks.
func (r *EventRelay) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled.
func (r *EventRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	utils.InfoLogger.Printf("Event relay started (interval %s)", r.Interval)
	for {
		select {
		case <-ctx.Done():
			utils.InfoLogger.Println("Event relay stopped")
			return nil
		case <-ticker.C:
		case <-r.wake:
		}
		if _, err := r.DispatchPending(ctx); err != nil && ctx.Err() == nil {
			utils.ErrorLogger.Errorf("Error dispatching events: %v", err)
		}
	}
}

// DispatchPending publishes one round of undispatched events and returns how
// many were delivered.
func (r *EventRelay) DispatchPending(ctx context.Context) (int, error) {
	var events []models.OutboxEvent
	if err := r.DB.WithContext(ctx).
		Where("dispatched = ? AND attempts < ?", false, r.MaxAttempts).
		Order("id ASC").
		Limit(r.BatchSize).
		Find(&events).Error; err != nil {
		return 0, err
	}

	blocked := make(map[string]bool)
	sent := 0
	for _, ev := range events {
		if blocked[ev.TenantID] {
			continue
		}

		err := r.Publisher.Publish(ctx, ev.TenantID, kds.Message{
			ID:    ev.ID,
			Event: ev.EventName,
			Data:  json.RawMessage(ev.Payload),
		})
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err != nil {
			blocked[ev.TenantID] = true
			r.recordFailure(ctx, ev, err)
			continue
		}

		now := time.Now()
		if err := r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", ev.ID).Updates(map[string]interface{}{
			"dispatched":    true,
			"dispatched_at": now,
			"attempts":      ev.Attempts + 1,
		}).Error; err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (r *EventRelay) recordFailure(ctx context.Context, ev models.OutboxEvent, cause error) {
	attempts := ev.Attempts + 1
	fields := logrus.Fields{
		"tenant":  ev.TenantID,
		"event":   ev.EventName,
		"id":      ev.ID,
		"attempt": attempts,
	}
	if err := r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", ev.ID).Updates(map[string]interface{}{
		"attempts":   attempts,
		"last_error": cause.Error(),
	}).Error; err != nil {
		utils.ErrorLogger.WithFields(fields).Errorf("Error recording publish failure: %v", err)
	}
	if attempts >= r.MaxAttempts {
		utils.ErrorLogger.WithFields(fields).Errorf("event abandoned after %d attempts: %v", attempts, cause)
		return
	}
	utils.ErrorLogger.WithFields(fields).Warnf("publish failed, will retry: %v", cause)
}
