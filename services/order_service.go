package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-orders/apperrors"
	"github.com/yeremiapane/restaurant-orders/billing"
	"github.com/yeremiapane/restaurant-orders/kds"
	"github.com/yeremiapane/restaurant-orders/models"
	"github.com/yeremiapane/restaurant-orders/statemachine"
	"github.com/yeremiapane/restaurant-orders/utils"
)

// maxVersionRetries bounds how often a mutation is replayed after losing a
// version race. Settlement is never replayed.
const maxVersionRetries = 5

var errStaleVersion = errors.New("order version changed")

// Notifier receives settled orders. It is called from its own goroutine after
// the settlement committed.
type Notifier interface {
	OrderSettled(ctx context.Context, order models.Order, invoice models.Invoice) error
}

// OrderService is the authoritative order store. Every read-modify-write runs
// in one transaction guarded by the order's version column.
type OrderService struct {
	DB       *gorm.DB
	Relay    Waker
	Notifier Notifier

	now func() time.Time
}

func NewOrderService(db *gorm.DB, relay Waker, notifier Notifier) *OrderService {
	return &OrderService{DB: db, Relay: relay, Notifier: notifier}
}

func (s *OrderService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *OrderService) wake() {
	if s.Relay != nil {
		s.Relay.Wake()
	}
}

// CreateOrder opens a new order. A dine-in order claims its table until it is
// settled; a second active order for the same table is a conflict.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, in CreateOrderInput) (*models.Order, error) {
	if !in.Channel.Valid() {
		return nil, apperrors.New(apperrors.Validation, "unknown channel %q", in.Channel)
	}
	if in.Channel == models.ChannelDineIn && (in.Table == nil || strings.TrimSpace(in.Table.Number) == "") {
		return nil, apperrors.New(apperrors.Validation, "a dine-in order needs a table")
	}
	if len(in.Items) == 0 {
		return nil, apperrors.New(apperrors.Validation, "an order needs at least one item")
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}

	now := s.clock()
	order := models.Order{
		TenantID:       actor.TenantID,
		Channel:        in.Channel,
		CustomerName:   strings.TrimSpace(in.Customer.Name),
		CustomerPhone:  strings.TrimSpace(in.Customer.Phone),
		CustomerEmail:  strings.TrimSpace(in.Customer.Email),
		Status:         models.StatusPending,
		Version:        1,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	var tableKey string
	if in.Table != nil && strings.TrimSpace(in.Table.Number) != "" {
		ref := models.TableRef{Number: strings.TrimSpace(in.Table.Number), CategoryID: in.Table.CategoryID}
		order.TableNumber = &ref.Number
		order.TableCategoryID = &ref.CategoryID
		if in.Channel == models.ChannelDineIn {
			tableKey = ref.Key(actor.TenantID)
			order.ActiveTableKey = &tableKey
		}
	}
	if _, err := mergeItems(&order, in.Items, addQuantity, now); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tableKey != "" {
			var active int64
			if err := tx.Model(&models.Order{}).Where("active_table_key = ?", tableKey).Count(&active).Error; err != nil {
				return fmt.Errorf("check table: %w", err)
			}
			if active > 0 {
				return tableTaken(*order.TableNumber)
			}
		}
		if err := tx.Create(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return tableTaken(*order.TableNumber)
			}
			return fmt.Errorf("create order: %w", err)
		}
		if in.HoldKOT {
			return nil
		}
		_, err := openBatch(tx, &order, actor.staffID(), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.wake()

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant": actor.TenantID,
		"order":  order.ID,
		"items":  len(order.LineItems),
	}).Info("order created")
	return s.GetOrder(ctx, actor.TenantID, order.ID)
}

// AppendItems merges items into an open order the way a POS terminal edits a
// cart: a matching line is raised to the entered quantity, anything else is
// appended. An entry at or below a line's current quantity is rejected; use
// UpdateItemQuantity to lower a line. The positive deltas go to the kitchen as
// one batch unless holdKOT is set.
func (s *OrderService) AppendItems(ctx context.Context, actor Actor, orderID uint, items []ItemInput, holdKOT bool) (*models.Order, error) {
	return s.appendItems(ctx, actor, orderID, items, raiseQuantity, holdKOT)
}

// AddItems merges items into an open order by adding the entered quantity to
// a matching line. Guest devices order this way, so two devices at the same
// table both get what they asked for.
func (s *OrderService) AddItems(ctx context.Context, actor Actor, orderID uint, items []ItemInput, holdKOT bool) (*models.Order, error) {
	return s.appendItems(ctx, actor, orderID, items, addQuantity, holdKOT)
}

func (s *OrderService) appendItems(ctx context.Context, actor Actor, orderID uint, items []ItemInput, mode mergeMode, holdKOT bool) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperrors.New(apperrors.Validation, "no items to add")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, orderID, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		if err := requireOpen(order); err != nil {
			return err
		}

		firstNew := len(order.LineItems)
		changed, err := mergeItems(order, items, mode, now)
		if err != nil {
			return err
		}
		for _, i := range changed {
			item := order.LineItems[i]
			if err := tx.Model(&models.LineItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
				"quantity":   item.Quantity,
				"notes":      item.Notes,
				"updated_at": now,
			}).Error; err != nil {
				return fmt.Errorf("update line item %d: %w", item.ID, err)
			}
		}
		for i := firstNew; i < len(order.LineItems); i++ {
			order.LineItems[i].OrderID = order.ID
			if err := tx.Create(&order.LineItems[i]).Error; err != nil {
				return fmt.Errorf("create line item: %w", err)
			}
		}

		if holdKOT {
			return nil
		}
		_, err = openBatch(tx, order, actor.staffID(), now)
		return err
	})
}

// UpdateItemQuantity sets a line's quantity; zero or less removes the line.
// Raising it past what the kitchen already has opens a batch for the
// difference. Lowering it never reaches the kitchen.
func (s *OrderService) UpdateItemQuantity(ctx context.Context, actor Actor, orderID, lineItemID uint, quantity int) (*models.Order, error) {
	return s.mutate(ctx, actor, orderID, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		if err := requireOpen(order); err != nil {
			return err
		}
		idx, ok := order.FindLineItem(lineItemID)
		if !ok {
			return apperrors.New(apperrors.NotFound, "line item %d not found on order %d", lineItemID, orderID)
		}

		if quantity <= 0 {
			if err := tx.Delete(&models.LineItem{}, lineItemID).Error; err != nil {
				return fmt.Errorf("remove line item %d: %w", lineItemID, err)
			}
			order.LineItems = append(order.LineItems[:idx], order.LineItems[idx+1:]...)
			return nil
		}

		item := &order.LineItems[idx]
		item.Quantity = quantity
		item.UpdatedAt = now
		if err := tx.Model(&models.LineItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": now,
		}).Error; err != nil {
			return fmt.Errorf("update line item %d: %w", item.ID, err)
		}

		if item.PendingQuantity() == 0 {
			return nil
		}
		_, err := openBatch(tx, order, actor.staffID(), now)
		return err
	})
}

// SubmitKOT sends every held delta to the kitchen as one batch. It returns a
// nil batch when nothing is pending.
func (s *OrderService) SubmitKOT(ctx context.Context, actor Actor, orderID uint) (*models.KOTBatch, error) {
	var batch *models.KOTBatch
	_, err := s.mutate(ctx, actor, orderID, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		if err := requireOpen(order); err != nil {
			return err
		}
		var err error
		batch, err = openBatch(tx, order, actor.staffID(), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// AdvanceStatus moves an order exactly one step forward.
func (s *OrderService) AdvanceStatus(ctx context.Context, actor Actor, orderID uint, target models.OrderStatus) (*models.Order, error) {
	return s.mutate(ctx, actor, orderID, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		if err := statemachine.CheckAdvance(snapshotOf(order), target); err != nil {
			return err
		}
		from := order.Status
		order.Status = target
		if err := saveOrderFields(tx, order); err != nil {
			return err
		}
		return recordStatusChange(tx, order, from, actor, now)
	})
}

// SetTip records the order's tip. A tip can be recorded once.
func (s *OrderService) SetTip(ctx context.Context, actor Actor, orderID uint, amount decimal.Decimal, staffID *uint) (*models.Order, error) {
	if amount.IsNegative() {
		return nil, apperrors.New(apperrors.Validation, "tip must not be negative")
	}
	return s.mutate(ctx, actor, orderID, func(tx *gorm.DB, order *models.Order, now time.Time) error {
		if err := requireOpen(order); err != nil {
			return err
		}
		if order.HasTip {
			return apperrors.New(apperrors.Conflict, "a tip is already recorded for order %d", orderID)
		}
		order.HasTip = true
		order.TipAmount = amount
		order.TipStaffID = staffID
		return saveOrderFields(tx, order)
	})
}

// PreviewBill computes the bill for the order's current items. A tip already
// recorded on the order replaces any tip in adj.
func (s *OrderService) PreviewBill(ctx context.Context, actor Actor, orderID uint, adj billing.Adjustments) (billing.Bill, error) {
	if err := adj.Validate(); err != nil {
		return billing.Bill{}, err
	}
	order, err := loadOrder(s.DB.WithContext(ctx), actor.TenantID, orderID)
	if err != nil {
		return billing.Bill{}, err
	}
	if order.HasTip {
		adj.Tip = order.TipAmount
		adj.TipStaffID = order.TipStaffID
	}
	return billing.ComputeBill(linesOf(order.LineItems), adj), nil
}

// Settle closes the order with bill and payment. Settling an already settled
// order again with the same bill and payment mode is a no-op; anything else,
// including losing a concurrent settlement, is a conflict.
func (s *OrderService) Settle(ctx context.Context, actor Actor, orderID uint, bill billing.Bill, payment Payment) (*models.Order, error) {
	order, err := loadOrder(s.DB.WithContext(ctx), actor.TenantID, orderID)
	if err != nil {
		return nil, err
	}
	return s.settleLoaded(ctx, actor, order, bill, payment)
}

func (s *OrderService) settleLoaded(ctx context.Context, actor Actor, order *models.Order, bill billing.Bill, payment Payment) (*models.Order, error) {
	if order.Status == models.StatusSettled {
		return s.resettle(ctx, order, bill, payment)
	}
	payment = payment.normalized()
	if payment.Mode == "" {
		return nil, apperrors.New(apperrors.Validation, "payment mode is required")
	}
	if err := statemachine.CheckSettle(snapshotOf(order)); err != nil {
		return nil, err
	}
	if err := bill.Adjustments.Validate(); err != nil {
		return nil, err
	}
	if order.HasTip && (!order.TipAmount.Equal(bill.Adjustments.Tip) || !sameStaff(order.TipStaffID, bill.Adjustments.TipStaffID)) {
		return nil, apperrors.New(apperrors.Validation, "bill tip does not match the tip recorded on the order")
	}
	expected := billing.ComputeBill(linesOf(order.LineItems), bill.Adjustments)
	if !expected.Equal(bill) {
		return nil, apperrors.New(apperrors.Validation, "bill is stale: it does not match the order's current items")
	}
	if err := validateTenders(payment, expected.GrandTotal); err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(settlementSnapshot{Bill: expected, Payment: payment})
	if err != nil {
		return nil, fmt.Errorf("marshal settlement snapshot: %w", err)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock()
		if err := claimVersion(tx, order, now); err != nil {
			return err
		}

		from := order.Status
		order.Status = models.StatusSettled
		order.IsPaid = true
		order.PaymentMode = payment.Mode
		order.ActiveTableKey = nil
		if !order.HasTip && expected.Tip.IsPositive() {
			order.HasTip = true
			order.TipAmount = expected.Tip
			order.TipStaffID = expected.TipStaffID
		}
		if err := saveOrderFields(tx, order); err != nil {
			return err
		}

		invoice := newInvoice(order, expected, payment, actor, now)
		invoice.Snapshot = datatypes.JSON(snapshot)
		if err := tx.Create(&invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errStaleVersion
			}
			return fmt.Errorf("create invoice: %w", err)
		}
		return recordStatusChange(tx, order, from, actor, now)
	})
	if errors.Is(err, errStaleVersion) {
		return nil, apperrors.New(apperrors.Conflict, "order %d was changed or settled concurrently", order.ID)
	}
	if err != nil {
		return nil, err
	}
	s.wake()

	settled, err := s.GetOrder(ctx, actor.TenantID, order.ID)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant":      actor.TenantID,
		"order":       settled.ID,
		"grand_total": expected.GrandTotal.StringFixed(billing.MoneyPlaces),
		"mode":        payment.Mode,
	}).Info("order settled")

	if s.Notifier != nil && settled.Invoice != nil {
		go s.notifySettled(*settled, *settled.Invoice)
	}
	return settled, nil
}

// resettle answers a settle call for an order that is already settled. Only a
// retry carrying the settlement id of the stored invoice, with the same bill
// and payment, is answered with the settled order.
func (s *OrderService) resettle(ctx context.Context, order *models.Order, bill billing.Bill, payment Payment) (*models.Order, error) {
	payment = payment.normalized()
	if order.Invoice == nil || payment.SettlementID == "" || payment.SettlementID != order.Invoice.SettlementKey {
		return nil, apperrors.New(apperrors.Conflict, "order %d is already settled", order.ID)
	}
	var snap settlementSnapshot
	if err := json.Unmarshal(order.Invoice.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("read settlement snapshot of order %d: %w", order.ID, err)
	}
	if !snap.Bill.Equal(bill) || !snap.Payment.Equal(payment) {
		return nil, apperrors.New(apperrors.Conflict, "order %d is already settled with a different bill or payment", order.ID)
	}
	return s.GetOrder(ctx, order.TenantID, order.ID)
}

func (s *OrderService) notifySettled(order models.Order, invoice models.Invoice) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Notifier.OrderSettled(ctx, order, invoice); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"tenant": order.TenantID,
			"order":  order.ID,
		}).Errorf("settlement notification failed: %v", err)
	}
}

// CallWaiter alerts the tenant's staff that a table needs attention.
func (s *OrderService) CallWaiter(ctx context.Context, actor Actor, table models.TableRef) error {
	table.Number = strings.TrimSpace(table.Number)
	if table.Number == "" {
		return apperrors.New(apperrors.Validation, "table number is required")
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock()
		return recordEvent(tx, actor.TenantID, nil, kds.EventWaiterCalled, kds.WaiterCalled{TableRef: table, Timestamp: now}, now)
	})
	if err != nil {
		return err
	}
	s.wake()
	return nil
}

// GetOrder returns the order with its items, kitchen batches and invoice.
func (s *OrderService) GetOrder(ctx context.Context, tenantID string, orderID uint) (*models.Order, error) {
	var order models.Order
	err := withDetails(s.DB.WithContext(ctx)).
		Where("tenant_id = ?", tenantID).
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.NotFound, "order %d not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return &order, nil
}

// GetActiveOrderForTable returns the unsettled order occupying table, or nil.
func (s *OrderService) GetActiveOrderForTable(ctx context.Context, tenantID string, table models.TableRef) (*models.Order, error) {
	if strings.TrimSpace(table.Number) == "" {
		return nil, apperrors.New(apperrors.Validation, "table number is required")
	}
	table.Number = strings.TrimSpace(table.Number)

	var order models.Order
	err := s.DB.WithContext(ctx).
		Select("id").
		Where("active_table_key = ?", table.Key(tenantID)).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active order for table %s: %w", table.Number, err)
	}
	return s.GetOrder(ctx, tenantID, order.ID)
}

// GetInvoice returns the invoice written when the order was settled.
func (s *OrderService) GetInvoice(ctx context.Context, tenantID string, orderID uint) (*models.Invoice, error) {
	if err := s.requireExists(ctx, tenantID, orderID); err != nil {
		return nil, err
	}
	var invoice models.Invoice
	err := s.DB.WithContext(ctx).Where("order_id = ? AND tenant_id = ?", orderID, tenantID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.NotFound, "order %d has not been settled", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice of order %d: %w", orderID, err)
	}
	return &invoice, nil
}

// ListBatches returns the order's kitchen tickets in submission order.
func (s *OrderService) ListBatches(ctx context.Context, tenantID string, orderID uint) ([]models.KOTBatch, error) {
	if err := s.requireExists(ctx, tenantID, orderID); err != nil {
		return nil, err
	}
	var batches []models.KOTBatch
	err := s.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("order_id = ?", orderID).
		Order("sequence ASC").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("list batches of order %d: %w", orderID, err)
	}
	return batches, nil
}

// KitchenQueue lists the tenant's orders the kitchen still works on, oldest
// first, so a display can rebuild its board after reconnecting.
func (s *OrderService) KitchenQueue(ctx context.Context, tenantID string) ([]models.Order, error) {
	var orders []models.Order
	err := withDetails(s.DB.WithContext(ctx)).
		Where("tenant_id = ? AND status IN ?", tenantID, []models.OrderStatus{
			models.StatusPending, models.StatusAccepted, models.StatusPreparing,
		}).
		Order("created_at ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("kitchen queue: %w", err)
	}
	return orders, nil
}

// mutate replays fn against a fresh copy of the order until it commits
// without losing a version race.
func (s *OrderService) mutate(ctx context.Context, actor Actor, orderID uint, fn func(tx *gorm.DB, order *models.Order, now time.Time) error) (*models.Order, error) {
	for attempt := 1; attempt <= maxVersionRetries; attempt++ {
		order, err := loadOrder(s.DB.WithContext(ctx), actor.TenantID, orderID)
		if err != nil {
			return nil, err
		}
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := s.clock()
			if err := claimVersion(tx, order, now); err != nil {
				return err
			}
			return fn(tx, order, now)
		})
		if errors.Is(err, errStaleVersion) {
			utils.InfoLogger.WithFields(logrus.Fields{
				"tenant":  actor.TenantID,
				"order":   orderID,
				"attempt": attempt,
			}).Debug("order changed underneath, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		s.wake()
		return s.GetOrder(ctx, actor.TenantID, orderID)
	}
	return nil, apperrors.New(apperrors.Conflict, "order %d is being changed by someone else, try again", orderID)
}

func (s *OrderService) requireExists(ctx context.Context, tenantID string, orderID uint) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("find order %d: %w", orderID, err)
	}
	if count == 0 {
		return apperrors.New(apperrors.NotFound, "order %d not found", orderID)
	}
	return nil
}

func loadOrder(db *gorm.DB, tenantID string, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Invoice").
		Where("tenant_id = ?", tenantID).
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.NotFound, "order %d not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	return &order, nil
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Batches", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("Batches.Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Invoice")
}

// claimVersion bumps the version the order was loaded at. Zero rows affected
// means another writer committed first.
func claimVersion(tx *gorm.DB, order *models.Order, now time.Time) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"version":          order.Version + 1,
			"last_modified_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("claim order %d: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return errStaleVersion
	}
	order.Version++
	order.LastModifiedAt = now
	return nil
}

func saveOrderFields(tx *gorm.DB, order *models.Order) error {
	err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":           order.Status,
		"is_paid":          order.IsPaid,
		"payment_mode":     order.PaymentMode,
		"has_tip":          order.HasTip,
		"tip_amount":       order.TipAmount,
		"tip_staff_id":     order.TipStaffID,
		"active_table_key": order.ActiveTableKey,
	}).Error
	if err != nil {
		return fmt.Errorf("save order %d: %w", order.ID, err)
	}
	return nil
}

func recordStatusChange(tx *gorm.DB, order *models.Order, from models.OrderStatus, actor Actor, now time.Time) error {
	change := models.StatusChange{
		OrderID:    order.ID,
		TenantID:   order.TenantID,
		FromStatus: from,
		ToStatus:   order.Status,
		ChangedBy:  actor.staffID(),
		CreatedAt:  now,
	}
	if err := tx.Create(&change).Error; err != nil {
		return fmt.Errorf("record status change: %w", err)
	}
	orderID := order.ID
	return recordEvent(tx, order.TenantID, &orderID, kds.EventStatusChanged, kds.StatusChanged{
		OrderID:        order.ID,
		PreviousStatus: from,
		NewStatus:      order.Status,
		Timestamp:      now,
	}, now)
}

func requireOpen(order *models.Order) error {
	if order.Status == models.StatusSettled {
		return apperrors.New(apperrors.InvalidState, "order %d is settled and can no longer change", order.ID)
	}
	return nil
}

func tableTaken(number string) error {
	return apperrors.New(apperrors.Conflict, "table %s already has an active order", number)
}

func validateItems(items []ItemInput) error {
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return apperrors.New(apperrors.Validation, "item %d: name is required", i+1)
		}
		if it.Quantity < 1 {
			return apperrors.New(apperrors.Validation, "item %d: quantity must be at least 1", i+1)
		}
		if it.UnitPrice.IsNegative() {
			return apperrors.New(apperrors.Validation, "item %d: unit price must not be negative", i+1)
		}
		if !it.UnitPrice.Equal(it.UnitPrice.Round(billing.MoneyPlaces)) {
			return apperrors.New(apperrors.Validation, "item %d: unit price %s has more than %d decimal places",
				i+1, it.UnitPrice.String(), billing.MoneyPlaces)
		}
	}
	return nil
}

type mergeMode int

const (
	// raiseQuantity sets a matching line to the entered quantity, which must
	// be higher than what the line already has.
	raiseQuantity mergeMode = iota
	// addQuantity adds the entered quantity to a matching line.
	addQuantity
)

// mergeItems folds inputs into order.LineItems and returns the indexes of
// existing lines whose quantity or notes changed. New lines are appended.
func mergeItems(order *models.Order, inputs []ItemInput, mode mergeMode, now time.Time) ([]int, error) {
	changed := map[int]bool{}
	var indexes []int
	existing := len(order.LineItems)

	for _, in := range inputs {
		candidate := models.LineItem{
			MenuItemID: in.MenuItemID,
			Name:       strings.TrimSpace(in.Name),
			UnitPrice:  in.UnitPrice,
			Quantity:   in.Quantity,
			Notes:      strings.TrimSpace(in.Notes),
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		matched := false
		for i := range order.LineItems {
			item := &order.LineItems[i]
			if !item.SameItem(candidate) {
				continue
			}
			matched = true
			switch mode {
			case addQuantity:
				item.Quantity += candidate.Quantity
			default:
				if candidate.Quantity <= item.Quantity {
					return nil, apperrors.New(apperrors.Validation,
						"%s is already at quantity %d; enter a higher quantity or update the line item to lower it",
						item.Name, item.Quantity)
				}
				item.Quantity = candidate.Quantity
			}
			if candidate.Notes != "" {
				item.Notes = candidate.Notes
			}
			if i < existing && !changed[i] {
				changed[i] = true
				indexes = append(indexes, i)
			}
			break
		}
		if !matched {
			order.LineItems = append(order.LineItems, candidate)
		}
	}
	return indexes, nil
}

func newInvoice(order *models.Order, bill billing.Bill, payment Payment, actor Actor, now time.Time) models.Invoice {
	return models.Invoice{
		OrderID:       order.ID,
		TenantID:      order.TenantID,
		InvoiceNumber: fmt.Sprintf("INV-%s-%06d", now.Format("20060102"), order.ID),
		PaymentMode:   payment.Mode,
		Subtotal:      bill.Subtotal,
		Discount:      bill.DiscountAmount,
		Tax1:          bill.Tax.Rate1Amount,
		Tax2:          bill.Tax.Rate2Amount,
		Surcharges:    bill.Surcharges.Delivery.Add(bill.Surcharges.Container).Add(bill.Surcharges.ServiceCharge),
		Tip:           bill.Tip,
		RoundOff:      bill.RoundOff,
		GrandTotal:    bill.GrandTotal,
		SettlementKey: payment.SettlementID,
		SettledBy:     actor.staffID(),
		CreatedAt:     now,
	}
}

func validateTenders(payment Payment, grandTotal decimal.Decimal) error {
	if len(payment.Tenders) == 0 {
		return nil
	}
	sum := decimal.Zero
	for i, t := range payment.Tenders {
		if strings.TrimSpace(t.Mode) == "" {
			return apperrors.New(apperrors.Validation, "tender %d: mode is required", i+1)
		}
		if !t.Amount.IsPositive() {
			return apperrors.New(apperrors.Validation, "tender %d: amount must be positive", i+1)
		}
		sum = sum.Add(t.Amount)
	}
	if !sum.Equal(grandTotal) {
		return apperrors.New(apperrors.Validation, "tenders add up to %s but the bill total is %s",
			sum.StringFixed(billing.MoneyPlaces), grandTotal.StringFixed(billing.MoneyPlaces))
	}
	return nil
}

func snapshotOf(order *models.Order) statemachine.Snapshot {
	return statemachine.Snapshot{
		Status:     order.Status,
		ItemCount:  len(order.LineItems),
		PendingKOT: order.PendingKOT(),
	}
}

func linesOf(items []models.LineItem) []billing.Line {
	lines := make([]billing.Line, len(items))
	for i, it := range items {
		lines[i] = billing.Line{Name: it.Name, UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}
	return lines
}

func sameStaff(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
