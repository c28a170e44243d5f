package statemachine

import (
	"strings"

	"github.com/yeremiapane/restaurant-orders/apperrors"
	"github.com/yeremiapane/restaurant-orders/models"
)

// sequence is the only forward path an order may take. Settlement is not part
// of it: an order may be settled from any state before settled.
var sequence = []models.OrderStatus{
	models.StatusPending,
	models.StatusAccepted,
	models.StatusPreparing,
	models.StatusServed,
}

var position = func() map[models.OrderStatus]int {
	m := make(map[models.OrderStatus]int, len(sequence)+1)
	for i, s := range sequence {
		m[s] = i
	}
	m[models.StatusSettled] = len(sequence)
	return m
}()

// Snapshot is what the guards need to know about an order.
type Snapshot struct {
	Status     models.OrderStatus
	ItemCount  int
	PendingKOT int
}

// Valid reports whether s is a known order status.
func Valid(s models.OrderStatus) bool {
	_, ok := position[s]
	return ok
}

// Next returns the single forward status after s, if any.
func Next(s models.OrderStatus) (models.OrderStatus, bool) {
	i, ok := position[s]
	if !ok || i+1 >= len(sequence) {
		return "", false
	}
	return sequence[i+1], true
}

// ValidTransitionsFrom lists every status reachable from s in one step.
func ValidTransitionsFrom(s models.OrderStatus) []models.OrderStatus {
	if s == models.StatusSettled || !Valid(s) {
		return nil
	}
	var nexts []models.OrderStatus
	if next, ok := Next(s); ok {
		nexts = append(nexts, next)
	}
	return append(nexts, models.StatusSettled)
}

// CanTransition checks the transition table only.
func CanTransition(from, to models.OrderStatus) error {
	if !Valid(to) {
		return apperrors.New(apperrors.Validation, "unknown status %q", to)
	}
	if from == models.StatusSettled {
		return apperrors.New(apperrors.InvalidState, "order is settled and can no longer change")
	}
	for _, s := range ValidTransitionsFrom(from) {
		if s == to {
			return nil
		}
	}
	return apperrors.New(apperrors.InvalidTransition,
		"invalid transition: %s → %s; valid transitions from %s are: %s",
		from, to, from, describeValidFrom(from))
}

// CheckAdvance validates a forward, non-settlement transition.
func CheckAdvance(o Snapshot, to models.OrderStatus) error {
	if o.Status == models.StatusSettled {
		return apperrors.New(apperrors.InvalidState, "order is settled and can no longer change")
	}
	if to == models.StatusSettled {
		return apperrors.New(apperrors.InvalidTransition, "orders are settled through billing, not by a status change")
	}
	if err := CanTransition(o.Status, to); err != nil {
		return err
	}
	if o.ItemCount == 0 {
		return apperrors.New(apperrors.InvalidState, "order has no items")
	}
	return nil
}

// CheckSettle validates the transition to settled.
func CheckSettle(o Snapshot) error {
	if err := CanTransition(o.Status, models.StatusSettled); err != nil {
		return err
	}
	if o.ItemCount == 0 {
		return apperrors.New(apperrors.InvalidState, "an order must have at least one item to be billed")
	}
	if o.PendingKOT > 0 {
		return apperrors.New(apperrors.PendingKOT,
			"send KOT before billing: %d item(s) not yet sent to the kitchen", o.PendingKOT)
	}
	return nil
}

func describeValidFrom(s models.OrderStatus) string {
	nexts := ValidTransitionsFrom(s)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, n := range nexts {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
