package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/restaurant-orders/apperrors"
	"github.com/yeremiapane/restaurant-orders/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		want     *apperrors.Error
	}{
		{models.StatusPending, models.StatusAccepted, nil},
		{models.StatusAccepted, models.StatusPreparing, nil},
		{models.StatusPreparing, models.StatusServed, nil},
		{models.StatusPending, models.StatusSettled, nil},
		{models.StatusPreparing, models.StatusSettled, nil},
		{models.StatusServed, models.StatusSettled, nil},
		{models.StatusPending, models.StatusPreparing, apperrors.ErrInvalidTransition},
		{models.StatusServed, models.StatusAccepted, apperrors.ErrInvalidTransition},
		{models.StatusAccepted, models.StatusAccepted, apperrors.ErrInvalidTransition},
		{models.StatusSettled, models.StatusServed, apperrors.ErrInvalidState},
		{models.StatusPending, "cancelled", apperrors.ErrValidation},
	}
	for _, tt := range tests {
		err := CanTransition(tt.from, tt.to)
		if tt.want == nil {
			assert.NoError(t, err, "%s → %s", tt.from, tt.to)
			continue
		}
		assert.ErrorIs(t, err, tt.want, "%s → %s", tt.from, tt.to)
	}
}

func TestInvalidTransitionListsValidTargets(t *testing.T) {
	err := CanTransition(models.StatusPending, models.StatusServed)
	assert.EqualError(t, err, "invalid transition: pending → served; valid transitions from pending are: accepted, settled")
}

func TestNext(t *testing.T) {
	next, ok := Next(models.StatusPending)
	assert.True(t, ok)
	assert.Equal(t, models.StatusAccepted, next)

	_, ok = Next(models.StatusServed)
	assert.False(t, ok)
	_, ok = Next(models.StatusSettled)
	assert.False(t, ok)
	assert.Nil(t, ValidTransitionsFrom(models.StatusSettled))
}

func TestCheckAdvance(t *testing.T) {
	assert.NoError(t, CheckAdvance(Snapshot{Status: models.StatusPending, ItemCount: 1}, models.StatusAccepted))
	assert.ErrorIs(t, CheckAdvance(Snapshot{Status: models.StatusPending}, models.StatusAccepted), apperrors.ErrInvalidState)
	assert.ErrorIs(t, CheckAdvance(Snapshot{Status: models.StatusServed, ItemCount: 2}, models.StatusSettled), apperrors.ErrInvalidTransition)
	assert.ErrorIs(t, CheckAdvance(Snapshot{Status: models.StatusSettled, ItemCount: 2}, models.StatusServed), apperrors.ErrInvalidState)
}

func TestCheckSettle(t *testing.T) {
	assert.NoError(t, CheckSettle(Snapshot{Status: models.StatusPending, ItemCount: 1}))
	assert.ErrorIs(t, CheckSettle(Snapshot{Status: models.StatusServed}), apperrors.ErrInvalidState)
	assert.ErrorIs(t, CheckSettle(Snapshot{Status: models.StatusSettled, ItemCount: 1}), apperrors.ErrInvalidState)

	err := CheckSettle(Snapshot{Status: models.StatusServed, ItemCount: 3, PendingKOT: 2})
	assert.ErrorIs(t, err, apperrors.ErrPendingKOT)
	assert.Contains(t, err.Error(), "send KOT before billing")
}

func TestStatusSequenceIsMonotonic(t *testing.T) {
	observed := []models.OrderStatus{models.StatusPending}
	current := models.StatusPending
	for {
		next, ok := Next(current)
		if !ok {
			break
		}
		assert.NoError(t, CheckAdvance(Snapshot{Status: current, ItemCount: 1}, next))
		observed = append(observed, next)
		current = next
	}
	assert.NoError(t, CheckSettle(Snapshot{Status: current, ItemCount: 1}))
	observed = append(observed, models.StatusSettled)

	for i := 1; i < len(observed); i++ {
		assert.Greater(t, position[observed[i]], position[observed[i-1]])
	}
	assert.Equal(t, []models.OrderStatus{
		models.StatusPending, models.StatusAccepted, models.StatusPreparing, models.StatusServed, models.StatusSettled,
	}, observed)
}
