package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/restaurant-orders/models"
)

func TestPendingDeltas(t *testing.T) {
	items := []models.LineItem{
		{ID: 1, Name: "Masala Dosa", Quantity: 5, SentQuantity: 2},
		{ID: 2, Name: "Medu Vada", Quantity: 1, SentQuantity: 3},
		{ID: 3, Name: "Sweet Lassi", Quantity: 2, SentQuantity: 2},
		{ID: 4, Name: "Idli", Quantity: 4, Notes: "no chutney"},
	}

	deltas := pendingDeltas(items)
	assert.Equal(t, []models.KOTBatchItem{
		{LineItemID: 1, Name: "Masala Dosa", Quantity: 3},
		{LineItemID: 4, Name: "Idli", Quantity: 4, Notes: "no chutney"},
	}, deltas)
}

func TestPendingDeltasNothingNew(t *testing.T) {
	assert.Empty(t, pendingDeltas(nil))
	assert.Empty(t, pendingDeltas([]models.LineItem{{ID: 1, Quantity: 1, SentQuantity: 4}}))
}
