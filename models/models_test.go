package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func uintPtr(v uint) *uint { return &v }

func TestLineItemSameItem(t *testing.T) {
	tests := []struct {
		name string
		a, b LineItem
		want bool
	}{
		{"same menu item", LineItem{MenuItemID: uintPtr(1), Name: "Dosa"}, LineItem{MenuItemID: uintPtr(1), Name: "Plain Dosa"}, true},
		{"different menu item", LineItem{MenuItemID: uintPtr(1)}, LineItem{MenuItemID: uintPtr(2)}, false},
		{"menu vs custom", LineItem{MenuItemID: uintPtr(1), Name: "Dosa"}, LineItem{Name: "Dosa"}, false},
		{"custom by name and price", LineItem{Name: " Jal Jeera", UnitPrice: decimal.NewFromInt(40)}, LineItem{Name: "jal jeera", UnitPrice: decimal.RequireFromString("40.00")}, true},
		{"custom different price", LineItem{Name: "Lassi", UnitPrice: decimal.NewFromInt(60)}, LineItem{Name: "Lassi", UnitPrice: decimal.NewFromInt(80)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.SameItem(tt.b))
		})
	}
}

func TestPendingKOT(t *testing.T) {
	o := Order{LineItems: []LineItem{
		{ID: 1, Quantity: 3, SentQuantity: 3},
		{ID: 2, Quantity: 5, SentQuantity: 2},
		{ID: 3, Quantity: 1, SentQuantity: 4},
	}}
	assert.Equal(t, 1, o.PendingKOT())
	assert.Equal(t, 3, o.LineItems[1].PendingQuantity())
	assert.Equal(t, 0, o.LineItems[2].PendingQuantity())

	i, ok := o.FindLineItem(3)
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = o.FindLineItem(9)
	assert.False(t, ok)
}

func TestTableRefKey(t *testing.T) {
	ref := TableRef{Number: "T4", CategoryID: 2}
	assert.Equal(t, "tenant-a|T4|2", ref.Key("tenant-a"))

	number := "T4"
	o := Order{TableNumber: &number, TableCategoryID: uintPtr(2)}
	got, ok := o.Table()
	assert.True(t, ok)
	assert.Equal(t, ref, got)

	_, ok = (&Order{}).Table()
	assert.False(t, ok)
}
