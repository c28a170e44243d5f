package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-orders/invoice"
	"github.com/yeremiapane/restaurant-orders/models"
)

type captureSender struct {
	msgs []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

type brokenRenderer struct{}

func (brokenRenderer) Render(io.Writer, models.Order, models.Invoice) error {
	return errors.New("font missing")
}

func settledOrder() (models.Order, models.Invoice) {
	order := models.Order{
		ID:            5,
		TenantID:      "tenant-a",
		CustomerName:  "Ravi",
		CustomerEmail: "ravi@example.com",
		LineItems:     []models.LineItem{{Name: "Thali", UnitPrice: decimal.NewFromInt(250), Quantity: 2}},
	}
	inv := models.Invoice{
		OrderID:       5,
		InvoiceNumber: "INV-20260101-000005",
		PaymentMode:   "upi",
		Subtotal:      decimal.NewFromInt(500),
		GrandTotal:    decimal.NewFromInt(500),
		CreatedAt:     time.Now(),
	}
	return order, inv
}

func TestDispatcherSendsRenderedInvoice(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(invoice.NewRenderer(invoice.Header{Name: "Udupi Kitchen"}), sender)

	order, inv := settledOrder()
	require.NoError(t, d.OrderSettled(context.Background(), order, inv))

	require.Len(t, sender.msgs, 1)
	msg := sender.msgs[0]
	assert.Equal(t, "tenant-a", msg.TenantID)
	assert.Equal(t, uint(5), msg.OrderID)
	assert.Equal(t, "500.00", msg.GrandTotal)
	assert.Equal(t, "ravi@example.com", msg.Customer.Email)
	assert.True(t, bytes.HasPrefix(msg.PDF, []byte("%PDF-")))

	body, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"invoice_number":"INV-20260101-000005"`)
}

func TestDispatcherReportsFailures(t *testing.T) {
	order, inv := settledOrder()

	sender := &captureSender{}
	err := NewDispatcher(brokenRenderer{}, sender).OrderSettled(context.Background(), order, inv)
	assert.Error(t, err)
	assert.Empty(t, sender.msgs)

	sender = &captureSender{err: errors.New("broker down")}
	err = NewDispatcher(nil, sender).OrderSettled(context.Background(), order, inv)
	assert.EqualError(t, err, "broker down")
}

func TestDispatcherFallsBackToLog(t *testing.T) {
	order, inv := settledOrder()
	d := NewDispatcher(nil, nil)
	assert.IsType(t, LogSender{}, d.Sender)
	assert.NoError(t, d.OrderSettled(context.Background(), order, inv))
}
