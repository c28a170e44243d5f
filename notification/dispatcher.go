// Package notification hands settled invoices to outbound delivery.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-orders/billing"
	"github.com/yeremiapane/restaurant-orders/models"
	"github.com/yeremiapane/restaurant-orders/utils"
)

type Customer struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Message is published once per settled order. PDF is base64 in JSON.
type Message struct {
	TenantID      string    `json:"tenant_id"`
	OrderID       uint      `json:"order_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Customer      Customer  `json:"customer"`
	GrandTotal    string    `json:"grand_total"`
	PaymentMode   string    `json:"payment_mode"`
	SettledAt     time.Time `json:"settled_at"`
	PDF           []byte    `json:"pdf,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type PDFRenderer interface {
	Render(w io.Writer, order models.Order, inv models.Invoice) error
}

// LogSender only logs; it is used when no broker is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant":      msg.TenantID,
		"order":       msg.OrderID,
		"invoice":     msg.InvoiceNumber,
		"grand_total": msg.GrandTotal,
		"pdf_bytes":   len(msg.PDF),
	}).Info("order settled, no broker configured")
	return nil
}

// Dispatcher renders the invoice and passes it to the sender.
type Dispatcher struct {
	Renderer PDFRenderer
	Sender   Sender
}

func NewDispatcher(renderer PDFRenderer, sender Sender) *Dispatcher {
	if sender == nil {
		sender = LogSender{}
	}
	return &Dispatcher{Renderer: renderer, Sender: sender}
}

func (d *Dispatcher) OrderSettled(ctx context.Context, order models.Order, inv models.Invoice) error {
	msg := Message{
		TenantID:      order.TenantID,
		OrderID:       order.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Customer: Customer{
			Name:  order.CustomerName,
			Phone: order.CustomerPhone,
			Email: order.CustomerEmail,
		},
		GrandTotal:  inv.GrandTotal.StringFixed(billing.MoneyPlaces),
		PaymentMode: inv.PaymentMode,
		SettledAt:   inv.CreatedAt,
	}

	if d.Renderer != nil {
		var buf bytes.Buffer
		if err := d.Renderer.Render(&buf, order, inv); err != nil {
			return fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
		}
		msg.PDF = buf.Bytes()
	}
	return d.Sender.Send(ctx, msg)
}
