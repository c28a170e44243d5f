// Package invoice renders settled orders as PDF invoices.
package invoice

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-orders/billing"
	"github.com/yeremiapane/restaurant-orders/models"
	"github.com/yeremiapane/restaurant-orders/utils"
)

const currencySymbol = "Rs."

// Header is the restaurant information printed on top of every invoice.
type Header struct {
	Name    string
	Address string
	Phone   string
}

type Renderer struct {
	Header Header
}

func NewRenderer(h Header) *Renderer {
	if h.Name == "" {
		h.Name = "Restaurant"
	}
	return &Renderer{Header: h}
}

// Render writes the invoice as PDF. It only reads its arguments.
func (r *Renderer) Render(w io.Writer, order models.Order, inv models.Invoice) error {
	var snap struct {
		Bill billing.Bill `json:"bill"`
	}
	if len(inv.Snapshot) > 0 {
		if err := json.Unmarshal(inv.Snapshot, &snap); err != nil {
			return fmt.Errorf("read invoice snapshot: %w", err)
		}
	}

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(inv.InvoiceNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, r.Header.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{r.Header.Address, r.Header.Phone} {
		if line != "" {
			pdf.CellFormat(0, 5, line, "", 1, "C", false, 0, "")
		}
	}
	pdf.Ln(3)

	pdf.CellFormat(0, 5, "Invoice: "+inv.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Date: "+inv.CreatedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	if table, ok := order.Table(); ok {
		pdf.CellFormat(0, 5, "Table: "+table.Number, "", 1, "L", false, 0, "")
	}
	if order.CustomerName != "" {
		pdf.CellFormat(0, 5, "Customer: "+order.CustomerName, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(64, 6, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(14, 6, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, 6, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(25, 6, "Amount", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range order.LineItems {
		amount := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		pdf.CellFormat(64, 5, item.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(14, 5, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 5, utils.FormatCurrency(item.UnitPrice, ""), "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 5, utils.FormatCurrency(amount, ""), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	total := func(label string, amount decimal.Decimal) {
		pdf.CellFormat(103, 5, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 5, utils.FormatCurrency(amount, ""), "", 1, "R", false, 0, "")
	}
	total("Subtotal", inv.Subtotal)
	if !inv.Discount.IsZero() {
		label := "Discount"
		if snap.Bill.DiscountReason != "" {
			label += " (" + snap.Bill.DiscountReason + ")"
		}
		total(label, inv.Discount.Neg())
	}
	if snap.Bill.Tax.Enabled {
		suffix := ""
		if !snap.Bill.Tax.AddedToTotal {
			suffix = " (incl.)"
		}
		total(taxLabel(snap.Bill.Tax.Rate1Name, "Tax 1")+suffix, inv.Tax1)
		total(taxLabel(snap.Bill.Tax.Rate2Name, "Tax 2")+suffix, inv.Tax2)
	}
	if !inv.Surcharges.IsZero() {
		total("Charges", inv.Surcharges)
	}
	if !inv.RoundOff.IsZero() {
		total("Round off", inv.RoundOff)
	}
	if !inv.Tip.IsZero() {
		total("Tip", inv.Tip)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(103, 7, "Grand Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(25, 7, utils.FormatCurrency(inv.GrandTotal, currencySymbol), "T", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Paid by "+inv.PaymentMode, "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.CellFormat(0, 5, "Thank you for dining with us!", "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

func taxLabel(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
