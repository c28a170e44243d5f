// Package billing computes bills for an order's line items. Every function in
// this package is pure: identical inputs always yield identical bills.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-orders/apperrors"
)

type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountFlat       DiscountType = "flat"
	DiscountPercentage DiscountType = "percentage"
)

type TaxMode string

const (
	TaxInclusive TaxMode = "inclusive"
	TaxExclusive TaxMode = "exclusive"
)

// MoneyPlaces is the number of decimal places kept at the display/persist boundary.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

type TaxConfig struct {
	Enabled   bool            `json:"enabled"`
	Mode      TaxMode         `json:"mode"`
	Rate1Name string          `json:"rate1_name"`
	Rate1     decimal.Decimal `json:"rate1"`
	Rate2Name string          `json:"rate2_name"`
	Rate2     decimal.Decimal `json:"rate2"`
}

// Adjustments is everything applied on top of the line items.
type Adjustments struct {
	DiscountType         DiscountType    `json:"discount_type"`
	DiscountValue        decimal.Decimal `json:"discount_value"`
	DiscountReason       string          `json:"discount_reason,omitempty"`
	Tax                  TaxConfig       `json:"tax"`
	DeliveryCharge       decimal.Decimal `json:"delivery_charge"`
	ContainerCharge      decimal.Decimal `json:"container_charge"`
	ServiceChargePercent decimal.Decimal `json:"service_charge_percent"`
	RoundOff             decimal.Decimal `json:"round_off"`
	RoundTo              decimal.Decimal `json:"round_to"`
	Tip                  decimal.Decimal `json:"tip"`
	TipStaffID           *uint           `json:"tip_staff_id,omitempty"`
}

// Validate rejects malformed adjustments. Out-of-range business values such as
// a discount larger than the subtotal are not errors; ComputeBill clamps them.
func (a Adjustments) Validate() error {
	switch a.DiscountType {
	case DiscountNone, DiscountFlat, DiscountPercentage:
	default:
		return apperrors.New(apperrors.Validation, "unknown discount type %q", a.DiscountType)
	}
	if a.Tax.Enabled {
		if a.Tax.Mode != TaxInclusive && a.Tax.Mode != TaxExclusive {
			return apperrors.New(apperrors.Validation, "unknown tax mode %q", a.Tax.Mode)
		}
		if a.Tax.Rate1.IsNegative() || a.Tax.Rate2.IsNegative() {
			return apperrors.New(apperrors.Validation, "tax rates must not be negative")
		}
	}
	nonNegative := []struct {
		field string
		value decimal.Decimal
	}{
		{"delivery_charge", a.DeliveryCharge},
		{"container_charge", a.ContainerCharge},
		{"service_charge_percent", a.ServiceChargePercent},
		{"round_to", a.RoundTo},
		{"tip", a.Tip},
	}
	for _, f := range nonNegative {
		if f.value.IsNegative() {
			return apperrors.New(apperrors.Validation, "%s must not be negative", f.field)
		}
	}
	return nil
}

// Line is one billable line: a menu or custom item at its entered price.
type Line struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

type TaxBreakdown struct {
	Enabled      bool            `json:"enabled"`
	Mode         TaxMode         `json:"mode,omitempty"`
	Base         decimal.Decimal `json:"base"`
	Rate1Name    string          `json:"rate1_name,omitempty"`
	Rate1Amount  decimal.Decimal `json:"rate1_amount"`
	Rate2Name    string          `json:"rate2_name,omitempty"`
	Rate2Amount  decimal.Decimal `json:"rate2_amount"`
	AddedToTotal bool            `json:"added_to_total"`
}

type Surcharges struct {
	Delivery      decimal.Decimal `json:"delivery"`
	Container     decimal.Decimal `json:"container"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
}

// Bill is the computed breakdown. Amounts are rounded to MoneyPlaces.
type Bill struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountReason string          `json:"discount_reason,omitempty"`
	Tax            TaxBreakdown    `json:"tax_breakdown"`
	Surcharges     Surcharges      `json:"surcharges"`
	Tip            decimal.Decimal `json:"tip"`
	TipStaffID     *uint           `json:"tip_staff_id,omitempty"`
	RoundOff       decimal.Decimal `json:"round_off"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	Adjustments    Adjustments     `json:"adjustments"`
}

// ComputeBill applies adjustments to lines. Intermediate values keep full
// precision; rounding happens once when the bill is assembled.
func ComputeBill(lines []Line, adj Adjustments) Bill {
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	discount := discountAmount(subtotal, adj)
	afterDiscount := subtotal.Sub(discount)

	tax := TaxBreakdown{Enabled: adj.Tax.Enabled}
	taxAdded := decimal.Zero
	if adj.Tax.Enabled {
		rate1, rate2 := adj.Tax.Rate1, adj.Tax.Rate2
		var base decimal.Decimal
		if adj.Tax.Mode == TaxInclusive {
			base = subtotal.Div(decimal.NewFromInt(1).Add(rate1.Add(rate2).Div(hundred)))
		} else {
			base = afterDiscount
		}
		tax.Mode = adj.Tax.Mode
		tax.Base = base
		tax.Rate1Name = adj.Tax.Rate1Name
		tax.Rate2Name = adj.Tax.Rate2Name
		tax.Rate1Amount = base.Mul(rate1).Div(hundred)
		tax.Rate2Amount = base.Mul(rate2).Div(hundred)
		// inclusive tax already sits inside the subtotal
		if adj.Tax.Mode == TaxExclusive {
			tax.AddedToTotal = true
			taxAdded = tax.Rate1Amount.Add(tax.Rate2Amount)
		}
	}

	serviceCharge := afterDiscount.Mul(adj.ServiceChargePercent).Div(hundred)
	beforeRounding := afterDiscount.
		Add(taxAdded).
		Add(adj.DeliveryCharge).
		Add(adj.ContainerCharge).
		Add(serviceCharge)

	roundOff := adj.RoundOff
	if roundOff.IsZero() && adj.RoundTo.IsPositive() {
		rounded := beforeRounding.Div(adj.RoundTo).Round(0).Mul(adj.RoundTo)
		roundOff = rounded.Sub(beforeRounding)
	}

	grandTotal := beforeRounding.Add(roundOff).Add(adj.Tip)

	return Bill{
		Subtotal:       money(subtotal),
		DiscountAmount: money(discount),
		DiscountReason: adj.DiscountReason,
		Tax: TaxBreakdown{
			Enabled:      tax.Enabled,
			Mode:         tax.Mode,
			Base:         money(tax.Base),
			Rate1Name:    tax.Rate1Name,
			Rate1Amount:  money(tax.Rate1Amount),
			Rate2Name:    tax.Rate2Name,
			Rate2Amount:  money(tax.Rate2Amount),
			AddedToTotal: tax.AddedToTotal,
		},
		Surcharges: Surcharges{
			Delivery:      money(adj.DeliveryCharge),
			Container:     money(adj.ContainerCharge),
			ServiceCharge: money(serviceCharge),
		},
		Tip:         money(adj.Tip),
		TipStaffID:  adj.TipStaffID,
		RoundOff:    money(roundOff),
		GrandTotal:  money(grandTotal),
		Adjustments: adj,
	}
}

func discountAmount(subtotal decimal.Decimal, adj Adjustments) decimal.Decimal {
	var d decimal.Decimal
	switch adj.DiscountType {
	case DiscountPercentage:
		d = subtotal.Mul(adj.DiscountValue).Div(hundred)
	case DiscountFlat:
		d = adj.DiscountValue
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
