package billing

import "github.com/shopspring/decimal"

// Equal reports whether two bills carry the same amounts and inputs.
// Decimal values compare numerically, so "945" equals "945.00".
func (b Bill) Equal(o Bill) bool {
	if b.DiscountReason != o.DiscountReason || !sameStaff(b.TipStaffID, o.TipStaffID) {
		return false
	}
	if b.Tax.Enabled != o.Tax.Enabled || b.Tax.Mode != o.Tax.Mode || b.Tax.AddedToTotal != o.Tax.AddedToTotal ||
		b.Tax.Rate1Name != o.Tax.Rate1Name || b.Tax.Rate2Name != o.Tax.Rate2Name {
		return false
	}
	return decimalsEqual(
		[]decimal.Decimal{
			b.Subtotal, b.DiscountAmount, b.Tax.Base, b.Tax.Rate1Amount, b.Tax.Rate2Amount,
			b.Surcharges.Delivery, b.Surcharges.Container, b.Surcharges.ServiceCharge,
			b.Tip, b.RoundOff, b.GrandTotal,
		},
		[]decimal.Decimal{
			o.Subtotal, o.DiscountAmount, o.Tax.Base, o.Tax.Rate1Amount, o.Tax.Rate2Amount,
			o.Surcharges.Delivery, o.Surcharges.Container, o.Surcharges.ServiceCharge,
			o.Tip, o.RoundOff, o.GrandTotal,
		},
	) && b.Adjustments.Equal(o.Adjustments)
}

func (a Adjustments) Equal(o Adjustments) bool {
	if a.DiscountType != o.DiscountType || a.DiscountReason != o.DiscountReason || !sameStaff(a.TipStaffID, o.TipStaffID) {
		return false
	}
	if a.Tax.Enabled != o.Tax.Enabled || a.Tax.Mode != o.Tax.Mode ||
		a.Tax.Rate1Name != o.Tax.Rate1Name || a.Tax.Rate2Name != o.Tax.Rate2Name {
		return false
	}
	return decimalsEqual(
		[]decimal.Decimal{
			a.DiscountValue, a.Tax.Rate1, a.Tax.Rate2, a.DeliveryCharge, a.ContainerCharge,
			a.ServiceChargePercent, a.RoundOff, a.RoundTo, a.Tip,
		},
		[]decimal.Decimal{
			o.DiscountValue, o.Tax.Rate1, o.Tax.Rate2, o.DeliveryCharge, o.ContainerCharge,
			o.ServiceChargePercent, o.RoundOff, o.RoundTo, o.Tip,
		},
	)
}

func decimalsEqual(a, b []decimal.Decimal) bool {
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func sameStaff(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
