package invoice

import "github.com/shopspring/decimal"

// VATBreakdownEntry is one row of the itemized VAT detail sent to ARCA:
// the aliquot code plus the taxable base and VAT amount accumulated for it.
type VATBreakdownEntry struct {
	AliquotCode int
	Base        decimal.Decimal
	Amount      decimal.Decimal
}

// Totals aggregates the monetary fields of an invoice.
type Totals struct {
	Net       decimal.Decimal
	VAT21     decimal.Decimal
	VAT105    decimal.Decimal
	VAT27     decimal.Decimal
	Total     decimal.Decimal
	Breakdown []VATBreakdownEntry
}

// VATTotal returns the sum of the three named VAT buckets.
func (t Totals) VATTotal() decimal.Decimal {
	return t.VAT21.Add(t.VAT105).Add(t.VAT27)
}

// CalculateTotals aggregates line items into net/VAT/total amounts grouped by
// IVA bracket. All arithmetic is exact decimal; nothing is rounded here.
//
// Not-taxed and 0% items contribute to the net subtotal and are tracked per
// bracket, but never enter the three named VAT buckets nor the breakdown
// (the authority's itemized detail only lists brackets with VAT owed).
//
// The function is pure: calling it twice on the same items yields identical
// totals.
func CalculateTotals(items []LineItem) Totals {
	totals := Totals{
		Net:    decimal.Zero,
		VAT21:  decimal.Zero,
		VAT105: decimal.Zero,
		VAT27:  decimal.Zero,
	}

	type bucket struct {
		base   decimal.Decimal
		amount decimal.Decimal
	}
	buckets := make(map[VATRate]*bucket)
	var order []VATRate

	for _, item := range items {
		subtotal := item.Quantity.Mul(item.UnitPrice)
		totals.Net = totals.Net.Add(subtotal)

		rate := item.VATRate
		if !rate.Valid() {
			rate = VAT21
		}
		vat := subtotal.Mul(rate.Percent()).Div(decimal.NewFromInt(100))

		b, ok := buckets[rate]
		if !ok {
			b = &bucket{base: decimal.Zero, amount: decimal.Zero}
			buckets[rate] = b
			order = append(order, rate)
		}
		b.base = b.base.Add(subtotal)
		b.amount = b.amount.Add(vat)

		switch rate {
		case VAT21:
			totals.VAT21 = totals.VAT21.Add(vat)
		case VAT10_5:
			totals.VAT105 = totals.VAT105.Add(vat)
		case VAT27:
			totals.VAT27 = totals.VAT27.Add(vat)
		}
	}

	for _, rate := range order {
		b := buckets[rate]
		if b.amount.IsPositive() {
			totals.Breakdown = append(totals.Breakdown, VATBreakdownEntry{
				AliquotCode: rate.AliquotCode(),
				Base:        b.base,
				Amount:      b.amount,
			})
		}
	}

	totals.Total = totals.Net.Add(totals.VATTotal())
	return totals
}
