package request

import "github.com/shopspring/decimal"

var (
	oneHundred = decimal.NewFromInt(100)

	// DefaultVATRate applies when no configured rate is supplied.
	DefaultVATRate = decimal.NewFromFloat(0.075)
)

// RecalculateLine derives the monetary fields of a line item. It is pure:
// the input is returned with LineTotal, VATAmount and TotalPrice replaced,
// the caller persists the result.
//
// Banker's rounding to two decimals is applied once to each derived figure,
// never to intermediate products, so repeated recalculation cannot drift.
//
// An in-stock item is fulfilled from the store rather than purchased, so
// flipping InStock clears the pricing fields before totals are derived.
func RecalculateLine(item Item, vatRate decimal.Decimal) Item {
	if item.InStock {
		item.UnitPrice = decimal.Zero
		item.Currency = ""
		item.DiscountPercent = 0
	}

	qty := decimal.NewFromInt(item.Quantity)
	discount := decimal.NewFromInt(item.DiscountPercent).Div(oneHundred)
	gross := qty.Mul(item.UnitPrice)
	lineTotal := gross.Sub(gross.Mul(discount))

	vat := decimal.Zero
	if item.VATApplied {
		vat = lineTotal.Mul(vatRate)
	}
	fee := item.ShippingFee.Add(item.ClearingFee)

	item.LineTotal = lineTotal.RoundBank(2)
	item.VATAmount = vat.RoundBank(2)
	item.TotalPrice = lineTotal.Add(vat).Add(fee).RoundBank(2)
	return item
}

// ValidateItemInvariants checks the line-level invariants that must hold
// after any mutation. Returns ErrValidation when one is broken.
func ValidateItemInvariants(item Item) error {
	if item.Quantity < 0 || item.DeliveredQuantity < 0 {
		return ErrValidation
	}
	if item.DeliveredQuantity > item.Quantity {
		return ErrValidation
	}
	if item.DiscountPercent < 0 || item.DiscountPercent > 100 {
		return ErrValidation
	}
	if item.PercentagePaid < 0 || item.PercentagePaid > 100 {
		return ErrValidation
	}
	switch item.PaymentStatus {
	case PaymentPaid:
		if item.PercentagePaid != 100 {
			return ErrValidation
		}
		if !item.PaidAmount.Equal(item.LineTotal) {
			return ErrValidation
		}
	case PaymentNotPaid:
		if item.PercentagePaid != 0 || !item.PaidAmount.IsZero() {
			return ErrValidation
		}
	}
	if item.Currency != "" && !ValidCurrency(item.Currency) {
		return ErrUnsupportedCurrency
	}
	return nil
}
