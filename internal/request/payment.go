package request

import "github.com/shopspring/decimal"

// ApplyPaymentStatus derives paid and balance amounts for a line item from
// the requested settlement status. It never touches quantity or price, and
// re-applying the same status and percentage yields an identical item.
//
// Percentages are whole numbers; out-of-range input is clamped to [0,100].
func ApplyPaymentStatus(item Item, status PaymentStatus, percentage int64) (Item, error) {
	if !status.IsValid() {
		return Item{}, ErrValidation
	}
	switch status {
	case PaymentPaid:
		item.PaymentStatus = PaymentPaid
		item.PercentagePaid = 100
		item.PaidAmount = item.LineTotal
		item.BalanceAmount = decimal.Zero
	case PaymentNotPaid:
		item.PaymentStatus = PaymentNotPaid
		item.PercentagePaid = 0
		item.PaidAmount = decimal.Zero
		item.BalanceAmount = item.LineTotal
	case PaymentPartial:
		if percentage < 0 {
			percentage = 0
		}
		if percentage > 100 {
			percentage = 100
		}
		paid := item.LineTotal.Mul(decimal.NewFromInt(percentage)).Div(oneHundred).RoundBank(2)
		item.PaymentStatus = PaymentPartial
		item.PercentagePaid = percentage
		item.PaidAmount = paid
		item.BalanceAmount = item.LineTotal.Sub(paid)
	}
	return item, nil
}

// HasPaymentActivity reports whether any active item has been paid in part
// or in full. The approval gate uses this to demand a payment advice file.
func HasPaymentActivity(r Request) bool {
	for _, it := range r.ActiveItems() {
		if it.PaymentStatus == PaymentPaid || it.PaymentStatus == PaymentPartial {
			return true
		}
	}
	return false
}
