package request

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestApplyPaymentStatusPartial(t *testing.T) {
	item := Item{LineTotal: decimal.NewFromInt(1000), PaymentStatus: PaymentNotPaid}

	got, err := ApplyPaymentStatus(item, PaymentPartial, 40)
	require.NoError(t, err)
	require.Equal(t, PaymentPartial, got.PaymentStatus)
	require.Equal(t, int64(40), got.PercentagePaid)
	require.Equal(t, "400.00", got.PaidAmount.StringFixed(2))
	require.Equal(t, "600.00", got.BalanceAmount.StringFixed(2))
	require.True(t, got.PaidAmount.Add(got.BalanceAmount).Equal(got.LineTotal))
}

func TestApplyPaymentStatusPaidAndNotPaid(t *testing.T) {
	item := Item{LineTotal: decimal.RequireFromString("250.50")}

	paid, err := ApplyPaymentStatus(item, PaymentPaid, 0)
	require.NoError(t, err)
	require.Equal(t, int64(100), paid.PercentagePaid)
	require.True(t, paid.PaidAmount.Equal(item.LineTotal))
	require.True(t, paid.BalanceAmount.IsZero())

	unpaid, err := ApplyPaymentStatus(paid, PaymentNotPaid, 0)
	require.NoError(t, err)
	require.Zero(t, unpaid.PercentagePaid)
	require.True(t, unpaid.PaidAmount.IsZero())
	require.True(t, unpaid.BalanceAmount.Equal(item.LineTotal))
}

func TestApplyPaymentStatusClampsPercentage(t *testing.T) {
	item := Item{LineTotal: decimal.NewFromInt(100)}

	low, err := ApplyPaymentStatus(item, PaymentPartial, -20)
	require.NoError(t, err)
	require.Zero(t, low.PercentagePaid)
	require.True(t, low.PaidAmount.IsZero())

	high, err := ApplyPaymentStatus(item, PaymentPartial, 150)
	require.NoError(t, err)
	require.Equal(t, int64(100), high.PercentagePaid)
	require.True(t, high.PaidAmount.Equal(item.LineTotal))
}

func TestApplyPaymentStatusIdempotent(t *testing.T) {
	item := Item{LineTotal: decimal.NewFromInt(999)}

	once, err := ApplyPaymentStatus(item, PaymentPartial, 33)
	require.NoError(t, err)
	twice, err := ApplyPaymentStatus(once, PaymentPartial, 33)
	require.NoError(t, err)
	require.Equal(t, once.PercentagePaid, twice.PercentagePaid)
	require.True(t, once.PaidAmount.Equal(twice.PaidAmount))
	require.True(t, once.BalanceAmount.Equal(twice.BalanceAmount))
}

func TestApplyPaymentStatusRejectsUnknown(t *testing.T) {
	_, err := ApplyPaymentStatus(Item{}, PaymentStatus("REFUNDED"), 0)
	require.ErrorIs(t, err, ErrValidation)
}

func TestHasPaymentActivity(t *testing.T) {
	r := Request{Items: []Item{
		{PaymentStatus: PaymentNotPaid},
		{PaymentStatus: PaymentPartial},
	}}
	require.True(t, HasPaymentActivity(r))

	// Removed items never count.
	r.Items[1].Removed = true
	require.False(t, HasPaymentActivity(r))
}
