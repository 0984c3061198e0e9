package request

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanApprovePettyCashNeedsInvoice(t *testing.T) {
	r := Request{Type: TypePettyCash, State: StateRequesterDeliveryConfirm, Items: []Item{{Quantity: 1, DeliveredQuantity: 1}}}

	ok, reason := CanApprove(r, RoleRequester, GateInput{})
	require.False(t, ok)
	require.Equal(t, GateMissingInvoice, reason)

	ok, reason = CanApprove(r, RoleRequester, GateInput{HasInvoiceFile: true})
	require.True(t, ok)
	require.Equal(t, GateNone, reason)
}

func TestCanApprovePaymentNeedsAdvice(t *testing.T) {
	r := Request{Type: TypePurchaseOrder, State: StateAccountsApproval, Items: []Item{
		{Quantity: 2, PaymentStatus: PaymentPartial, PercentagePaid: 50},
	}}

	ok, reason := CanApprove(r, RoleAccounts, GateInput{})
	require.False(t, ok)
	require.Equal(t, GateMissingPaymentAdvice, reason)

	ok, _ = CanApprove(r, RoleAccounts, GateInput{HasPaymentAdviceFile: true})
	require.True(t, ok)
}

func TestCanApproveStockDataMustBeComplete(t *testing.T) {
	r := Request{Type: TypePurchaseOrder, State: StateProcurementReview, Items: []Item{
		{Quantity: 2, InStock: true, InStockQuantity: 2, StoreLocation: ""},
	}}

	ok, reason := CanApprove(r, RoleProcurementOfficer, GateInput{})
	require.False(t, ok)
	require.Equal(t, GateIncompleteStockData, reason)

	r.Items[0].StoreLocation = "JETTY-STORE-1"
	ok, _ = CanApprove(r, RoleProcurementOfficer, GateInput{})
	require.True(t, ok)

	r.Items[0].InStockQuantity = 0
	ok, reason = CanApprove(r, RoleProcurementOfficer, GateInput{})
	require.False(t, ok)
	require.Equal(t, GateIncompleteStockData, reason)
}

func TestCanApproveDeliveryCompleteness(t *testing.T) {
	r := Request{Type: TypePurchaseOrder, State: StateBaseDelivery, Items: []Item{
		{Quantity: 5, DeliveredQuantity: 2, InStock: true, InStockQuantity: 5, StoreLocation: "BASE"},
	}}

	ok, reason := CanApprove(r, RoleBaseOfficer, GateInput{})
	require.False(t, ok)
	require.Equal(t, GateDeliveryIncomplete, reason)

	r.Items[0].DeliveredQuantity = 5
	ok, _ = CanApprove(r, RoleBaseOfficer, GateInput{})
	require.True(t, ok)
}

func TestCanApproveOrderOfChecks(t *testing.T) {
	// A petty-cash request failing every check reports the invoice first.
	r := Request{Type: TypePettyCash, State: StateRequesterDeliveryConfirm, Items: []Item{
		{Quantity: 5, PaymentStatus: PaymentPaid, PercentagePaid: 100, InStock: true},
	}}

	ok, reason := CanApprove(r, RoleRequester, GateInput{})
	require.False(t, ok)
	require.Equal(t, GateMissingInvoice, reason)

	ok, reason = CanApprove(r, RoleRequester, GateInput{HasInvoiceFile: true})
	require.False(t, ok)
	require.Equal(t, GateMissingPaymentAdvice, reason)

	ok, reason = CanApprove(r, RoleRequester, GateInput{HasInvoiceFile: true, HasPaymentAdviceFile: true})
	require.False(t, ok)
	require.Equal(t, GateIncompleteStockData, reason)
}

func TestCanApproveRemovedItemsDoNotBlock(t *testing.T) {
	r := Request{Type: TypePurchaseOrder, State: StateBaseDelivery, Items: []Item{
		{Quantity: 5, DeliveredQuantity: 0, InStock: true, Removed: true},
	}}
	ok, _ := CanApprove(r, RoleBaseOfficer, GateInput{})
	require.True(t, ok)
}
