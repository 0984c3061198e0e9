package request

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRowEligible(t *testing.T) {
	po := Request{Type: TypePurchaseOrder, State: StateAccountsApproval}
	require.True(t, IsRowEligible(Item{InStock: true}, po))
	require.False(t, IsRowEligible(Item{}, po))
	require.False(t, IsRowEligible(Item{InStock: true, Removed: true}, po))

	petty := Request{Type: TypePettyCash, State: StateRequesterDeliveryConfirm}
	require.True(t, IsRowEligible(Item{}, petty))

	petty.State = StateAccountsApproval
	require.False(t, IsRowEligible(Item{}, petty))
}

func TestAllFullyDelivered(t *testing.T) {
	r := Request{Type: TypePurchaseOrder, State: StateRequesterDeliveryConfirm}

	// No eligible rows at all is vacuously complete.
	r.Items = []Item{{Quantity: 10}}
	require.True(t, AllFullyDelivered(r))

	r.Items = []Item{{InStock: true, Quantity: 10, DeliveredQuantity: 4}}
	require.False(t, AllFullyDelivered(r))

	r.Items[0].DeliveredQuantity = 10
	require.True(t, AllFullyDelivered(r))

	// Zero-quantity rows never block.
	r.Items = append(r.Items, Item{InStock: true, Quantity: 0})
	require.True(t, AllFullyDelivered(r))
}

func TestApplyDeliveryClamps(t *testing.T) {
	item := Item{Quantity: 8}

	got, outstanding := ApplyDelivery(item, 20)
	require.Equal(t, int64(8), got.DeliveredQuantity)
	require.Zero(t, outstanding)

	got, outstanding = ApplyDelivery(item, -5)
	require.Zero(t, got.DeliveredQuantity)
	require.Equal(t, int64(8), outstanding)

	got, outstanding = ApplyDelivery(item, 3)
	require.Equal(t, int64(3), got.DeliveredQuantity)
	require.Equal(t, int64(5), outstanding)
}

func TestApplyStageDelivery(t *testing.T) {
	item := Item{Quantity: 6}

	got, _, err := ApplyStageDelivery(item, StageJetty, 4)
	require.NoError(t, err)
	require.Equal(t, int64(4), got.JettyDeliveredQty)
	require.Zero(t, got.DeliveredQuantity)

	got, outstanding, err := ApplyStageDelivery(got, StageFinal, 6)
	require.NoError(t, err)
	require.Equal(t, int64(6), got.DeliveredQuantity)
	require.Zero(t, outstanding)

	_, _, err = ApplyStageDelivery(item, DeliveryStage("DOCK"), 1)
	require.ErrorIs(t, err, ErrValidation)
}
