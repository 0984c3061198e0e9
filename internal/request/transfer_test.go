package request

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func transferFixture() (Request, Request) {
	source := Request{ID: uuid.New(), Number: "REQ-1"}
	source.Items = []Item{
		{ID: uuid.New(), RequestID: source.ID, Description: "hydraulic hose", Quantity: 2},
		{ID: uuid.New(), RequestID: source.ID, Description: "gasket set", Quantity: 5},
	}
	target := Request{ID: uuid.New(), Number: "REQ-2"}
	return source, target
}

func TestPlanTransferMovesAllActiveWhenUnselected(t *testing.T) {
	source, target := transferFixture()

	moves, err := PlanTransfer(source, target, nil, TransferByRequester)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	for i, move := range moves {
		require.Equal(t, source.Items[i].ID, move.SourceItemID)
		require.NotEqual(t, source.Items[i].ID, move.Copy.ID)
		require.Equal(t, target.ID, move.Copy.RequestID)
		require.NotNil(t, move.Copy.MovedFromRequestID)
		require.Equal(t, source.ID, *move.Copy.MovedFromRequestID)
		require.Nil(t, move.Copy.MovedToRequestID)
	}
}

func TestPlanTransferSkipsInactiveInFullSelection(t *testing.T) {
	source, target := transferFixture()
	source.Items[0].Removed = true

	moves, err := PlanTransfer(source, target, nil, TransferByRequester)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.Equal(t, source.Items[1].ID, moves[0].SourceItemID)
}

func TestPlanTransferExplicitSelection(t *testing.T) {
	source, target := transferFixture()

	moves, err := PlanTransfer(source, target, []uuid.UUID{source.Items[1].ID}, TransferByAccounts)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.Equal(t, "gasket set", moves[0].Copy.Description)
}

func TestPlanTransferUnknownOrInactiveItemFails(t *testing.T) {
	source, target := transferFixture()

	_, err := PlanTransfer(source, target, []uuid.UUID{uuid.New()}, TransferByRequester)
	require.ErrorIs(t, err, ErrNotFound)

	source.Items[0].Removed = true
	_, err = PlanTransfer(source, target, []uuid.UUID{source.Items[0].ID}, TransferByRequester)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPlanTransferNothingToMove(t *testing.T) {
	source, target := transferFixture()
	for i := range source.Items {
		source.Items[i].Removed = true
	}
	_, err := PlanTransfer(source, target, nil, TransferByRequester)
	require.ErrorIs(t, err, ErrValidation)
}

func TestPlanTransferTagRules(t *testing.T) {
	source, target := transferFixture()
	source.Tag = TagShipping

	// Requester may only move shipping items into another shipping request.
	_, err := PlanTransfer(source, target, nil, TransferByRequester)
	require.ErrorIs(t, err, ErrCrossTagViolation)

	target.Tag = TagShipping
	_, err = PlanTransfer(source, target, nil, TransferByRequester)
	require.NoError(t, err)

	// Accounting consolidation never touches shipping sources.
	_, err = PlanTransfer(source, target, nil, TransferByAccounts)
	require.ErrorIs(t, err, ErrCrossTagViolation)

	source.Tag = TagClearing
	_, err = PlanTransfer(source, target, nil, TransferByAccounts)
	require.NoError(t, err)
}
