package request

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func statesOf(stations []station) []State {
	states := make([]State, 0, len(stations))
	for _, st := range stations {
		states = append(states, st.state)
	}
	return states
}

func TestPipelinePurchaseOrderLocal(t *testing.T) {
	r := Request{Type: TypePurchaseOrder, LogisticsType: LogisticsLocal}
	require.Equal(t, []State{
		StateSubmitted,
		StateProcurementReview,
		StateVesselManagerApproval,
		StateFleetManagerApproval,
		StateProcurementMgrApproval,
		StateOperationsMgrApproval,
		StateManagingDirectorApproval,
		StateAccountsApproval,
		StateBaseDelivery,
		StateRequesterDeliveryConfirm,
		StateFinalAccountsApproval,
	}, statesOf(pipelineFor(r)))
}

func TestPipelineInternationalAddsMarineLegs(t *testing.T) {
	r := Request{Type: TypePurchaseOrder, LogisticsType: LogisticsInternational}
	states := statesOf(pipelineFor(r))
	require.Contains(t, states, StateJettyDelivery)
	require.Contains(t, states, StateVesselDelivery)
}

func TestPipelineShippingTagSkipsMarineTiers(t *testing.T) {
	r := Request{Type: TypePurchaseOrder, Tag: TagShipping, LogisticsType: LogisticsLocal}
	states := statesOf(pipelineFor(r))
	require.NotContains(t, states, StateVesselManagerApproval)
	require.NotContains(t, states, StateFleetManagerApproval)
	require.NotContains(t, states, StateProcurementMgrApproval)
	require.Contains(t, states, StateOperationsMgrApproval)
}

func TestPipelinePettyCash(t *testing.T) {
	r := Request{Type: TypePettyCash}
	require.Equal(t, []State{
		StateSubmitted,
		StateManagingDirectorApproval,
		StateAccountsApproval,
		StateRequesterDeliveryConfirm,
		StateFinalAccountsApproval,
	}, statesOf(pipelineFor(r)))
}

func TestAdvance(t *testing.T) {
	r := Request{Type: TypePurchaseOrder, State: StateSubmitted}

	next, err := Advance(r, RoleProcurementOfficer)
	require.NoError(t, err)
	require.Equal(t, StateProcurementReview, next)

	_, err = Advance(r, RoleAccounts)
	require.ErrorIs(t, err, ErrInvalidTransition)

	r.State = StateQueried
	_, err = Advance(r, RoleProcurementOfficer)
	require.ErrorIs(t, err, ErrInvalidTransition)

	r.State = StateCompleted
	_, err = Advance(r, RoleAccounts)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAdvanceLastStationCompletes(t *testing.T) {
	r := Request{Type: TypePettyCash, State: StateFinalAccountsApproval}
	next, err := Advance(r, RoleAccounts)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, next)
}

func TestCanReject(t *testing.T) {
	require.True(t, CanReject(RoleVesselManager))
	require.True(t, CanReject(RoleManagingDirector))
	require.True(t, CanReject(RoleOperationsManager))
	require.True(t, CanReject(RoleEquipmentManager))
	require.False(t, CanReject(RoleRequester))
	require.False(t, CanReject(RoleAccounts))
	require.False(t, CanReject(RoleProcurementOfficer))
}

func TestCanQuery(t *testing.T) {
	r := Request{Type: TypePurchaseOrder}
	require.True(t, CanQuery(r, RoleFleetManager))
	require.True(t, CanQuery(r, RoleEquipmentManager))
	require.True(t, CanQuery(r, RoleAccounts))

	petty := Request{Type: TypePettyCash}
	require.False(t, CanQuery(petty, RoleProcurementOfficer))
}

func TestValidateComment(t *testing.T) {
	require.ErrorIs(t, ValidateComment(""), ErrValidation)
	require.ErrorIs(t, ValidateComment("no"), ErrValidation)
	require.NoError(t, ValidateComment("bad"))
	require.NoError(t, ValidateComment("quantity does not match the PO"))
}
