package request

// station pairs a pipeline state with the role that acts in it.
type station struct {
	state State
	actor Role
}

// pipelineFor builds the ordered approval pipeline for a request. The shape
// depends on the request type, free-form tag and logistics route:
//
//   - purchase orders run intake, procurement review, the manager tiers,
//     accounting, the delivery legs, requester confirmation and a final
//     accounting pass;
//   - shipping/clearing-tagged purchase orders skip the vessel and fleet
//     tiers and go straight to operations management;
//   - local logistics uses a single base delivery leg, international adds
//     jetty and vessel legs;
//   - petty cash skips procurement and the marine tiers entirely.
func pipelineFor(r Request) []station {
	if r.Type == TypePettyCash {
		return []station{
			{StateSubmitted, RoleOperationsManager},
			{StateManagingDirectorApproval, RoleManagingDirector},
			{StateAccountsApproval, RoleAccounts},
			{StateRequesterDeliveryConfirm, RoleRequester},
			{StateFinalAccountsApproval, RoleAccounts},
		}
	}

	stations := []station{
		{StateSubmitted, RoleProcurementOfficer},
		{StateProcurementReview, RoleProcurementOfficer},
	}
	switch r.Tag {
	case TagShipping, TagClearing:
		stations = append(stations,
			station{StateOperationsMgrApproval, RoleOperationsManager},
		)
	default:
		stations = append(stations,
			station{StateVesselManagerApproval, RoleVesselManager},
			station{StateFleetManagerApproval, RoleFleetManager},
			station{StateProcurementMgrApproval, RoleProcurementManager},
			station{StateOperationsMgrApproval, RoleOperationsManager},
		)
	}
	stations = append(stations,
		station{StateManagingDirectorApproval, RoleManagingDirector},
		station{StateAccountsApproval, RoleAccounts},
		station{StateBaseDelivery, RoleBaseOfficer},
	)
	if r.LogisticsType == LogisticsInternational {
		stations = append(stations,
			station{StateJettyDelivery, RoleJettyOfficer},
			station{StateVesselDelivery, RoleVesselOfficer},
		)
	}
	stations = append(stations,
		station{StateRequesterDeliveryConfirm, RoleRequester},
		station{StateFinalAccountsApproval, RoleAccounts},
	)
	return stations
}

// ActorFor returns the role authorised to approve the request in its
// current state.
func ActorFor(r Request) (Role, bool) {
	for _, st := range pipelineFor(r) {
		if st.state == r.State {
			return st.actor, true
		}
	}
	return "", false
}

// NextState returns the state an approval moves the request into. The last
// station completes the request.
func NextState(r Request) (State, error) {
	stations := pipelineFor(r)
	for i, st := range stations {
		if st.state != r.State {
			continue
		}
		if i == len(stations)-1 {
			return StateCompleted, nil
		}
		return stations[i+1].state, nil
	}
	return "", ErrInvalidTransition
}

// rejectAllowList holds the roles permitted to reject a request outright.
var rejectAllowList = map[Role]struct{}{
	RoleVesselManager:     {},
	RoleManagingDirector:  {},
	RoleOperationsManager: {},
	RoleEquipmentManager:  {},
}

// CanReject reports whether the role may move a request to REJECTED.
func CanReject(role Role) bool {
	_, ok := rejectAllowList[role]
	return ok
}

// CanQuery reports whether the role participates in this request's approval
// chain and may therefore return it to the requester for correction.
func CanQuery(r Request, role Role) bool {
	if CanReject(role) {
		return true
	}
	for _, st := range pipelineFor(r) {
		if st.actor == role {
			return true
		}
	}
	return false
}

// Advance validates that actingRole owns the current station and returns
// the successor state. The request is untouched; the caller applies the
// transition after the approval gate passes.
func Advance(r Request, actingRole Role) (State, error) {
	if r.State.IsTerminal() || r.State == StateQueried {
		return "", ErrInvalidTransition
	}
	actor, ok := ActorFor(r)
	if !ok || actor != actingRole {
		return "", ErrInvalidTransition
	}
	return NextState(r)
}

// minCommentLen is the shortest accepted reject/query comment.
const minCommentLen = 3

// ValidateComment enforces the minimum comment length on reject and query.
func ValidateComment(comment string) error {
	if len(comment) < minCommentLen {
		return ErrValidation
	}
	return nil
}
