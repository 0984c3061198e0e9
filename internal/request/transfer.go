package request

import "github.com/google/uuid"

// TransferInitiator distinguishes who is merging items between requests.
// Requester-driven transfers keep shipping work inside shipping requests;
// accounting consolidation must not touch shipping requests at all.
type TransferInitiator string

const (
	TransferByRequester TransferInitiator = "REQUESTER"
	TransferByAccounts  TransferInitiator = "ACCOUNTS"
)

// TransferResult reports what a completed AttachItems moved.
type TransferResult struct {
	SourceID uuid.UUID   `json:"source_id"`
	TargetID uuid.UUID   `json:"target_id"`
	ItemIDs  []uuid.UUID `json:"item_ids"`
}

// TransferMove pairs a detached source line with the copy appended to the
// target.
type TransferMove struct {
	SourceItemID uuid.UUID
	Copy         Item
}

// PlanTransfer selects and validates the items to move from source to
// target. An empty itemIDs selection means every active item. The returned
// copies are ready to append to the target; the source items are not
// mutated here, so a failed plan leaves everything untouched — the
// operation is all-or-nothing.
func PlanTransfer(source, target Request, itemIDs []uuid.UUID, initiator TransferInitiator) ([]TransferMove, error) {
	if err := checkTagCompatibility(source, target, initiator); err != nil {
		return nil, err
	}

	var selected []Item
	if len(itemIDs) == 0 {
		selected = source.ActiveItems()
	} else {
		for _, id := range itemIDs {
			item, ok := source.Item(id)
			if !ok || !item.Active() {
				return nil, ErrNotFound
			}
			selected = append(selected, item)
		}
	}
	if len(selected) == 0 {
		return nil, ErrValidation
	}

	// Monetary and delivery state carries over as-is; only ownership and
	// lineage change.
	moves := make([]TransferMove, 0, len(selected))
	for _, item := range selected {
		copyItem := item
		copyItem.ID = uuid.New()
		copyItem.RequestID = target.ID
		from := source.ID
		copyItem.MovedFromRequestID = &from
		copyItem.MovedToRequestID = nil
		moves = append(moves, TransferMove{SourceItemID: item.ID, Copy: copyItem})
	}
	return moves, nil
}

func checkTagCompatibility(source, target Request, initiator TransferInitiator) error {
	switch initiator {
	case TransferByRequester:
		if source.Tag == TagShipping && target.Tag != TagShipping {
			return ErrCrossTagViolation
		}
	case TransferByAccounts:
		if source.Tag == TagShipping {
			return ErrCrossTagViolation
		}
	default:
		return ErrValidation
	}
	return nil
}
