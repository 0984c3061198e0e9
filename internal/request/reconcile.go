package request

// IsRowEligible decides whether an item participates in delivery
// completeness checks. In-stock items always do; petty-cash items join once
// the requester is asked to confirm receipt. Everything else is treated as
// satisfied and never blocks approval.
func IsRowEligible(item Item, r Request) bool {
	if !item.Active() {
		return false
	}
	if item.InStock {
		return true
	}
	return r.Type == TypePettyCash && r.State == StateRequesterDeliveryConfirm
}

// AllFullyDelivered reports whether every eligible item is either empty or
// delivered in full. Vacuously true with zero eligible rows. Callers must
// recompute this after every quantity or delivery mutation; it is never
// cached.
func AllFullyDelivered(r Request) bool {
	for _, it := range r.Items {
		if !IsRowEligible(it, r) {
			continue
		}
		if it.Quantity == 0 {
			continue
		}
		if it.DeliveredQuantity != it.Quantity {
			return false
		}
	}
	return true
}

// ApplyDelivery clamps qty into [0, item.Quantity], records it as the
// authoritative delivered total and returns the updated item together with
// the derived outstanding quantity.
func ApplyDelivery(item Item, qty int64) (Item, int64) {
	if qty < 0 {
		qty = 0
	}
	if qty > item.Quantity {
		qty = item.Quantity
	}
	item.DeliveredQuantity = qty
	return item, item.OutstandingQuantity()
}

// ApplyStageDelivery records a per-stage delivered quantity. Stage figures
// are informational; only StageFinal moves the authoritative total.
func ApplyStageDelivery(item Item, stage DeliveryStage, qty int64) (Item, int64, error) {
	if qty < 0 {
		qty = 0
	}
	if qty > item.Quantity {
		qty = item.Quantity
	}
	switch stage {
	case StageBase:
		item.BaseDeliveredQty = qty
	case StageJetty:
		item.JettyDeliveredQty = qty
	case StageVessel:
		item.VesselDeliveredQty = qty
	case StageFinal:
		item.DeliveredQuantity = qty
	default:
		return item, 0, ErrValidation
	}
	return item, item.OutstandingQuantity(), nil
}
