package request

// GateReason names the first precondition an approval attempt failed.
type GateReason string

const (
	GateNone                 GateReason = ""
	GateMissingInvoice       GateReason = "MISSING_INVOICE"
	GateMissingPaymentAdvice GateReason = "MISSING_PAYMENT_ADVICE"
	GateIncompleteStockData  GateReason = "INCOMPLETE_STOCK_DATA"
	GateDeliveryIncomplete   GateReason = "DELIVERY_INCOMPLETE"
)

// GateInput carries the facts the gate cannot derive from the aggregate
// itself: whether the external file store holds attachments of the two
// categories the checks demand.
type GateInput struct {
	HasInvoiceFile       bool
	HasPaymentAdviceFile bool
}

// CanApprove runs the role-aware preconditions for an "approve" transition
// in their fixed order; the first failure wins. It has no side effects and
// is purely advisory — the state machine calls it before every approval.
func CanApprove(r Request, actingRole Role, in GateInput) (bool, GateReason) {
	// 1. Petty-cash requesters must have lodged an invoice.
	if r.Type == TypePettyCash && actingRole == RoleRequester && !in.HasInvoiceFile {
		return false, GateMissingInvoice
	}

	// 2. Any payment activity needs a payment advice on file.
	if HasPaymentActivity(r) && !in.HasPaymentAdviceFile {
		return false, GateMissingPaymentAdvice
	}

	// 3. In-stock items must be staged: a store location and a positive
	// staged quantity.
	for _, it := range r.ActiveItems() {
		if it.InStock && (it.InStockQuantity <= 0 || it.StoreLocation == "") {
			return false, GateIncompleteStockData
		}
	}

	// 4. Delivery-sensitive approvals require full delivery of every
	// eligible row.
	if deliverySensitive(r, actingRole) && !AllFullyDelivered(r) {
		return false, GateDeliveryIncomplete
	}

	return true, GateNone
}

func deliverySensitive(r Request, actingRole Role) bool {
	if actingRole.IsDeliveryRole() {
		return true
	}
	if r.Type == TypePettyCash && r.State == StateRequesterDeliveryConfirm {
		return true
	}
	if r.Type == TypePurchaseOrder && actingRole == RoleRequester {
		for _, it := range r.ActiveItems() {
			if it.InStock {
				return true
			}
		}
	}
	return false
}
