package request

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestType distinguishes the two procurement request families.
type RequestType string

const (
	TypePurchaseOrder RequestType = "PURCHASE_ORDER"
	TypePettyCash     RequestType = "PETTY_CASH"
)

// IsValid checks the request type is known.
func (t RequestType) IsValid() bool {
	return t == TypePurchaseOrder || t == TypePettyCash
}

// State is a request lifecycle state.
type State string

const (
	StateSubmitted                State = "SUBMITTED"
	StateProcurementReview        State = "PENDING_PROCUREMENT_REVIEW"
	StateVesselManagerApproval    State = "PENDING_VESSEL_MANAGER_APPROVAL"
	StateFleetManagerApproval     State = "PENDING_FLEET_MANAGER_APPROVAL"
	StateProcurementMgrApproval   State = "PENDING_PROCUREMENT_MANAGER_APPROVAL"
	StateOperationsMgrApproval    State = "PENDING_OPERATIONS_MANAGER_APPROVAL"
	StateManagingDirectorApproval State = "PENDING_MANAGING_DIRECTOR_APPROVAL"
	StateAccountsApproval         State = "PENDING_ACCOUNTS_APPROVAL"
	StateBaseDelivery             State = "PENDING_BASE_DELIVERY"
	StateJettyDelivery            State = "PENDING_JETTY_DELIVERY"
	StateVesselDelivery           State = "PENDING_VESSEL_DELIVERY"
	StateRequesterDeliveryConfirm State = "PENDING_REQUESTER_DELIVERY_CONFIRMATION"
	StateFinalAccountsApproval    State = "PENDING_FINAL_ACCOUNTS_APPROVAL"
	StateCompleted                State = "COMPLETED"
	StateRejected                 State = "REJECTED"
	StateQueried                  State = "QUERIED"
)

// IsValid reports whether the state belongs to the defined state set.
func (s State) IsValid() bool {
	switch s {
	case StateSubmitted, StateProcurementReview, StateVesselManagerApproval,
		StateFleetManagerApproval, StateProcurementMgrApproval,
		StateOperationsMgrApproval, StateManagingDirectorApproval,
		StateAccountsApproval, StateBaseDelivery, StateJettyDelivery,
		StateVesselDelivery, StateRequesterDeliveryConfirm,
		StateFinalAccountsApproval, StateCompleted, StateRejected, StateQueried:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the state ends the pipeline. REJECTED is
// soft-terminal: the requester may resubmit.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateRejected
}

// IsDeliveryState reports whether the state is one of the delivery legs.
func (s State) IsDeliveryState() bool {
	switch s {
	case StateBaseDelivery, StateJettyDelivery, StateVesselDelivery, StateRequesterDeliveryConfirm:
		return true
	default:
		return false
	}
}

// Role identifies the acting party in a transition.
type Role string

const (
	RoleRequester          Role = "REQUESTER"
	RoleProcurementOfficer Role = "PROCUREMENT_OFFICER"
	RoleVesselManager      Role = "VESSEL_MANAGER"
	RoleFleetManager       Role = "FLEET_MANAGER"
	RoleProcurementManager Role = "PROCUREMENT_MANAGER"
	RoleOperationsManager  Role = "OPERATIONS_MANAGER"
	RoleManagingDirector   Role = "MANAGING_DIRECTOR"
	RoleEquipmentManager   Role = "EQUIPMENT_MANAGER"
	RoleAccounts           Role = "ACCOUNTS"
	RoleBaseOfficer        Role = "BASE_OFFICER"
	RoleJettyOfficer       Role = "JETTY_OFFICER"
	RoleVesselOfficer      Role = "VESSEL_OFFICER"
)

// IsDeliveryRole reports whether the role moves goods rather than paper.
func (r Role) IsDeliveryRole() bool {
	return r == RoleBaseOfficer || r == RoleJettyOfficer || r == RoleVesselOfficer
}

// LogisticsType classifies the delivery route.
type LogisticsType string

const (
	LogisticsLocal         LogisticsType = "LOCAL"
	LogisticsInternational LogisticsType = "INTERNATIONAL"
)

// PaymentStatus enumerates the settlement states of a line item.
type PaymentStatus string

const (
	PaymentNotPaid PaymentStatus = "NOT_PAID"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentPartial PaymentStatus = "PART_PAYMENT"
)

// IsValid checks the payment status is known.
func (p PaymentStatus) IsValid() bool {
	return p == PaymentNotPaid || p == PaymentPaid || p == PaymentPartial
}

// DeliveryStage names one hop of a multi-leg delivery. Stage quantities are
// informational; the final DeliveredQuantity is authoritative for gating.
type DeliveryStage string

const (
	StageBase   DeliveryStage = "BASE"
	StageJetty  DeliveryStage = "JETTY"
	StageVessel DeliveryStage = "VESSEL"
	StageFinal  DeliveryStage = "FINAL"
)

// VendorRef is a weak reference to a vendor: id plus cached display name.
type VendorRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is a line item. A Request exclusively owns its Items.
type Item struct {
	ID              uuid.UUID       `json:"id"`
	RequestID       uuid.UUID       `json:"request_id"`
	Description     string          `json:"description"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Currency        string          `json:"currency"`
	DiscountPercent int64           `json:"discount_percent"`
	VATApplied      bool            `json:"vat_applied"`
	Vendor          VendorRef       `json:"vendor"`

	InStock         bool   `json:"in_stock"`
	InStockQuantity int64  `json:"in_stock_quantity"`
	StoreLocation   string `json:"store_location"`

	LogisticsType    LogisticsType   `json:"logistics_type"`
	ShippingQuantity int64           `json:"shipping_quantity"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	ClearingFee      decimal.Decimal `json:"clearing_fee"`

	// Stage quantities track each delivery hop; DeliveredQuantity is the
	// authoritative cross-stage total.
	BaseDeliveredQty   int64 `json:"base_delivered_qty"`
	JettyDeliveredQty  int64 `json:"jetty_delivered_qty"`
	VesselDeliveredQty int64 `json:"vessel_delivered_qty"`
	DeliveredQuantity  int64 `json:"delivered_quantity"`

	PaymentStatus  PaymentStatus   `json:"payment_status"`
	PercentagePaid int64           `json:"percentage_paid"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceAmount  decimal.Decimal `json:"balance_amount"`

	LineTotal  decimal.Decimal `json:"line_total"`
	VATAmount  decimal.Decimal `json:"vat_amount"`
	TotalPrice decimal.Decimal `json:"total_price"`

	Removed       bool   `json:"removed"`
	RemovedReason string `json:"removed_reason,omitempty"`

	MovedFromRequestID *uuid.UUID `json:"moved_from_request_id,omitempty"`
	MovedToRequestID   *uuid.UUID `json:"moved_to_request_id,omitempty"`
}

// Active reports whether the item still counts toward its request: not
// tombstoned and not moved to another request.
func (i Item) Active() bool {
	return !i.Removed && i.MovedToRequestID == nil
}

// OutstandingQuantity is always derived, never stored as independent truth.
func (i Item) OutstandingQuantity() int64 {
	out := i.Quantity - i.DeliveredQuantity
	if out < 0 {
		return 0
	}
	return out
}

// HistoryEntry records one workflow action on a request.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	RequestID uuid.UUID `json:"request_id"`
	Actor     Role      `json:"actor"`
	Action    string    `json:"action"`
	FromState State     `json:"from_state"`
	ToState   State     `json:"to_state"`
	Comment   string    `json:"comment,omitempty"`
	At        time.Time `json:"at"`
}

// Request is the aggregate root moving through the approval pipeline.
type Request struct {
	ID                   uuid.UUID     `json:"id"`
	Number               string        `json:"number"`
	Type                 RequestType   `json:"type"`
	Tag                  string        `json:"tag,omitempty"`
	State                State         `json:"state"`
	RequestedBy          int64         `json:"requested_by"`
	DeliveryLocation     string        `json:"delivery_location"`
	LogisticsType        LogisticsType `json:"logistics_type"`
	NextDeliveryStations []string      `json:"next_delivery_stations,omitempty"`
	Items                []Item        `json:"items"`
	History              []HistoryEntry `json:"history,omitempty"`
	Version              int64         `json:"version"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// ActiveItems returns items that still count toward gating.
func (r Request) ActiveItems() []Item {
	items := make([]Item, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Active() {
			items = append(items, it)
		}
	}
	return items
}

// Item finds a line item by id.
func (r Request) Item(id uuid.UUID) (Item, bool) {
	for _, it := range r.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Tags with restricted transfer semantics.
const (
	TagShipping = "shipping"
	TagClearing = "clearing"
)

// SupportedCurrencies the engine accepts on line items.
var SupportedCurrencies = map[string]struct{}{
	"NGN": {}, "USD": {}, "GBP": {}, "EUR": {},
	"JPY": {}, "CNY": {}, "CAD": {}, "AUD": {},
}

// ValidCurrency reports whether code is a recognised currency.
func ValidCurrency(code string) bool {
	_, ok := SupportedCurrencies[code]
	return ok
}

var (
	// ErrValidation indicates bad input shape or range.
	ErrValidation = errors.New("request: invalid input")
	// ErrInvalidTransition occurs when a workflow rule is violated.
	ErrInvalidTransition = errors.New("request: invalid state transition")
	// ErrNotFound indicates the request or item does not resolve.
	ErrNotFound = errors.New("request: not found")
	// ErrSourceOrTargetNotFound indicates a transfer endpoint is missing.
	ErrSourceOrTargetNotFound = errors.New("request: source or target not found")
	// ErrCrossTagViolation indicates a transfer across restricted tags.
	ErrCrossTagViolation = errors.New("request: cross-tag transfer not allowed")
	// ErrUnsupportedCurrency indicates an unrecognised currency code.
	ErrUnsupportedCurrency = errors.New("request: unsupported currency")
	// ErrVersionConflict indicates a concurrent modification was detected.
	ErrVersionConflict = errors.New("request: version conflict")
	// ErrLocked indicates the per-request mutex could not be acquired.
	ErrLocked = errors.New("request: locked by another operation")
)
