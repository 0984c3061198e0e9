package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/seaboard-erp/seaboard-erp/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRequest(ctx context.Context, id uuid.UUID) (Request, error)
	ListRequests(ctx context.Context, limit, offset int, filters ListFilters) ([]Request, int, error)
}

// ListFilters narrows request listings.
type ListFilters struct {
	State State
	Type  RequestType
	Tag   string
}

// AttachmentPort is the narrow contract to the external file store the
// approval gate needs.
type AttachmentPort interface {
	HasAny(ctx context.Context, requestID uuid.UUID, category shared.FileCategory) (bool, error)
}

// CommentPort appends to the external comment log.
type CommentPort interface {
	Append(ctx context.Context, comment shared.Comment) error
}

// AuditPort records workflow actions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// LockerPort serialises operations per request.
type LockerPort interface {
	Acquire(ctx context.Context, requestID uuid.UUID) (func(), error)
}

// IdempotencyPort records processed delivery/payment keys so retried
// webhooks become no-ops. Delete releases a key whose operation failed
// after the key was recorded.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, operation string) error
	Delete(ctx context.Context, key string) error
}

// GateError carries the reason an approval was blocked. Gate failures are
// recoverable: the caller supplies the missing data and retries.
type GateError struct {
	Reason GateReason
}

func (e *GateError) Error() string {
	return "request: approval blocked: " + string(e.Reason)
}

// Service orchestrates the request lifecycle. It is stateless: each
// operation loads the aggregate, computes under the per-request lock and
// persists in one transaction.
type Service struct {
	repo        RepositoryPort
	locker      LockerPort
	files       AttachmentPort
	comments    CommentPort
	audit       AuditPort
	idempotency IdempotencyPort
	vatRate     decimal.Decimal
	logger      *slog.Logger
}

// NewService constructs the workflow service. vatRate is the configured VAT
// fraction (e.g. 0.075); zero falls back to DefaultVATRate.
func NewService(repo RepositoryPort, locker LockerPort, files AttachmentPort, comments CommentPort, audit AuditPort, idem IdempotencyPort, vatRate decimal.Decimal, logger *slog.Logger) *Service {
	if vatRate.IsZero() {
		vatRate = DefaultVATRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, locker: locker, files: files, comments: comments, audit: audit, idempotency: idem, vatRate: vatRate, logger: logger}
}

// CreateInput describes a new request submission.
type CreateInput struct {
	Number           string
	Type             RequestType
	Tag              string
	RequestedBy      int64
	DeliveryLocation string
	LogisticsType    LogisticsType
	Items            []ItemInput
}

// ItemInput describes one requested line.
type ItemInput struct {
	Description      string
	Quantity         int64
	UnitPrice        decimal.Decimal
	Currency         string
	DiscountPercent  int64
	VATApplied       bool
	Vendor           VendorRef
	InStock          bool
	InStockQuantity  int64
	StoreLocation    string
	LogisticsType    LogisticsType
	ShippingQuantity int64
	ShippingFee      decimal.Decimal
	ClearingFee      decimal.Decimal
}

// CreateRequest persists a new aggregate in SUBMITTED state.
func (s *Service) CreateRequest(ctx context.Context, input CreateInput) (Request, error) {
	if !input.Type.IsValid() || len(input.Items) == 0 {
		return Request{}, ErrValidation
	}
	if input.Number == "" {
		input.Number = generateNumber("REQ")
	}
	if input.LogisticsType == "" {
		input.LogisticsType = LogisticsLocal
	}
	now := time.Now()
	req := Request{
		ID:               uuid.New(),
		Number:           input.Number,
		Type:             input.Type,
		Tag:              input.Tag,
		State:            StateSubmitted,
		RequestedBy:      input.RequestedBy,
		DeliveryLocation: input.DeliveryLocation,
		LogisticsType:    input.LogisticsType,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, in := range input.Items {
		if in.Quantity < 0 {
			return Request{}, ErrValidation
		}
		if in.Currency != "" && !ValidCurrency(in.Currency) {
			return Request{}, ErrUnsupportedCurrency
		}
		item := Item{
			ID:               uuid.New(),
			RequestID:        req.ID,
			Description:      in.Description,
			Quantity:         in.Quantity,
			UnitPrice:        in.UnitPrice,
			Currency:         in.Currency,
			DiscountPercent:  in.DiscountPercent,
			VATApplied:       in.VATApplied,
			Vendor:           in.Vendor,
			InStock:          in.InStock,
			InStockQuantity:  in.InStockQuantity,
			StoreLocation:    in.StoreLocation,
			LogisticsType:    in.LogisticsType,
			ShippingQuantity: in.ShippingQuantity,
			ShippingFee:      in.ShippingFee,
			ClearingFee:      in.ClearingFee,
			PaymentStatus:    PaymentNotPaid,
		}
		item = RecalculateLine(item, s.vatRate)
		item.BalanceAmount = item.LineTotal
		if err := ValidateItemInvariants(item); err != nil {
			return Request{}, err
		}
		req.Items = append(req.Items, item)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertRequest(ctx, req); err != nil {
			return err
		}
		for _, item := range req.Items {
			if err := tx.InsertItem(ctx, item); err != nil {
				return err
			}
		}
		return tx.AppendHistory(ctx, HistoryEntry{
			RequestID: req.ID,
			Actor:     RoleRequester,
			Action:    "SUBMIT",
			FromState: "",
			ToState:   StateSubmitted,
			At:        now,
		})
	})
	if err != nil {
		return Request{}, err
	}
	s.recordAudit(ctx, input.RequestedBy, RoleRequester, "REQUEST_CREATE", req.ID, map[string]any{"number": req.Number})
	return s.repo.GetRequest(ctx, req.ID)
}

// LoadRequest fetches the aggregate.
func (s *Service) LoadRequest(ctx context.Context, id uuid.UUID) (Request, error) {
	return s.repo.GetRequest(ctx, id)
}

// ListRequests pages through requests.
func (s *Service) ListRequests(ctx context.Context, limit, offset int, filters ListFilters) ([]Request, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListRequests(ctx, limit, offset, filters)
}

// Approve runs the approval gate for the acting role and, when it passes,
// advances the request to its successor state. Gate failures surface as
// *GateError; authorisation failures as ErrInvalidTransition. The state is
// never partially applied.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actingRole Role, actorID int64) (Request, error) {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return Request{}, err
	}
	defer release()

	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	next, err := Advance(req, actingRole)
	if err != nil {
		return Request{}, err
	}
	gateIn, err := s.gateInput(ctx, req)
	if err != nil {
		return Request{}, err
	}
	if ok, reason := CanApprove(req, actingRole, gateIn); !ok {
		return Request{}, &GateError{Reason: reason}
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateRequestState(ctx, id, next, req.NextDeliveryStations, req.Version); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, HistoryEntry{
			RequestID: id,
			Actor:     actingRole,
			Action:    "APPROVE",
			FromState: req.State,
			ToState:   next,
			At:        now,
		})
	})
	if err != nil {
		return Request{}, err
	}
	s.recordAudit(ctx, actorID, actingRole, "REQUEST_APPROVE", id, map[string]any{"from": string(req.State), "to": string(next)})
	return s.repo.GetRequest(ctx, id)
}

// Reject moves the request to REJECTED. Only the manager allow-list may
// reject; the comment is mandatory. Repeating a rejection with the same
// comment is a no-op.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actingRole Role, actorID int64, comment string) (Request, error) {
	if err := ValidateComment(comment); err != nil {
		return Request{}, err
	}
	if !CanReject(actingRole) {
		return Request{}, ErrInvalidTransition
	}
	release, err := s.acquire(ctx, id)
	if err != nil {
		return Request{}, err
	}
	defer release()

	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.State == StateRejected {
		if last, ok := lastAction(req, "REJECT"); ok && last.Comment == comment {
			return req, nil
		}
		return Request{}, ErrInvalidTransition
	}
	if req.State == StateCompleted {
		return Request{}, ErrInvalidTransition
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateRequestState(ctx, id, StateRejected, req.NextDeliveryStations, req.Version); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, HistoryEntry{
			RequestID: id,
			Actor:     actingRole,
			Action:    "REJECT",
			FromState: req.State,
			ToState:   StateRejected,
			Comment:   comment,
			At:        now,
		})
	})
	if err != nil {
		return Request{}, err
	}
	s.appendComment(ctx, id, actorID, actingRole, comment)
	s.recordAudit(ctx, actorID, actingRole, "REQUEST_REJECT", id, map[string]any{"from": string(req.State)})
	return s.repo.GetRequest(ctx, id)
}

// Query returns the request to the requester for correction. Any approving
// role may query; the gate is not consulted.
func (s *Service) Query(ctx context.Context, id uuid.UUID, actingRole Role, actorID int64, comment string) (Request, error) {
	if err := ValidateComment(comment); err != nil {
		return Request{}, err
	}
	release, err := s.acquire(ctx, id)
	if err != nil {
		return Request{}, err
	}
	defer release()

	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !CanQuery(req, actingRole) {
		return Request{}, ErrInvalidTransition
	}
	if req.State.IsTerminal() || req.State == StateQueried {
		return Request{}, ErrInvalidTransition
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateRequestState(ctx, id, StateQueried, req.NextDeliveryStations, req.Version); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, HistoryEntry{
			RequestID: id,
			Actor:     actingRole,
			Action:    "QUERY",
			FromState: req.State,
			ToState:   StateQueried,
			Comment:   comment,
			At:        now,
		})
	})
	if err != nil {
		return Request{}, err
	}
	s.appendComment(ctx, id, actorID, actingRole, comment)
	s.recordAudit(ctx, actorID, actingRole, "REQUEST_QUERY", id, map[string]any{"from": string(req.State)})
	return s.repo.GetRequest(ctx, id)
}

// Resubmit re-enters SUBMITTED from REJECTED or QUERIED. REJECTED is
// soft-terminal for exactly this reason.
func (s *Service) Resubmit(ctx context.Context, id uuid.UUID, actorID int64) (Request, error) {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return Request{}, err
	}
	defer release()

	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.State != StateRejected && req.State != StateQueried {
		return Request{}, ErrInvalidTransition
	}
	if len(req.ActiveItems()) == 0 {
		return Request{}, ErrValidation
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateRequestState(ctx, id, StateSubmitted, req.NextDeliveryStations, req.Version); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, HistoryEntry{
			RequestID: id,
			Actor:     RoleRequester,
			Action:    "RESUBMIT",
			FromState: req.State,
			ToState:   StateSubmitted,
			At:        now,
		})
	})
	if err != nil {
		return Request{}, err
	}
	s.recordAudit(ctx, actorID, RoleRequester, "REQUEST_RESUBMIT", id, nil)
	return s.repo.GetRequest(ctx, id)
}

// ForwardDelivery records the chosen onward stations and re-runs approve
// semantics for the current delivery leg.
func (s *Service) ForwardDelivery(ctx context.Context, id uuid.UUID, actingRole Role, actorID int64, stations []string) (Request, error) {
	if len(stations) == 0 {
		return Request{}, ErrValidation
	}
	release, err := s.acquire(ctx, id)
	if err != nil {
		return Request{}, err
	}
	defer release()

	req, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !req.State.IsDeliveryState() {
		return Request{}, ErrInvalidTransition
	}
	next, err := Advance(req, actingRole)
	if err != nil {
		return Request{}, err
	}
	gateIn, err := s.gateInput(ctx, req)
	if err != nil {
		return Request{}, err
	}
	if ok, reason := CanApprove(req, actingRole, gateIn); !ok {
		return Request{}, &GateError{Reason: reason}
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateRequestState(ctx, id, next, stations, req.Version); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, HistoryEntry{
			RequestID: id,
			Actor:     actingRole,
			Action:    "FORWARD_DELIVERY",
			FromState: req.State,
			ToState:   next,
			At:        now,
		})
	})
	if err != nil {
		return Request{}, err
	}
	s.recordAudit(ctx, actorID, actingRole, "REQUEST_FORWARD_DELIVERY", id, map[string]any{"stations": stations})
	return s.repo.GetRequest(ctx, id)
}

// RecordDeliveryInput identifies the line and quantity being delivered.
type RecordDeliveryInput struct {
	RequestID      uuid.UUID
	ItemID         uuid.UUID
	Quantity       int64
	Stage          DeliveryStage
	ActingRole     Role
	ActorID        int64
	IdempotencyKey string
}

// RecordDelivery clamps the delivered quantity into range, stores it and
// returns the updated item with its derived outstanding quantity.
func (s *Service) RecordDelivery(ctx context.Context, input RecordDeliveryInput) (Item, int64, error) {
	release, err := s.acquire(ctx, input.RequestID)
	if err != nil {
		return Item{}, 0, err
	}
	defer release()

	req, err := s.repo.GetRequest(ctx, input.RequestID)
	if err != nil {
		return Item{}, 0, err
	}
	item, ok := req.Item(input.ItemID)
	if !ok || item.Removed {
		return Item{}, 0, ErrValidation
	}
	keyRecorded := false
	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "request.delivery"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return item, item.OutstandingQuantity(), nil
			}
			return Item{}, 0, err
		}
		keyRecorded = true
	}

	var outstanding int64
	if input.Stage == "" || input.Stage == StageFinal {
		item, outstanding = ApplyDelivery(item, input.Quantity)
	} else {
		item, outstanding, err = ApplyStageDelivery(item, input.Stage, input.Quantity)
		if err != nil {
			if keyRecorded {
				s.releaseIdempotencyKey(ctx, input.IdempotencyKey)
			}
			return Item{}, 0, err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}
		return tx.TouchRequest(ctx, req.ID, req.Version)
	})
	if err != nil {
		if keyRecorded {
			s.releaseIdempotencyKey(ctx, input.IdempotencyKey)
		}
		return Item{}, 0, err
	}
	s.recordAudit(ctx, input.ActorID, input.ActingRole, "ITEM_DELIVERY", req.ID, map[string]any{
		"item":        item.ID.String(),
		"stage":       string(input.Stage),
		"delivered":   item.DeliveredQuantity,
		"outstanding": outstanding,
	})
	return item, outstanding, nil
}

// ApplyPaymentInput identifies the line and settlement change.
type ApplyPaymentInput struct {
	RequestID      uuid.UUID
	ItemID         uuid.UUID
	Status         PaymentStatus
	Percentage     int64
	ActingRole     Role
	ActorID        int64
	IdempotencyKey string
}

// ApplyPayment derives paid/balance amounts for one line item.
func (s *Service) ApplyPayment(ctx context.Context, input ApplyPaymentInput) (Item, error) {
	release, err := s.acquire(ctx, input.RequestID)
	if err != nil {
		return Item{}, err
	}
	defer release()

	req, err := s.repo.GetRequest(ctx, input.RequestID)
	if err != nil {
		return Item{}, err
	}
	item, ok := req.Item(input.ItemID)
	if !ok || item.Removed {
		return Item{}, ErrValidation
	}
	keyRecorded := false
	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "request.payment"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return item, nil
			}
			return Item{}, err
		}
		keyRecorded = true
	}

	item, err = ApplyPaymentStatus(item, input.Status, input.Percentage)
	if err != nil {
		if keyRecorded {
			s.releaseIdempotencyKey(ctx, input.IdempotencyKey)
		}
		return Item{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}
		return tx.TouchRequest(ctx, req.ID, req.Version)
	})
	if err != nil {
		if keyRecorded {
			s.releaseIdempotencyKey(ctx, input.IdempotencyKey)
		}
		return Item{}, err
	}
	s.recordAudit(ctx, input.ActorID, input.ActingRole, "ITEM_PAYMENT", req.ID, map[string]any{
		"item":       item.ID.String(),
		"status":     string(item.PaymentStatus),
		"percentage": item.PercentagePaid,
	})
	return item, nil
}

// PricingInput carries the fields procurement may set on a line.
type PricingInput struct {
	RequestID        uuid.UUID
	ItemID           uuid.UUID
	UnitPrice        decimal.Decimal
	Currency         string
	DiscountPercent  int64
	VATApplied       bool
	Vendor           VendorRef
	InStock          bool
	InStockQuantity  int64
	StoreLocation    string
	LogisticsType    LogisticsType
	ShippingQuantity int64
	ShippingFee      decimal.Decimal
	ClearingFee      decimal.Decimal
	ActingRole       Role
	ActorID          int64
}

// UpdateItemPricing applies procurement's pricing, vendor and logistics
// changes and recalculates the line totals.
func (s *Service) UpdateItemPricing(ctx context.Context, input PricingInput) (Item, error) {
	if input.Currency != "" && !ValidCurrency(input.Currency) {
		return Item{}, ErrUnsupportedCurrency
	}
	if input.DiscountPercent < 0 || input.DiscountPercent > 100 {
		return Item{}, ErrValidation
	}
	release, err := s.acquire(ctx, input.RequestID)
	if err != nil {
		return Item{}, err
	}
	defer release()

	req, err := s.repo.GetRequest(ctx, input.RequestID)
	if err != nil {
		return Item{}, err
	}
	item, ok := req.Item(input.ItemID)
	if !ok || item.Removed {
		return Item{}, ErrValidation
	}

	item.UnitPrice = input.UnitPrice
	item.Currency = input.Currency
	item.DiscountPercent = input.DiscountPercent
	item.VATApplied = input.VATApplied
	item.Vendor = input.Vendor
	item.InStock = input.InStock
	item.InStockQuantity = input.InStockQuantity
	item.StoreLocation = input.StoreLocation
	item.LogisticsType = input.LogisticsType
	item.ShippingQuantity = input.ShippingQuantity
	item.ShippingFee = input.ShippingFee
	item.ClearingFee = input.ClearingFee
	item = RecalculateLine(item, s.vatRate)

	// Totals changed, so paid/balance must be re-derived from the same
	// settlement status.
	item, err = ApplyPaymentStatus(item, item.PaymentStatus, item.PercentagePaid)
	if err != nil {
		return Item{}, err
	}
	if err := ValidateItemInvariants(item); err != nil {
		return Item{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}
		return tx.TouchRequest(ctx, req.ID, req.Version)
	})
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, input.ActorID, input.ActingRole, "ITEM_PRICING", req.ID, map[string]any{"item": item.ID.String()})
	return item, nil
}

// RemoveItem tombstones a line with a mandatory reason. The row survives
// for audit but stops counting toward gating and transfer.
func (s *Service) RemoveItem(ctx context.Context, requestID, itemID uuid.UUID, reason string, actingRole Role, actorID int64) (Item, error) {
	if reason == "" {
		return Item{}, ErrValidation
	}
	release, err := s.acquire(ctx, requestID)
	if err != nil {
		return Item{}, err
	}
	defer release()

	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return Item{}, err
	}
	item, ok := req.Item(itemID)
	if !ok || item.Removed {
		return Item{}, ErrValidation
	}
	item.Removed = true
	item.RemovedReason = reason

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}
		return tx.TouchRequest(ctx, req.ID, req.Version)
	})
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, actorID, actingRole, "ITEM_REMOVE", req.ID, map[string]any{"item": itemID.String(), "reason": reason})
	return item, nil
}

// AttachInput describes a cross-request item transfer.
type AttachInput struct {
	SourceID  uuid.UUID
	TargetID  uuid.UUID
	ItemIDs   []uuid.UUID
	Initiator TransferInitiator
	ActorID   int64
}

// AttachItems moves the selected items (or all active ones when none are
// named) from source to target in one transaction. Either every selected
// item transfers or none do.
func (s *Service) AttachItems(ctx context.Context, input AttachInput) (TransferResult, error) {
	if input.SourceID == input.TargetID {
		return TransferResult{}, ErrValidation
	}
	// Lock in a fixed order so two opposite transfers cannot deadlock.
	first, second := input.SourceID, input.TargetID
	if second.String() < first.String() {
		first, second = second, first
	}
	releaseFirst, err := s.acquire(ctx, first)
	if err != nil {
		return TransferResult{}, err
	}
	defer releaseFirst()
	releaseSecond, err := s.acquire(ctx, second)
	if err != nil {
		return TransferResult{}, err
	}
	defer releaseSecond()

	source, err := s.repo.GetRequest(ctx, input.SourceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TransferResult{}, ErrSourceOrTargetNotFound
		}
		return TransferResult{}, err
	}
	target, err := s.repo.GetRequest(ctx, input.TargetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TransferResult{}, ErrSourceOrTargetNotFound
		}
		return TransferResult{}, err
	}

	moves, err := PlanTransfer(source, target, input.ItemIDs, input.Initiator)
	if err != nil {
		return TransferResult{}, err
	}

	now := time.Now()
	result := TransferResult{SourceID: source.ID, TargetID: target.ID}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, move := range moves {
			if err := tx.MarkItemMoved(ctx, move.SourceItemID, target.ID); err != nil {
				return err
			}
			if err := tx.InsertItem(ctx, move.Copy); err != nil {
				return err
			}
			result.ItemIDs = append(result.ItemIDs, move.Copy.ID)
		}
		if err := tx.TouchRequest(ctx, source.ID, source.Version); err != nil {
			return err
		}
		if err := tx.TouchRequest(ctx, target.ID, target.Version); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, HistoryEntry{
			RequestID: source.ID,
			Actor:     Role(input.Initiator),
			Action:    "ITEMS_MOVED_OUT",
			FromState: source.State,
			ToState:   source.State,
			Comment:   fmt.Sprintf("%d item(s) moved to %s", len(moves), target.Number),
			At:        now,
		}); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, HistoryEntry{
			RequestID: target.ID,
			Actor:     Role(input.Initiator),
			Action:    "ITEMS_MOVED_IN",
			FromState: target.State,
			ToState:   target.State,
			Comment:   fmt.Sprintf("%d item(s) moved from %s", len(moves), source.Number),
			At:        now,
		})
	})
	if err != nil {
		return TransferResult{}, err
	}
	s.recordAudit(ctx, input.ActorID, Role(input.Initiator), "ITEMS_TRANSFER", source.ID, map[string]any{
		"target": target.ID.String(),
		"count":  len(moves),
	})
	return result, nil
}

func (s *Service) acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			return nil, ErrLocked
		}
		return nil, err
	}
	return release, nil
}

func (s *Service) gateInput(ctx context.Context, req Request) (GateInput, error) {
	var in GateInput
	if s.files == nil {
		return in, nil
	}
	hasInvoice, err := s.files.HasAny(ctx, req.ID, shared.FileInvoice)
	if err != nil {
		return in, err
	}
	hasAdvice, err := s.files.HasAny(ctx, req.ID, shared.FilePaymentAdvice)
	if err != nil {
		return in, err
	}
	in.HasInvoiceFile = hasInvoice
	in.HasPaymentAdviceFile = hasAdvice
	return in, nil
}

func (s *Service) appendComment(ctx context.Context, requestID uuid.UUID, actorID int64, role Role, body string) {
	if s.comments == nil {
		return
	}
	if err := s.comments.Append(ctx, shared.Comment{RequestID: requestID, AuthorID: actorID, Role: string(role), Body: body}); err != nil {
		s.logger.Warn("append comment", slog.Any("error", err))
	}
}

// releaseIdempotencyKey drops a recorded key after its operation failed so
// the caller's retry is not mistaken for a replay.
func (s *Service) releaseIdempotencyKey(ctx context.Context, key string) {
	if err := s.idempotency.Delete(ctx, key); err != nil {
		s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, role Role, action string, requestID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Role: string(role), Action: action, Entity: "request", EntityID: requestID.String(), Meta: meta})
}

func lastAction(r Request, action string) (HistoryEntry, bool) {
	for i := len(r.History) - 1; i >= 0; i-- {
		if r.History[i].Action == action {
			return r.History[i], true
		}
	}
	return HistoryEntry{}, false
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
