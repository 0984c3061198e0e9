package request

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/seaboard-erp/seaboard-erp/internal/platform/httpx"
	"github.com/seaboard-erp/seaboard-erp/internal/shared"
)

// Handler exposes the engine over JSON/HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	comments *shared.CommentLog
	files    *shared.FileStore
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, comments *shared.CommentLog, files *shared.FileStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		comments: comments,
		files:    files,
		validate: validator.New(),
	}
}

// MountRoutes registers request routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/query", h.query)
	r.Post("/{id}/resubmit", h.resubmit)
	r.Post("/{id}/forward-delivery", h.forwardDelivery)
	r.Post("/{id}/attach-items", h.attachItems)
	r.Post("/{id}/items/{itemID}/delivery", h.recordDelivery)
	r.Post("/{id}/items/{itemID}/payment", h.applyPayment)
	r.Post("/{id}/items/{itemID}/pricing", h.updatePricing)
	r.Post("/{id}/items/{itemID}/remove", h.removeItem)
	r.Get("/{id}/comments", h.listComments)
	r.Post("/{id}/comments", h.appendComment)
	r.Get("/{id}/files", h.listFiles)
	r.Post("/{id}/files", h.addFile)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	filters := ListFilters{
		State: State(r.URL.Query().Get("state")),
		Type:  RequestType(r.URL.Query().Get("type")),
		Tag:   r.URL.Query().Get("tag"),
	}
	items, total, err := h.service.ListRequests(r.Context(), limit, offset, filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"requests": items,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var dto CreateRequestDTO
	if !h.decode(w, r, &dto) {
		return
	}
	input := CreateInput{
		Number:           dto.Number,
		Type:             RequestType(dto.Type),
		Tag:              dto.Tag,
		RequestedBy:      dto.RequestedBy,
		DeliveryLocation: dto.DeliveryLocation,
		LogisticsType:    LogisticsType(dto.LogisticsType),
	}
	for _, it := range dto.Items {
		input.Items = append(input.Items, ItemInput{
			Description:      it.Description,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			Currency:         it.Currency,
			DiscountPercent:  it.DiscountPercent,
			VATApplied:       it.VATApplied,
			Vendor:           VendorRef{ID: it.VendorID, Name: it.VendorName},
			InStock:          it.InStock,
			InStockQuantity:  it.InStockQuantity,
			StoreLocation:    it.StoreLocation,
			LogisticsType:    LogisticsType(it.LogisticsType),
			ShippingQuantity: it.ShippingQuantity,
			ShippingFee:      it.ShippingFee,
			ClearingFee:      it.ClearingFee,
		})
	}
	req, err := h.service.CreateRequest(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, req)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	req, err := h.service.LoadRequest(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto ActionDTO
	if !h.decode(w, r, &dto) {
		return
	}
	req, err := h.service.Approve(r.Context(), id, Role(dto.Role), dto.ActorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto CommentActionDTO
	if !h.decode(w, r, &dto) {
		return
	}
	req, err := h.service.Reject(r.Context(), id, Role(dto.Role), dto.ActorID, dto.Comment)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto CommentActionDTO
	if !h.decode(w, r, &dto) {
		return
	}
	req, err := h.service.Query(r.Context(), id, Role(dto.Role), dto.ActorID, dto.Comment)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) resubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto ActionDTO
	if !h.decode(w, r, &dto) {
		return
	}
	req, err := h.service.Resubmit(r.Context(), id, dto.ActorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) forwardDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto ForwardDeliveryDTO
	if !h.decode(w, r, &dto) {
		return
	}
	req, err := h.service.ForwardDelivery(r.Context(), id, Role(dto.Role), dto.ActorID, dto.Stations)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) attachItems(w http.ResponseWriter, r *http.Request) {
	targetID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto AttachItemsDTO
	if !h.decode(w, r, &dto) {
		return
	}
	sourceID, err := uuid.Parse(dto.SourceID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid source id")
		return
	}
	itemIDs := make([]uuid.UUID, 0, len(dto.ItemIDs))
	for _, raw := range dto.ItemIDs {
		itemID, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
			return
		}
		itemIDs = append(itemIDs, itemID)
	}
	result, err := h.service.AttachItems(r.Context(), AttachInput{
		SourceID:  sourceID,
		TargetID:  targetID,
		ItemIDs:   itemIDs,
		Initiator: TransferInitiator(dto.Initiator),
		ActorID:   dto.ActorID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) recordDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}
	var dto RecordDeliveryDTO
	if !h.decode(w, r, &dto) {
		return
	}
	item, outstanding, err := h.service.RecordDelivery(r.Context(), RecordDeliveryInput{
		RequestID:      id,
		ItemID:         itemID,
		Quantity:       dto.Quantity,
		Stage:          DeliveryStage(dto.Stage),
		ActingRole:     Role(dto.Role),
		ActorID:        dto.ActorID,
		IdempotencyKey: dto.IdempotencyKey,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"item": item, "outstanding": outstanding})
}

func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}
	var dto ApplyPaymentDTO
	if !h.decode(w, r, &dto) {
		return
	}
	item, err := h.service.ApplyPayment(r.Context(), ApplyPaymentInput{
		RequestID:      id,
		ItemID:         itemID,
		Status:         PaymentStatus(dto.Status),
		Percentage:     dto.Percentage,
		ActingRole:     Role(dto.Role),
		ActorID:        dto.ActorID,
		IdempotencyKey: dto.IdempotencyKey,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) updatePricing(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}
	var dto PricingDTO
	if !h.decode(w, r, &dto) {
		return
	}
	item, err := h.service.UpdateItemPricing(r.Context(), PricingInput{
		RequestID:        id,
		ItemID:           itemID,
		UnitPrice:        dto.UnitPrice,
		Currency:         dto.Currency,
		DiscountPercent:  dto.DiscountPercent,
		VATApplied:       dto.VATApplied,
		Vendor:           VendorRef{ID: dto.VendorID, Name: dto.VendorName},
		InStock:          dto.InStock,
		InStockQuantity:  dto.InStockQuantity,
		StoreLocation:    dto.StoreLocation,
		LogisticsType:    LogisticsType(dto.LogisticsType),
		ShippingQuantity: dto.ShippingQuantity,
		ShippingFee:      dto.ShippingFee,
		ClearingFee:      dto.ClearingFee,
		ActingRole:       Role(dto.Role),
		ActorID:          dto.ActorID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}
	var dto RemoveItemDTO
	if !h.decode(w, r, &dto) {
		return
	}
	item, err := h.service.RemoveItem(r.Context(), id, itemID, dto.Reason, Role(dto.Role), dto.ActorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	comments, err := h.comments.List(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (h *Handler) appendComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto AppendCommentDTO
	if !h.decode(w, r, &dto) {
		return
	}
	if err := h.comments.Append(r.Context(), shared.Comment{
		RequestID: id,
		AuthorID:  dto.AuthorID,
		Role:      dto.Role,
		Body:      dto.Body,
	}); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	category := shared.FileCategory(r.URL.Query().Get("category"))
	files, err := h.files.List(r.Context(), id, category)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"files": files})
}

func (h *Handler) addFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto AddFileDTO
	if !h.decode(w, r, &dto) {
		return
	}
	if err := h.files.Add(r.Context(), shared.FileRef{
		RequestID:  id,
		Category:   shared.FileCategory(dto.Category),
		Name:       dto.Name,
		BlobKey:    dto.BlobKey,
		UploadedBy: dto.UploadedBy,
	}); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var gateErr *GateError
	switch {
	case errors.As(err, &gateErr):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Approval Blocked", string(gateErr.Reason))
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSourceOrTargetNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnsupportedCurrency):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrCrossTagViolation):
		httpx.Problem(w, http.StatusConflict, "Workflow Violation", err.Error())
	case errors.Is(err, ErrVersionConflict), errors.Is(err, ErrLocked):
		httpx.Problem(w, http.StatusConflict, "Concurrent Modification", err.Error())
	default:
		h.logger.Error("request handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
