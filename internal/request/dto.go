package request

import "github.com/shopspring/decimal"

// CreateRequestDTO is the JSON payload for POST /requests.
type CreateRequestDTO struct {
	Number           string          `json:"number,omitempty" validate:"omitempty,max=50"`
	Type             string          `json:"type" validate:"required,oneof=PURCHASE_ORDER PETTY_CASH"`
	Tag              string          `json:"tag,omitempty" validate:"omitempty,max=50"`
	RequestedBy      int64           `json:"requested_by" validate:"required,gt=0"`
	DeliveryLocation string          `json:"delivery_location,omitempty" validate:"omitempty,max=200"`
	LogisticsType    string          `json:"logistics_type,omitempty" validate:"omitempty,oneof=LOCAL INTERNATIONAL"`
	Items            []CreateItemDTO `json:"items" validate:"required,min=1,dive"`
}

// CreateItemDTO is one requested line in the create payload.
type CreateItemDTO struct {
	Description      string          `json:"description" validate:"required,max=500"`
	Quantity         int64           `json:"quantity" validate:"gte=0"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Currency         string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	DiscountPercent  int64           `json:"discount_percent" validate:"gte=0,lte=100"`
	VATApplied       bool            `json:"vat_applied"`
	VendorID         int64           `json:"vendor_id,omitempty"`
	VendorName       string          `json:"vendor_name,omitempty" validate:"omitempty,max=200"`
	InStock          bool            `json:"in_stock"`
	InStockQuantity  int64           `json:"in_stock_quantity" validate:"gte=0"`
	StoreLocation    string          `json:"store_location,omitempty" validate:"omitempty,max=200"`
	LogisticsType    string          `json:"logistics_type,omitempty" validate:"omitempty,oneof=LOCAL INTERNATIONAL"`
	ShippingQuantity int64           `json:"shipping_quantity" validate:"gte=0"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	ClearingFee      decimal.Decimal `json:"clearing_fee"`
}

// ActionDTO is the shared payload for approve/resubmit actions.
type ActionDTO struct {
	Role    string `json:"role" validate:"required"`
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
}

// CommentActionDTO is the payload for reject and query actions.
type CommentActionDTO struct {
	Role    string `json:"role" validate:"required"`
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
	Comment string `json:"comment" validate:"required,min=3,max=1000"`
}

// ForwardDeliveryDTO carries the onward station list.
type ForwardDeliveryDTO struct {
	Role     string   `json:"role" validate:"required"`
	ActorID  int64    `json:"actor_id" validate:"required,gt=0"`
	Stations []string `json:"stations" validate:"required,min=1,dive,required"`
}

// RecordDeliveryDTO updates delivered quantity on a line.
type RecordDeliveryDTO struct {
	Quantity       int64  `json:"quantity"`
	Stage          string `json:"stage,omitempty" validate:"omitempty,oneof=BASE JETTY VESSEL FINAL"`
	Role           string `json:"role" validate:"required"`
	ActorID        int64  `json:"actor_id" validate:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=100"`
}

// ApplyPaymentDTO updates settlement on a line.
type ApplyPaymentDTO struct {
	Status         string `json:"status" validate:"required,oneof=NOT_PAID PAID PART_PAYMENT"`
	Percentage     int64  `json:"percentage"`
	Role           string `json:"role" validate:"required"`
	ActorID        int64  `json:"actor_id" validate:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=100"`
}

// PricingDTO carries procurement's per-line edits.
type PricingDTO struct {
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Currency         string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	DiscountPercent  int64           `json:"discount_percent" validate:"gte=0,lte=100"`
	VATApplied       bool            `json:"vat_applied"`
	VendorID         int64           `json:"vendor_id,omitempty"`
	VendorName       string          `json:"vendor_name,omitempty" validate:"omitempty,max=200"`
	InStock          bool            `json:"in_stock"`
	InStockQuantity  int64           `json:"in_stock_quantity" validate:"gte=0"`
	StoreLocation    string          `json:"store_location,omitempty" validate:"omitempty,max=200"`
	LogisticsType    string          `json:"logistics_type,omitempty" validate:"omitempty,oneof=LOCAL INTERNATIONAL"`
	ShippingQuantity int64           `json:"shipping_quantity" validate:"gte=0"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	ClearingFee      decimal.Decimal `json:"clearing_fee"`
	Role             string          `json:"role" validate:"required"`
	ActorID          int64           `json:"actor_id" validate:"required,gt=0"`
}

// RemoveItemDTO tombstones a line.
type RemoveItemDTO struct {
	Reason  string `json:"reason" validate:"required,min=3,max=500"`
	Role    string `json:"role" validate:"required"`
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
}

// AttachItemsDTO merges items from a source request into this one.
type AttachItemsDTO struct {
	SourceID  string   `json:"source_id" validate:"required,uuid"`
	ItemIDs   []string `json:"item_ids,omitempty" validate:"omitempty,dive,uuid"`
	Initiator string   `json:"initiator" validate:"required,oneof=REQUESTER ACCOUNTS"`
	ActorID   int64    `json:"actor_id" validate:"required,gt=0"`
}

// AppendCommentDTO posts to the request's comment log.
type AppendCommentDTO struct {
	AuthorID int64  `json:"author_id" validate:"required,gt=0"`
	Role     string `json:"role" validate:"required"`
	Body     string `json:"body" validate:"required,min=1,max=2000"`
}

// AddFileDTO registers an attachment reference.
type AddFileDTO struct {
	Category   string `json:"category" validate:"required,oneof=INVOICE PAYMENT_ADVICE DELIVERY_NOTE OTHER"`
	Name       string `json:"name" validate:"required,max=300"`
	BlobKey    string `json:"blob_key" validate:"required,max=500"`
	UploadedBy int64  `json:"uploaded_by" validate:"required,gt=0"`
}
