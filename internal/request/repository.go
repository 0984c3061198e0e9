package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TxRepository exposes the transactional writes the service composes.
type TxRepository interface {
	InsertRequest(ctx context.Context, r Request) error
	InsertItem(ctx context.Context, item Item) error
	UpdateRequestState(ctx context.Context, id uuid.UUID, state State, stations []string, expectedVersion int64) error
	TouchRequest(ctx context.Context, id uuid.UUID, expectedVersion int64) error
	UpdateItem(ctx context.Context, item Item) error
	MarkItemMoved(ctx context.Context, itemID, targetRequestID uuid.UUID) error
	AppendHistory(ctx context.Context, entry HistoryEntry) error
}

// Repository provides PostgreSQL backed persistence for request aggregates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const requestColumns = `id, number, type, tag, state, requested_by, delivery_location, logistics_type, next_stations, version, created_at, updated_at`

// GetRequest loads the aggregate: header, items and history.
func (r *Repository) GetRequest(ctx context.Context, id uuid.UUID) (Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id=$1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	items, err := r.loadItems(ctx, id)
	if err != nil {
		return Request{}, err
	}
	req.Items = items
	history, err := r.loadHistory(ctx, id)
	if err != nil {
		return Request{}, err
	}
	req.History = history
	return req, nil
}

// ListRequests pages requests with optional state/type/tag filters.
func (r *Repository) ListRequests(ctx context.Context, limit, offset int, filters ListFilters) ([]Request, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	idx := 1
	if filters.State != "" {
		where += fmt.Sprintf(` AND state=$%d`, idx)
		args = append(args, string(filters.State))
		idx++
	}
	if filters.Type != "" {
		where += fmt.Sprintf(` AND type=$%d`, idx)
		args = append(args, string(filters.Type))
		idx++
	}
	if filters.Tag != "" {
		where += fmt.Sprintf(` AND tag=$%d`, idx)
		args = append(args, filters.Tag)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + requestColumns + ` FROM requests` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

const itemColumns = `id, request_id, description, quantity, unit_price, currency, discount_percent, vat_applied,
vendor_id, vendor_name, in_stock, in_stock_quantity, store_location, logistics_type,
shipping_quantity, shipping_fee, clearing_fee,
base_delivered_qty, jetty_delivered_qty, vessel_delivered_qty, delivered_quantity,
payment_status, percentage_paid, paid_amount, balance_amount,
line_total, vat_amount, total_price,
removed, removed_reason, moved_from_request_id, moved_to_request_id`

func (r *Repository) loadItems(ctx context.Context, requestID uuid.UUID) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM request_items WHERE request_id=$1 ORDER BY created_at ASC, id ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) loadHistory(ctx context.Context, requestID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, request_id, actor, action, from_state, to_state, comment, at
FROM request_history WHERE request_id=$1 ORDER BY at ASC, id ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var actor, fromState, toState string
		if err := rows.Scan(&e.ID, &e.RequestID, &actor, &e.Action, &fromState, &toState, &e.Comment, &e.At); err != nil {
			return nil, err
		}
		e.Actor = Role(actor)
		e.FromState = State(fromState)
		e.ToState = State(toState)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (t *txRepo) InsertRequest(ctx context.Context, r Request) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO requests (id, number, type, tag, state, requested_by, delivery_location, logistics_type, next_stations, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.Number, string(r.Type), r.Tag, string(r.State), r.RequestedBy,
		r.DeliveryLocation, string(r.LogisticsType), r.NextDeliveryStations, r.Version, r.CreatedAt, r.UpdatedAt)
	return err
}

func (t *txRepo) InsertItem(ctx context.Context, item Item) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO request_items (`+itemColumns+`, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, NOW())`,
		item.ID, item.RequestID, item.Description, item.Quantity, item.UnitPrice.String(), nullable(item.Currency), item.DiscountPercent, item.VATApplied,
		item.Vendor.ID, item.Vendor.Name, item.InStock, item.InStockQuantity, item.StoreLocation, string(item.LogisticsType),
		item.ShippingQuantity, item.ShippingFee.String(), item.ClearingFee.String(),
		item.BaseDeliveredQty, item.JettyDeliveredQty, item.VesselDeliveredQty, item.DeliveredQuantity,
		string(item.PaymentStatus), item.PercentagePaid, item.PaidAmount.String(), item.BalanceAmount.String(),
		item.LineTotal.String(), item.VATAmount.String(), item.TotalPrice.String(),
		item.Removed, item.RemovedReason, item.MovedFromRequestID, item.MovedToRequestID)
	return err
}

func (t *txRepo) UpdateRequestState(ctx context.Context, id uuid.UUID, state State, stations []string, expectedVersion int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE requests SET state=$1, next_stations=$2, version=version+1, updated_at=NOW()
WHERE id=$3 AND version=$4`, string(state), stations, id, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (t *txRepo) TouchRequest(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE requests SET version=version+1, updated_at=NOW() WHERE id=$1 AND version=$2`, id, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (t *txRepo) UpdateItem(ctx context.Context, item Item) error {
	tag, err := t.tx.Exec(ctx, `UPDATE request_items SET
quantity=$1, unit_price=$2, currency=$3, discount_percent=$4, vat_applied=$5,
vendor_id=$6, vendor_name=$7, in_stock=$8, in_stock_quantity=$9, store_location=$10, logistics_type=$11,
shipping_quantity=$12, shipping_fee=$13, clearing_fee=$14,
base_delivered_qty=$15, jetty_delivered_qty=$16, vessel_delivered_qty=$17, delivered_quantity=$18,
payment_status=$19, percentage_paid=$20, paid_amount=$21, balance_amount=$22,
line_total=$23, vat_amount=$24, total_price=$25,
removed=$26, removed_reason=$27
WHERE id=$28 AND request_id=$29`,
		item.Quantity, item.UnitPrice.String(), nullable(item.Currency), item.DiscountPercent, item.VATApplied,
		item.Vendor.ID, item.Vendor.Name, item.InStock, item.InStockQuantity, item.StoreLocation, string(item.LogisticsType),
		item.ShippingQuantity, item.ShippingFee.String(), item.ClearingFee.String(),
		item.BaseDeliveredQty, item.JettyDeliveredQty, item.VesselDeliveredQty, item.DeliveredQuantity,
		string(item.PaymentStatus), item.PercentagePaid, item.PaidAmount.String(), item.BalanceAmount.String(),
		item.LineTotal.String(), item.VATAmount.String(), item.TotalPrice.String(),
		item.Removed, item.RemovedReason,
		item.ID, item.RequestID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) MarkItemMoved(ctx context.Context, itemID, targetRequestID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `UPDATE request_items SET moved_to_request_id=$1 WHERE id=$2 AND moved_to_request_id IS NULL AND removed=false`, targetRequestID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO request_history (request_id, actor, action, from_state, to_state, comment, at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		entry.RequestID, string(entry.Actor), entry.Action, string(entry.FromState), string(entry.ToState), entry.Comment, entry.At)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (Request, error) {
	var req Request
	var typ, state, logistics string
	if err := row.Scan(&req.ID, &req.Number, &typ, &req.Tag, &state, &req.RequestedBy,
		&req.DeliveryLocation, &logistics, &req.NextDeliveryStations, &req.Version, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return Request{}, err
	}
	req.Type = RequestType(typ)
	req.State = State(state)
	req.LogisticsType = LogisticsType(logistics)
	return req, nil
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	var currency, logistics, paymentStatus *string
	var unitPrice, shippingFee, clearingFee, paidAmount, balanceAmount, lineTotal, vatAmount, totalPrice string
	var movedFrom, movedTo uuid.NullUUID
	if err := row.Scan(&item.ID, &item.RequestID, &item.Description, &item.Quantity, &unitPrice, &currency, &item.DiscountPercent, &item.VATApplied,
		&item.Vendor.ID, &item.Vendor.Name, &item.InStock, &item.InStockQuantity, &item.StoreLocation, &logistics,
		&item.ShippingQuantity, &shippingFee, &clearingFee,
		&item.BaseDeliveredQty, &item.JettyDeliveredQty, &item.VesselDeliveredQty, &item.DeliveredQuantity,
		&paymentStatus, &item.PercentagePaid, &paidAmount, &balanceAmount,
		&lineTotal, &vatAmount, &totalPrice,
		&item.Removed, &item.RemovedReason, &movedFrom, &movedTo); err != nil {
		return Item{}, err
	}
	if currency != nil {
		item.Currency = *currency
	}
	if logistics != nil {
		item.LogisticsType = LogisticsType(*logistics)
	}
	if paymentStatus != nil {
		item.PaymentStatus = PaymentStatus(*paymentStatus)
	}
	var err error
	if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return Item{}, err
	}
	if item.ShippingFee, err = decimal.NewFromString(shippingFee); err != nil {
		return Item{}, err
	}
	if item.ClearingFee, err = decimal.NewFromString(clearingFee); err != nil {
		return Item{}, err
	}
	if item.PaidAmount, err = decimal.NewFromString(paidAmount); err != nil {
		return Item{}, err
	}
	if item.BalanceAmount, err = decimal.NewFromString(balanceAmount); err != nil {
		return Item{}, err
	}
	if item.LineTotal, err = decimal.NewFromString(lineTotal); err != nil {
		return Item{}, err
	}
	if item.VATAmount, err = decimal.NewFromString(vatAmount); err != nil {
		return Item{}, err
	}
	if item.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
		return Item{}, err
	}
	if movedFrom.Valid {
		id := movedFrom.UUID
		item.MovedFromRequestID = &id
	}
	if movedTo.Valid {
		id := movedTo.UUID
		item.MovedToRequestID = &id
	}
	return item, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
