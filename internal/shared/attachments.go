package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FileCategory classifies an attachment reference. The approval gate only
// cares about invoices and payment advices.
type FileCategory string

const (
	FileInvoice       FileCategory = "INVOICE"
	FilePaymentAdvice FileCategory = "PAYMENT_ADVICE"
	FileDeliveryNote  FileCategory = "DELIVERY_NOTE"
	FileOther         FileCategory = "OTHER"
)

// FileRef is a weak reference to a blob held by the external file store.
// The engine stores references only; upload and download mechanics live
// elsewhere.
type FileRef struct {
	ID         int64
	RequestID  uuid.UUID
	Category   FileCategory
	Name       string
	BlobKey    string
	UploadedBy int64
	At         time.Time
}

// FileStore tracks attachment references per request.
type FileStore struct {
	pool *pgxpool.Pool
}

// NewFileStore constructs a FileStore.
func NewFileStore(pool *pgxpool.Pool) *FileStore {
	return &FileStore{pool: pool}
}

// Add registers a file reference.
func (s *FileStore) Add(ctx context.Context, ref FileRef) error {
	if s == nil {
		return errors.New("file store not initialised")
	}
	if ref.RequestID == uuid.Nil || ref.Name == "" || ref.BlobKey == "" {
		return errors.New("file ref requires request id, name and blob key")
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO request_files (request_id, category, name, blob_key, uploaded_by, at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, ref.RequestID, string(ref.Category), ref.Name, ref.BlobKey, ref.UploadedBy, ref.At)
	return err
}

// List returns file references for a request, optionally narrowed to one
// category.
func (s *FileStore) List(ctx context.Context, requestID uuid.UUID, category FileCategory) ([]FileRef, error) {
	if s == nil {
		return nil, errors.New("file store not initialised")
	}
	query := `SELECT id, request_id, category, name, blob_key, uploaded_by, at
FROM request_files WHERE request_id=$1`
	args := []any{requestID}
	if category != "" {
		query += ` AND category=$2`
		args = append(args, string(category))
	}
	query += ` ORDER BY at ASC, id ASC`
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []FileRef
	for rows.Next() {
		var ref FileRef
		var cat string
		if err := rows.Scan(&ref.ID, &ref.RequestID, &cat, &ref.Name, &ref.BlobKey, &ref.UploadedBy, &ref.At); err != nil {
			return nil, err
		}
		ref.Category = FileCategory(cat)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}

// HasAny reports whether at least one file of the category exists for the
// request. The approval gate's invoice and payment-advice checks use this.
func (s *FileStore) HasAny(ctx context.Context, requestID uuid.UUID, category FileCategory) (bool, error) {
	if s == nil {
		return false, errors.New("file store not initialised")
	}
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM request_files WHERE request_id=$1 AND category=$2)`,
		requestID, string(category)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
