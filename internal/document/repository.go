package document

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rithbennet/checa-booking-systems-sub004/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const docColumns = `
d.id, d.booking_id, d.uploaded_by, d.doc_type, d.file_name, d.storage_key,
d.content_type, d.size_bytes, d.status, COALESCE(d.reject_reason,''),
d.verified_by, d.verified_at, d.created_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	if err := row.Scan(
		&d.ID, &d.BookingID, &d.UploadedBy, &d.Type, &d.FileName, &d.StorageKey,
		&d.ContentType, &d.SizeBytes, &d.Status, &d.RejectReason,
		&d.VerifiedBy, &d.VerifiedAt, &d.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repository) Insert(ctx context.Context, d *Document) (*Document, error) {
	const q = `
INSERT INTO booking_documents (booking_id, uploaded_by, doc_type, file_name, storage_key, content_type, size_bytes, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending_verification')
RETURNING id, booking_id, uploaded_by, doc_type, file_name, storage_key,
          content_type, size_bytes, status, COALESCE(reject_reason,''),
          verified_by, verified_at, created_at
`
	return scanDocument(r.db.QueryRow(ctx, q,
		d.BookingID, d.UploadedBy, d.Type, d.FileName, d.StorageKey, d.ContentType, d.SizeBytes))
}

func (r *Repository) Get(ctx context.Context, id string) (*Document, error) {
	q := `SELECT ` + docColumns + ` FROM booking_documents d WHERE d.id = $1`
	return scanDocument(r.db.QueryRow(ctx, q, id))
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Document, error) {
	q := `SELECT ` + docColumns + ` FROM booking_documents d WHERE d.booking_id = $1 ORDER BY d.created_at DESC, d.id DESC`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(
			&d.ID, &d.BookingID, &d.UploadedBy, &d.Type, &d.FileName, &d.StorageKey,
			&d.ContentType, &d.SizeBytes, &d.Status, &d.RejectReason,
			&d.VerifiedBy, &d.VerifiedAt, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ReviewConflictError reports a verify/reject against a row no longer pending.
type ReviewConflictError struct {
	Current VerificationStatus
}

func (e *ReviewConflictError) Error() string {
	return "document is " + string(e.Current) + ", review requires pending_verification"
}

// SetVerification applies the admin decision under a row lock; a row already
// decided fails with *ReviewConflictError.
func (r *Repository) SetVerification(ctx context.Context, id string, to VerificationStatus, reviewedBy, reason string, at time.Time) (*Document, error) {
	var updated *Document
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		q := `SELECT ` + docColumns + ` FROM booking_documents d WHERE d.id = $1 FOR UPDATE`
		d, err := scanDocument(tx.QueryRow(ctx, q, id))
		if err != nil {
			return err
		}
		if !CanReview(d.Status) {
			return &ReviewConflictError{Current: d.Status}
		}

		const upd = `
UPDATE booking_documents
SET status = $2, verified_by = $3, verified_at = $4, reject_reason = $5
WHERE id = $1
`
		if _, err := tx.Exec(ctx, upd, id, to, reviewedBy, at, reason); err != nil {
			return err
		}
		updated, err = scanDocument(tx.QueryRow(ctx,
			`SELECT `+docColumns+` FROM booking_documents d WHERE d.id = $1`, id))
		return err
	})
	return updated, err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM booking_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Service forms.

func (r *Repository) CreateForm(ctx context.Context, bookingID, storageKey string) (*ServiceForm, error) {
	const q = `
INSERT INTO service_forms (booking_id, status, storage_key)
VALUES ($1, 'generated', $2)
ON CONFLICT (booking_id) DO UPDATE SET storage_key = EXCLUDED.storage_key
RETURNING id, booking_id, status, storage_key, generated_at, uploaded_at
`
	return scanForm(r.db.QueryRow(ctx, q, bookingID, storageKey))
}

func (r *Repository) GetForm(ctx context.Context, bookingID string) (*ServiceForm, error) {
	const q = `
SELECT id, booking_id, status, storage_key, generated_at, uploaded_at
FROM service_forms WHERE booking_id = $1
`
	return scanForm(r.db.QueryRow(ctx, q, bookingID))
}

// MarkFormSigned flips the form once the signed copy is on file.
func (r *Repository) MarkFormSigned(ctx context.Context, bookingID string, at time.Time) (*ServiceForm, error) {
	const q = `
UPDATE service_forms
SET status = 'signed_forms_uploaded', uploaded_at = $2
WHERE booking_id = $1
RETURNING id, booking_id, status, storage_key, generated_at, uploaded_at
`
	return scanForm(r.db.QueryRow(ctx, q, bookingID, at))
}

func scanForm(row pgx.Row) (*ServiceForm, error) {
	var f ServiceForm
	if err := row.Scan(&f.ID, &f.BookingID, &f.Status, &f.StorageKey, &f.GeneratedAt, &f.UploadedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}
