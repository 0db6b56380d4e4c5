package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rithbennet/checa-booking-systems-sub004/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const paymentColumns = `
p.id, p.booking_id, p.invoice_id, p.submitted_by, p.amount::text, p.method,
COALESCE(p.reference,''), p.status, COALESCE(p.notes,''),
p.verified_by, p.verified_at, p.created_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var amountStr string
	if err := row.Scan(
		&p.ID, &p.BookingID, &p.InvoiceID, &p.SubmittedBy, &amountStr, &p.Method,
		&p.Reference, &p.Status, &p.Notes,
		&p.VerifiedBy, &p.VerifiedAt, &p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse payment amount: %w", err)
	}
	p.Amount = amount
	return &p, nil
}

func (r *Repository) CreateInvoice(ctx context.Context, bookingID, number string, amount decimal.Decimal, dueAt *time.Time) (*Invoice, error) {
	const q = `
INSERT INTO invoices (booking_id, number, amount, status, due_at)
VALUES ($1, $2, $3, 'issued', $4)
RETURNING id, booking_id, number, amount::text, status, issued_at, due_at
`
	return scanInvoice(r.db.QueryRow(ctx, q, bookingID, number, amount, dueAt))
}

func (r *Repository) ListInvoicesByBooking(ctx context.Context, bookingID string) ([]Invoice, error) {
	const q = `
SELECT id, booking_id, number, amount::text, status, issued_at, due_at
FROM invoices WHERE booking_id = $1 ORDER BY issued_at DESC, id DESC
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		var amountStr string
		if err := rows.Scan(&inv.ID, &inv.BookingID, &inv.Number, &amountStr, &inv.Status, &inv.IssuedAt, &inv.DueAt); err != nil {
			return nil, err
		}
		if inv.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var amountStr string
	if err := row.Scan(&inv.ID, &inv.BookingID, &inv.Number, &amountStr, &inv.Status, &inv.IssuedAt, &inv.DueAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse invoice amount: %w", err)
	}
	inv.Amount = amount
	return &inv, nil
}

func (r *Repository) SubmitPayment(ctx context.Context, p *Payment) (*Payment, error) {
	const q = `
INSERT INTO payments (booking_id, invoice_id, submitted_by, amount, method, reference, status)
VALUES ($1, $2, $3, $4, $5, $6, 'pending_verification')
RETURNING id, booking_id, invoice_id, submitted_by, amount::text, method,
          COALESCE(reference,''), status, COALESCE(notes,''),
          verified_by, verified_at, created_at
`
	return scanPayment(r.db.QueryRow(ctx, q,
		p.BookingID, p.InvoiceID, p.SubmittedBy, p.Amount, p.Method, p.Reference))
}

func (r *Repository) GetPayment(ctx context.Context, id string) (*Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1`
	return scanPayment(r.db.QueryRow(ctx, q, id))
}

func (r *Repository) ListPaymentsByBooking(ctx context.Context, bookingID string) ([]Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.booking_id = $1 ORDER BY p.created_at DESC, p.id DESC`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		var amountStr string
		if err := rows.Scan(
			&p.ID, &p.BookingID, &p.InvoiceID, &p.SubmittedBy, &amountStr, &p.Method,
			&p.Reference, &p.Status, &p.Notes,
			&p.VerifiedBy, &p.VerifiedAt, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// VerifyConflictError reports a decision against a payment no longer pending.
type VerifyConflictError struct {
	Current PaymentStatus
}

func (e *VerifyConflictError) Error() string {
	return "payment is " + string(e.Current) + ", review requires pending_verification"
}

// SetVerification applies the admin decision under a row lock.
func (r *Repository) SetVerification(ctx context.Context, id string, to PaymentStatus, reviewedBy, notes string, at time.Time) (*Payment, error) {
	var updated *Payment
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		q := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1 FOR UPDATE`
		p, err := scanPayment(tx.QueryRow(ctx, q, id))
		if err != nil {
			return err
		}
		if p.Status != PaymentPending {
			return &VerifyConflictError{Current: p.Status}
		}

		const upd = `
UPDATE payments
SET status = $2, verified_by = $3, verified_at = $4, notes = $5
WHERE id = $1
`
		if _, err := tx.Exec(ctx, upd, id, to, reviewedBy, at, notes); err != nil {
			return err
		}
		updated, err = scanPayment(tx.QueryRow(ctx,
			`SELECT `+paymentColumns+` FROM payments p WHERE p.id = $1`, id))
		return err
	})
	return updated, err
}

// Sums returns the invoiced, verified and pending totals for a booking.
func (r *Repository) Sums(ctx context.Context, bookingID string) (invoiced, verified, pending decimal.Decimal, err error) {
	const q = `
SELECT
  (SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE booking_id = $1 AND status <> 'void')::text,
  (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE booking_id = $1 AND status = 'verified')::text,
  (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE booking_id = $1 AND status = 'pending_verification')::text
`
	var invStr, verStr, penStr string
	if err = r.db.QueryRow(ctx, q, bookingID).Scan(&invStr, &verStr, &penStr); err != nil {
		return
	}
	if invoiced, err = decimal.NewFromString(invStr); err != nil {
		return
	}
	if verified, err = decimal.NewFromString(verStr); err != nil {
		return
	}
	pending, err = decimal.NewFromString(penStr)
	return
}
