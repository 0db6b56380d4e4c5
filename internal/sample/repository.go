package sample

import (
	"context"
	"errors"

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

const trackingColumns = `
s.id, s.booking_id, s.item_id, s.status, COALESCE(s.notes,''), s.updated_by, s.created_at, s.updated_at`

func scanTracking(row pgx.Row) (*Tracking, error) {
	var t Tracking
	if err := row.Scan(
		&t.ID, &t.BookingID, &t.ItemID, &t.Status, &t.Notes, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// EnsureForBooking creates a pending tracking row for every service item that
// does not have one yet. Idempotent; safe to call on every list.
func (r *Repository) EnsureForBooking(ctx context.Context, bookingID string) error {
	const q = `
INSERT INTO sample_tracking (booking_id, item_id, status)
SELECT i.booking_id, i.id, 'pending'
FROM booking_service_items i
WHERE i.booking_id = $1
ON CONFLICT (item_id) DO NOTHING
`
	_, err := r.db.Exec(ctx, q, bookingID)
	return err
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Tracking, error) {
	q := `SELECT ` + trackingColumns + ` FROM sample_tracking s WHERE s.booking_id = $1 ORDER BY s.created_at ASC, s.id ASC`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tracking
	for rows.Next() {
		var t Tracking
		if err := rows.Scan(
			&t.ID, &t.BookingID, &t.ItemID, &t.Status, &t.Notes, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Tracking, error) {
	q := `SELECT ` + trackingColumns + ` FROM sample_tracking s WHERE s.id = $1`
	return scanTracking(r.db.QueryRow(ctx, q, id))
}

// Advance moves a sample to the given status, which must be the chain's next
// step relative to the row's current status under the lock.
func (r *Repository) Advance(ctx context.Context, id string, to Status, updatedBy, notes string) (*Tracking, error) {
	var updated *Tracking
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		q := `SELECT ` + trackingColumns + ` FROM sample_tracking s WHERE s.id = $1 FOR UPDATE`
		t, err := scanTracking(tx.QueryRow(ctx, q, id))
		if err != nil {
			return err
		}
		if !CanAdvance(t.Status, to) {
			return &StepError{Current: t.Status, Target: to}
		}

		const upd = `
UPDATE sample_tracking
SET status = $2, updated_by = $3, notes = $4, updated_at = NOW()
WHERE id = $1
`
		if _, err := tx.Exec(ctx, upd, id, to, updatedBy, notes); err != nil {
			return err
		}
		updated, err = scanTracking(tx.QueryRow(ctx,
			`SELECT `+trackingColumns+` FROM sample_tracking s WHERE s.id = $1`, id))
		return err
	})
	return updated, err
}
