package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const bookingColumns = `
b.id, COALESCE(b.reference_number,''), b.user_id, b.status,
b.preferred_start, b.preferred_end, b.requires_work_area,
b.total_amount::text, b.reviewed_by, b.reviewed_at, COALESCE(b.review_notes,''),
b.created_at, b.updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var totalStr string
	if err := row.Scan(
		&b.ID, &b.ReferenceNumber, &b.UserID, &b.Status,
		&b.PreferredStart, &b.PreferredEnd, &b.RequiresWorkArea,
		&totalStr, &b.ReviewedBy, &b.ReviewedAt, &b.ReviewNotes,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return nil, fmt.Errorf("parse total amount: %w", err)
	}
	b.TotalAmount = total
	return &b, nil
}

func (r *Repository) Create(ctx context.Context, userID string, in DraftInput) (*Booking, error) {
	var created *Booking
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
INSERT INTO bookings (user_id, status, preferred_start, preferred_end, requires_work_area, total_amount)
VALUES ($1, 'draft', $2, $3, $4, $5)
RETURNING id, COALESCE(reference_number,''), user_id, status,
          preferred_start, preferred_end, requires_work_area,
          total_amount::text, reviewed_by, reviewed_at, COALESCE(review_notes,''),
          created_at, updated_at
`
		b, err := scanBooking(tx.QueryRow(ctx, q, userID, in.PreferredStart, in.PreferredEnd, in.RequiresWorkArea, in.Total()))
		if err != nil {
			return err
		}
		if err := replaceItems(ctx, tx, b.ID, in.items(b.ID)); err != nil {
			return err
		}
		created = b
		return nil
	})
	return created, err
}

func (r *Repository) Get(ctx context.Context, id string) (*Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	return scanBooking(r.db.QueryRow(ctx, q, id))
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1 FOR UPDATE`
	return scanBooking(tx.QueryRow(ctx, q, id))
}

func (r *Repository) Items(ctx context.Context, bookingID string) ([]ServiceItem, error) {
	const q = `
SELECT id, booking_id, service_code, name, quantity, unit_price::text
FROM booking_service_items
WHERE booking_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.db.Query(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceItem
	index := make(map[string]int)
	for rows.Next() {
		var it ServiceItem
		var priceStr string
		if err := rows.Scan(&it.ID, &it.BookingID, &it.ServiceCode, &it.Name, &it.Quantity, &priceStr); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, err
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const qAdd = `
SELECT a.id, a.item_id, a.code, a.name, a.price::text
FROM booking_service_addons a
JOIN booking_service_items i ON i.id = a.item_id
WHERE i.booking_id = $1
ORDER BY a.created_at ASC, a.id ASC
`
	addRows, err := r.db.Query(ctx, qAdd, bookingID)
	if err != nil {
		return nil, err
	}
	defer addRows.Close()

	for addRows.Next() {
		var a AddOn
		var priceStr string
		if err := addRows.Scan(&a.ID, &a.ItemID, &a.Code, &a.Name, &priceStr); err != nil {
			return nil, err
		}
		if a.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, err
		}
		if i, ok := index[a.ItemID]; ok {
			out[i].AddOns = append(out[i].AddOns, a)
		}
	}
	return out, addRows.Err()
}

func (r *Repository) UpdateDraft(ctx context.Context, id string, editable []Status, in DraftInput) (*Booking, error) {
	var updated *Booking
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !statusIn(b.Status, editable) {
			return &StatusConflictError{Current: b.Status, Allowed: editable}
		}

		const q = `
UPDATE bookings
SET preferred_start = $2, preferred_end = $3, requires_work_area = $4,
    total_amount = $5, updated_at = NOW()
WHERE id = $1
`
		if _, err := tx.Exec(ctx, q, id, in.PreferredStart, in.PreferredEnd, in.RequiresWorkArea, in.Total()); err != nil {
			return err
		}
		if err := replaceItems(ctx, tx, id, in.items(id)); err != nil {
			return err
		}
		updated, err = getCommitted(ctx, tx, id)
		return err
	})
	return updated, err
}

func (r *Repository) Transition(ctx context.Context, id string, from []Status, to Status, review *Review) (*Booking, error) {
	var updated *Booking
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !statusIn(b.Status, from) {
			return &StatusConflictError{Current: b.Status, Allowed: from}
		}

		if review != nil {
			const q = `
UPDATE bookings
SET status = $2, reviewed_by = $3, reviewed_at = $4, review_notes = $5, updated_at = NOW()
WHERE id = $1
`
			if _, err := tx.Exec(ctx, q, id, to, review.By, review.At, review.Notes); err != nil {
				return err
			}
		} else {
			const q = `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`
			if _, err := tx.Exec(ctx, q, id, to); err != nil {
				return err
			}
		}
		updated, err = getCommitted(ctx, tx, id)
		return err
	})
	return updated, err
}

func (r *Repository) SubmitDraft(ctx context.Context, id string, from []Status, to Status, ref string, total decimal.Decimal, items []ServiceItem) (*Booking, error) {
	var updated *Booking
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !statusIn(b.Status, from) {
			return &StatusConflictError{Current: b.Status, Allowed: from}
		}

		// The reference survives resubmission: assigned once, stable forever.
		const q = `
UPDATE bookings
SET status = $2,
    reference_number = COALESCE(NULLIF(reference_number, ''), $3),
    total_amount = $4,
    updated_at = NOW()
WHERE id = $1
`
		if _, err := tx.Exec(ctx, q, id, to, ref, total); err != nil {
			return err
		}
		if err := replaceItems(ctx, tx, id, items); err != nil {
			return err
		}
		updated, err = getCommitted(ctx, tx, id)
		return err
	})
	return updated, err
}

func (r *Repository) Delete(ctx context.Context, id string, allowed []Status) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !statusIn(b.Status, allowed) {
			return &StatusConflictError{Current: b.Status, Allowed: allowed}
		}
		_, err = tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
		return err
	})
}

// DeleteMany is a single filtered statement: ids outside the allowed status
// set are silently skipped, and the whole delete commits or rolls back as one.
func (r *Repository) DeleteMany(ctx context.Context, ids []string, allowed []Status) (int64, error) {
	const q = `DELETE FROM bookings WHERE id = ANY($1) AND status = ANY($2)`
	tag, err := r.db.Exec(ctx, q, ids, statusStrings(allowed))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurgeDrafts removes drafts strictly older than the cutoff; a draft touched
// exactly at the cutoff instant survives.
func (r *Repository) PurgeDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM bookings WHERE status = 'draft' AND updated_at < $1`
	tag, err := r.db.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]ListItem, int, error) {
	where, args := listWhere(f)

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 25
	}

	countQ := `SELECT COUNT(*) FROM bookings b JOIN users u ON u.id = b.user_id WHERE ` + where
	var total int
	if err := r.db.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `
SELECT b.id, COALESCE(b.reference_number,''), b.user_id, u.name, u.email, COALESCE(u.organization,''),
       b.status, b.total_amount::text, b.created_at, b.updated_at
FROM bookings b
JOIN users u ON u.id = b.user_id
WHERE ` + where + `
ORDER BY ` + sortClause(f.SortField, f.SortDir) + `
LIMIT ` + fmt.Sprint(pageSize) + ` OFFSET ` + fmt.Sprint((page-1)*pageSize)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ListItem
	for rows.Next() {
		var it ListItem
		if err := rows.Scan(
			&it.ID, &it.ReferenceNumber, &it.UserID, &it.UserName, &it.UserEmail, &it.Organization,
			&it.Status, &it.TotalAmount, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// CountsByStatus mirrors the list defaults: admin counts exclude drafts the
// same way admin lists do.
func (r *Repository) CountsByStatus(ctx context.Context, userID string, excludeDraft bool) (map[Status]int, error) {
	where := "1=1"
	var args []any
	if userID != "" {
		args = append(args, userID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if excludeDraft {
		where += " AND status <> 'draft'"
	}
	q := `SELECT status, COUNT(*) FROM bookings WHERE ` + where + ` GROUP BY status`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func listWhere(f ListFilter) (string, []any) {
	conds := []string{"1=1"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != "" {
		conds = append(conds, "b.user_id = "+arg(f.UserID))
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "b.status = ANY("+arg(statusStrings(f.Statuses))+")")
	} else if f.ExcludeDraft {
		conds = append(conds, "b.status <> 'draft'")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + q + "%")
		conds = append(conds, fmt.Sprintf(
			"(b.reference_number ILIKE %s OR u.name ILIKE %s OR u.email ILIKE %s OR u.organization ILIKE %s)",
			p, p, p, p,
		))
	}
	if f.From != nil {
		conds = append(conds, "b.created_at >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "b.created_at <= "+arg(*f.To))
	}
	return strings.Join(conds, " AND "), args
}

func replaceItems(ctx context.Context, tx pgx.Tx, bookingID string, items []ServiceItem) error {
	if _, err := tx.Exec(ctx, `DELETE FROM booking_service_items WHERE booking_id = $1`, bookingID); err != nil {
		return err
	}
	for _, it := range items {
		const q = `
INSERT INTO booking_service_items (booking_id, service_code, name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`
		var itemID string
		if err := tx.QueryRow(ctx, q, bookingID, it.ServiceCode, it.Name, it.Quantity, it.UnitPrice).Scan(&itemID); err != nil {
			return err
		}
		for _, a := range it.AddOns {
			const qa = `
INSERT INTO booking_service_addons (item_id, code, name, price)
VALUES ($1, $2, $3, $4)
`
			if _, err := tx.Exec(ctx, qa, itemID, a.Code, a.Name, a.Price); err != nil {
				return err
			}
		}
	}
	return nil
}

func getCommitted(ctx context.Context, tx pgx.Tx, id string) (*Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	return scanBooking(tx.QueryRow(ctx, q, id))
}

func statusIn(s Status, set []Status) bool {
	for _, x := range set {
		if s == x {
			return true
		}
	}
	return false
}

func statusStrings(ss []Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
