package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification is a queued booking-event message for a user. Rows are written
// synchronously alongside the transition and delivered asynchronously by the
// Dispatcher, so a slow downstream never blocks or rolls back a transition.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	BookingID string     `json:"bookingId,omitempty"`
	Event     string     `json:"event"`
	Message   string     `json:"message"`
	Data      any        `json:"data,omitempty"`
	Status    string     `json:"status"` // pending | sent | failed
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"createdAt"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
}

type Outbox struct {
	db *pgxpool.Pool
}

func NewOutbox(db *pgxpool.Pool) *Outbox {
	return &Outbox{db: db}
}

// BookingEvent enqueues a booking-event notification best-effort. Failures
// are logged and swallowed; notifying must never fail the transition.
func (o *Outbox) BookingEvent(ctx context.Context, userID, bookingID, event, message string, data any) {
	var s *string
	if data != nil {
		b, _ := json.Marshal(data)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO notifications (user_id, booking_id, event, message, data)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	if _, err := o.db.Exec(ctx, q, userID, bookingID, event, message, s); err != nil {
		log.Printf("notify: enqueue %s for booking %s failed: %v", event, bookingID, err)
	}
}

// claimPending locks a batch of undelivered notifications for this dispatcher
// run. SKIP LOCKED keeps concurrent dispatchers from double-sending.
func claimPending(ctx context.Context, tx pgx.Tx, limit int) ([]Notification, error) {
	const q = `
SELECT id, user_id, COALESCE(booking_id,''), event, message, COALESCE(data,'{}'::jsonb), status, attempts, created_at
FROM notifications
WHERE status = 'pending' AND attempts < 5
ORDER BY created_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED
`
	rows, err := tx.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.BookingID, &n.Event, &n.Message, &n.Data, &n.Status, &n.Attempts, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func markSent(ctx context.Context, tx pgx.Tx, id string, at time.Time) error {
	const q = `UPDATE notifications SET status = 'sent', sent_at = $2, attempts = attempts + 1 WHERE id = $1`
	_, err := tx.Exec(ctx, q, id, at)
	return err
}

func markFailed(ctx context.Context, tx pgx.Tx, id string) error {
	const q = `
UPDATE notifications
SET attempts = attempts + 1,
    status = CASE WHEN attempts + 1 >= 5 THEN 'failed' ELSE 'pending' END
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id)
	return err
}
