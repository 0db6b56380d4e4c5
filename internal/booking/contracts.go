package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/audit"
)

var ErrNotFound = errors.New("booking not found")

// StatusConflictError reports a guarded write that found the booking in a
// status outside the expected source set. The read and the write happen in
// one transaction, so a concurrent admin action surfaces here instead of
// silently clobbering the row.
type StatusConflictError struct {
	Current Status
	Allowed []Status
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("booking is %s, requires one of: %s", e.Current, statusList(e.Allowed))
}

// Store is the persistence contract the service orchestrates against.
// Mutating methods that take a source-status set re-check the status under a
// row lock and fail with *StatusConflictError when it no longer matches.
type Store interface {
	Create(ctx context.Context, userID string, in DraftInput) (*Booking, error)
	Get(ctx context.Context, id string) (*Booking, error)
	Items(ctx context.Context, bookingID string) ([]ServiceItem, error)
	UpdateDraft(ctx context.Context, id string, editable []Status, in DraftInput) (*Booking, error)
	Transition(ctx context.Context, id string, from []Status, to Status, review *Review) (*Booking, error)
	SubmitDraft(ctx context.Context, id string, from []Status, to Status, ref string, total decimal.Decimal, items []ServiceItem) (*Booking, error)
	Delete(ctx context.Context, id string, allowed []Status) error
	DeleteMany(ctx context.Context, ids []string, allowed []Status) (int64, error)
	PurgeDrafts(ctx context.Context, cutoff time.Time) (int64, error)
	List(ctx context.Context, f ListFilter) ([]ListItem, int, error)
	CountsByStatus(ctx context.Context, userID string, excludeDraft bool) (map[Status]int, error)
}

// AuditLogger records best-effort audit entries; implementations never fail
// the caller.
type AuditLogger interface {
	Record(ctx context.Context, e audit.Entry)
}

// Notifier emits best-effort booking-event notifications to the owner.
type Notifier interface {
	BookingEvent(ctx context.Context, userID, bookingID, event, message string, data any)
}
