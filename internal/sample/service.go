package sample

import (
	"context"
	"errors"
	"fmt"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/audit"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/booking"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
)

// Store is the persistence contract for sample tracking.
type Store interface {
	EnsureForBooking(ctx context.Context, bookingID string) error
	ListByBooking(ctx context.Context, bookingID string) ([]Tracking, error)
	Get(ctx context.Context, id string) (*Tracking, error)
	Advance(ctx context.Context, id string, to Status, updatedBy, notes string) (*Tracking, error)
}

type BookingGetter interface {
	Get(ctx context.Context, id string) (*booking.Booking, error)
}

type AuditLogger interface {
	Record(ctx context.Context, e audit.Entry)
}

type Notifier interface {
	BookingEvent(ctx context.Context, userID, bookingID, event, message string, data any)
}

type Service struct {
	store    Store
	bookings BookingGetter
	audit    AuditLogger
	notify   Notifier
}

func NewService(store Store, bookings BookingGetter, auditLog AuditLogger, notifier Notifier) *Service {
	return &Service{store: store, bookings: bookings, audit: auditLog, notify: notifier}
}

// trackedStatuses are the booking statuses in which samples physically exist
// at the lab, so tracking rows get materialized lazily.
var trackedStatuses = []booking.Status{
	booking.StatusApproved, booking.StatusInProgress, booking.StatusCompleted,
}

// ListForBooking returns the sample state per service item. Owners may watch
// their own samples; staff see everything.
func (s *Service) ListForBooking(ctx context.Context, actor *user.User, bookingID string) ([]Tracking, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return nil, api.NotFound("booking not found")
		}
		return nil, err
	}
	if b.UserID != actor.ID && !actor.IsStaff() {
		return nil, api.Forbidden("not the booking owner")
	}

	for _, ts := range trackedStatuses {
		if b.Status == ts {
			if err := s.store.EnsureForBooking(ctx, bookingID); err != nil {
				return nil, err
			}
			break
		}
	}
	return s.store.ListByBooking(ctx, bookingID)
}

// Advance moves one sample a single step along the chain. Staff only.
func (s *Service) Advance(ctx context.Context, actor *user.User, sampleID string, to Status, notes string) (*Tracking, error) {
	if !actor.IsStaff() {
		return nil, api.Forbidden("staff role required")
	}

	t, err := s.store.Advance(ctx, sampleID, to, actor.ID, notes)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, api.NotFound("sample not found")
		}
		var step *StepError
		if errors.As(err, &step) {
			return nil, api.InvalidState(step.Error())
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "SAMPLE_ADVANCED", Entity: "sample", EntityID: sampleID,
		Metadata: map[string]any{"to": to, "bookingId": t.BookingID},
	})
	if b, err := s.bookings.Get(ctx, t.BookingID); err == nil {
		s.notify.BookingEvent(ctx, b.UserID, t.BookingID, "sample_status_changed",
			fmt.Sprintf("A sample on booking %s is now %s", b.ReferenceNumber, to),
			map[string]any{"sampleId": sampleID, "status": to})
	}
	return t, nil
}
