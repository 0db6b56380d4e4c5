package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/audit"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
)

// Actor identifies who is performing an operation. Ownership is checked by
// userId equality; admins may act on any booking.
type Actor struct {
	ID   string
	Role user.Role
}

func (a Actor) isAdmin() bool {
	return a.Role == user.RoleAdmin
}

type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
	ReviewReturn  ReviewAction = "request_revision"
)

type Service struct {
	store    Store
	audit    AuditLogger
	notify   Notifier
	validate *validator.Validate
	now      func() time.Time
}

func NewService(store Store, auditLog AuditLogger, notifier Notifier) *Service {
	return &Service{
		store:    store,
		audit:    auditLog,
		notify:   notifier,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *Service) CreateDraft(ctx context.Context, actor Actor, in DraftInput) (*Booking, error) {
	if err := s.validateDraft(in); err != nil {
		return nil, err
	}

	b, err := s.store.Create(ctx, actor.ID, in)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "BOOKING_CREATED", Entity: "booking", EntityID: b.ID,
	})
	return b, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Booking, []ServiceItem, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	if b.UserID != actor.ID && !actor.isAdmin() {
		return nil, nil, api.Forbidden("not the booking owner")
	}
	items, err := s.store.Items(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return b, items, nil
}

func (s *Service) SaveDraft(ctx context.Context, actor Actor, id string, in DraftInput) (*Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if b.UserID != actor.ID && !actor.isAdmin() {
		return nil, api.Forbidden("not the booking owner")
	}
	if !IsEditable(b.Status) {
		return nil, api.NotEditable(fmt.Sprintf(
			"booking is %s; editable only while %s", b.Status, statusList(SubmittableStatuses)))
	}
	if err := s.validateDraft(in); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateDraft(ctx, id, SubmittableStatuses, in)
	if err != nil {
		return nil, mapEditErr(err)
	}

	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "BOOKING_UPDATED", Entity: "booking", EntityID: id,
	})
	return updated, nil
}

// Submit moves a draft into review, or a returned booking back into review.
// Where it lands depends on the owner's account status: unverified accounts
// queue behind user verification instead of admin approval.
func (s *Service) Submit(ctx context.Context, actor Actor, id string, accountStatus user.AccountStatus) (*Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if b.UserID != actor.ID {
		return nil, api.Forbidden("not the booking owner")
	}
	if !statusIn(b.Status, SubmittableStatuses) {
		return nil, api.InvalidState(fmt.Sprintf(
			"booking is %s, submit requires one of: %s", b.Status, statusList(SubmittableStatuses)))
	}

	items, err := s.store.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateForSubmit(b, items); err != nil {
		return nil, err
	}

	var to Status
	if b.Status == StatusDraft {
		to = StatusPendingApproval
		if accountStatus != user.AccountActive {
			to = StatusPendingUserVerification
		}
	} else {
		to = StatusRevisionSubmitted
	}

	ref := b.ReferenceNumber
	if ref == "" {
		ref = NewReferenceNumber(s.now())
	}

	updated, err := s.store.SubmitDraft(ctx, id, []Status{b.Status}, to, ref, itemsTotal(items), items)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "BOOKING_SUBMITTED", Entity: "booking", EntityID: id,
		Metadata: map[string]any{"from": b.Status, "to": to, "reference": ref},
	})
	s.notify.BookingEvent(ctx, b.UserID, id, "booking_submitted",
		fmt.Sprintf("Booking %s was submitted for review", ref), nil)
	return updated, nil
}

// AdminReview applies an approve/reject/return decision and records the
// reviewer trail. Legal only from pending_approval or revision_submitted.
func (s *Service) AdminReview(ctx context.Context, actor Actor, id string, action ReviewAction, note string) (*Booking, error) {
	if !actor.isAdmin() {
		return nil, api.Forbidden("admin role required")
	}

	var to Status
	var auditAction, event, message string
	switch action {
	case ReviewApprove:
		to, auditAction, event, message = StatusApproved, "BOOKING_APPROVED", "booking_approved", "Your booking was approved"
	case ReviewReject:
		to, auditAction, event, message = StatusRejected, "BOOKING_REJECTED", "booking_rejected", "Your booking was rejected"
	case ReviewReturn:
		to, auditAction, event, message = StatusRevisionRequested, "BOOKING_REVISION_REQUESTED", "booking_revision_requested", "Your booking was returned for changes"
	default:
		return nil, api.Validation("", "invalid review action")
	}

	review := &Review{By: actor.ID, At: s.now(), Notes: note}
	updated, err := s.store.Transition(ctx, id, ReviewableStatuses, to, review)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: auditAction, Entity: "booking", EntityID: id,
		Metadata: map[string]any{"to": to, "note": note},
	})
	s.notify.BookingEvent(ctx, updated.UserID, id, event, message, map[string]any{"note": note})
	return updated, nil
}

// AdminStart begins the lab workflow on an approved booking.
func (s *Service) AdminStart(ctx context.Context, actor Actor, id string, note string) (*Booking, error) {
	return s.adminProgress(ctx, actor, id, StatusApproved, StatusInProgress, note,
		"BOOKING_STARTED", "booking_started", "Lab work on your booking has started")
}

// AdminComplete closes out a booking whose lab work is finished.
func (s *Service) AdminComplete(ctx context.Context, actor Actor, id string, note string) (*Booking, error) {
	return s.adminProgress(ctx, actor, id, StatusInProgress, StatusCompleted, note,
		"BOOKING_COMPLETED", "booking_completed", "Your booking is complete")
}

func (s *Service) adminProgress(ctx context.Context, actor Actor, id string, from, to Status, note, auditAction, event, message string) (*Booking, error) {
	if !actor.isAdmin() {
		return nil, api.Forbidden("admin role required")
	}
	review := &Review{By: actor.ID, At: s.now(), Notes: note}
	updated, err := s.store.Transition(ctx, id, []Status{from}, to, review)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: auditAction, Entity: "booking", EntityID: id,
	})
	s.notify.BookingEvent(ctx, updated.UserID, id, event, message, nil)
	return updated, nil
}

// Cancel is legal from any non-terminal status. Owners cancel their own
// bookings; admins cancel any.
func (s *Service) Cancel(ctx context.Context, actor Actor, id string, reason string) (*Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if b.UserID != actor.ID && !actor.isAdmin() {
		return nil, api.Forbidden("not the booking owner")
	}

	var review *Review
	if actor.isAdmin() {
		review = &Review{By: actor.ID, At: s.now(), Notes: reason}
	}
	updated, err := s.store.Transition(ctx, id, NonTerminalStatuses(), StatusCancelled, review)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "BOOKING_CANCELLED", Entity: "booking", EntityID: id,
		Metadata: map[string]any{"reason": reason},
	})
	s.notify.BookingEvent(ctx, updated.UserID, id, "booking_cancelled", "Your booking was cancelled", map[string]any{"reason": reason})
	return updated, nil
}

func (s *Service) DeleteDraft(ctx context.Context, actor Actor, id string) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if b.UserID != actor.ID && !actor.isAdmin() {
		return api.Forbidden("not the booking owner")
	}

	if err := s.store.Delete(ctx, id, SubmittableStatuses); err != nil {
		return mapStoreErr(err)
	}
	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "BOOKING_DELETED", Entity: "booking", EntityID: id,
	})
	return nil
}

// PurgeExpiredDrafts is invoked by the scheduled job, not a user session.
func (s *Service) PurgeExpiredDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.store.PurgeDrafts(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.audit.Record(ctx, audit.Entry{
			UserID: "system", Action: "DRAFTS_PURGED", Entity: "booking",
			Metadata: map[string]any{"count": n, "cutoff": cutoff},
		})
	}
	return n, nil
}

// BulkReview applies the single-item review per id independently. Partial
// failure is reported per id, never as a batch error.
func (s *Service) BulkReview(ctx context.Context, actor Actor, action ReviewAction, ids []string, note string) ([]BulkResult, error) {
	if !actor.isAdmin() {
		return nil, api.Forbidden("admin role required")
	}

	out := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		if _, err := s.AdminReview(ctx, actor, id, action, note); err != nil {
			out = append(out, BulkResult{ID: id, Error: err.Error()})
			continue
		}
		out = append(out, BulkResult{ID: id, OK: true})
	}
	return out, nil
}

// BulkDelete is all-or-nothing at the SQL level: one filtered deleteMany over
// the safely-deletable statuses.
func (s *Service) BulkDelete(ctx context.Context, actor Actor, ids []string) (int64, error) {
	if !actor.isAdmin() {
		return 0, api.Forbidden("admin role required")
	}
	n, err := s.store.DeleteMany(ctx, ids, BulkDeletableStatuses)
	if err != nil {
		return 0, err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "BOOKINGS_BULK_DELETED", Entity: "booking",
		Metadata: map[string]any{"requested": len(ids), "deleted": n},
	})
	return n, nil
}

func (s *Service) List(ctx context.Context, actor Actor, f ListFilter) ([]ListItem, int, error) {
	if !actor.isAdmin() {
		f.UserID = actor.ID
		f.ExcludeDraft = false
	} else if len(f.Statuses) == 0 {
		// Admin views hide drafts unless a status filter asks for them.
		f.ExcludeDraft = true
	}
	return s.store.List(ctx, f)
}

func (s *Service) CountsByStatus(ctx context.Context, actor Actor) (map[Status]int, error) {
	if actor.isAdmin() {
		return s.store.CountsByStatus(ctx, "", true)
	}
	return s.store.CountsByStatus(ctx, actor.ID, false)
}

func (s *Service) validateDraft(in DraftInput) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return api.Validation("", "invalid fields: "+strings.Join(fields, ", "))
		}
		return api.Validation("", err.Error())
	}
	for _, it := range in.Items {
		if it.UnitPrice.IsNegative() {
			return api.Validation("", fmt.Sprintf("item %s: unit price must not be negative", it.ServiceCode))
		}
		for _, a := range it.AddOns {
			if a.Price.IsNegative() {
				return api.Validation("", fmt.Sprintf("add-on %s: price must not be negative", a.Code))
			}
		}
	}
	if in.PreferredStart != nil && in.PreferredEnd != nil && in.PreferredEnd.Before(*in.PreferredStart) {
		return api.Validation("", "preferred end date must not be before start date")
	}
	return nil
}

func validateForSubmit(b *Booking, items []ServiceItem) error {
	if len(items) == 0 {
		return api.Validation("", "at least one service item is required")
	}
	if b.PreferredStart == nil || b.PreferredEnd == nil {
		return api.Validation("", "preferred start and end dates are required")
	}
	return nil
}

func itemsTotal(items []ServiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		for _, a := range it.AddOns {
			total = total.Add(a.Price)
		}
	}
	return total
}

func mapStoreErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return api.NotFound("booking not found")
	}
	var sc *StatusConflictError
	if errors.As(err, &sc) {
		return api.InvalidState(sc.Error())
	}
	return err
}

func mapEditErr(err error) error {
	var sc *StatusConflictError
	if errors.As(err, &sc) {
		return api.NotEditable(sc.Error())
	}
	return mapStoreErr(err)
}
