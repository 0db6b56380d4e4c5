package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/audit"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/booking"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/gatekeeper"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
)

type Store interface {
	Insert(ctx context.Context, d *Document) (*Document, error)
	Get(ctx context.Context, id string) (*Document, error)
	ListByBooking(ctx context.Context, bookingID string) ([]Document, error)
	SetVerification(ctx context.Context, id string, to VerificationStatus, reviewedBy, reason string, at time.Time) (*Document, error)
	Delete(ctx context.Context, id string) error
	CreateForm(ctx context.Context, bookingID, storageKey string) (*ServiceForm, error)
	GetForm(ctx context.Context, bookingID string) (*ServiceForm, error)
	MarkFormSigned(ctx context.Context, bookingID string, at time.Time) (*ServiceForm, error)
}

type BookingSource interface {
	Get(ctx context.Context, id string) (*booking.Booking, error)
	Items(ctx context.Context, bookingID string) ([]booking.ServiceItem, error)
}

// Gate recomputes download eligibility; never cached.
type Gate interface {
	Check(ctx context.Context, bookingID string) (gatekeeper.Decision, error)
}

type AuditLogger interface {
	Record(ctx context.Context, e audit.Entry)
}

type Notifier interface {
	BookingEvent(ctx context.Context, userID, bookingID, event, message string, data any)
}

type Service struct {
	store    Store
	storage  Storage
	bookings BookingSource
	gate     Gate
	audit    AuditLogger
	notify   Notifier
	now      func() time.Time
}

func NewService(store Store, storage Storage, bookings BookingSource, gate Gate, auditLog AuditLogger, notifier Notifier) *Service {
	return &Service{
		store:    store,
		storage:  storage,
		bookings: bookings,
		gate:     gate,
		audit:    auditLog,
		notify:   notifier,
		now:      time.Now,
	}
}

func (s *Service) bookingFor(ctx context.Context, actor *user.User, bookingID string) (*booking.Booking, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return nil, api.NotFound("booking not found")
		}
		return nil, err
	}
	if b.UserID != actor.ID && !actor.IsAdmin() {
		return nil, api.Forbidden("not the booking owner")
	}
	return b, nil
}

// Upload stores the blob first, then the row; a failed insert cleans the blob
// back up so storage never leads the database.
func (s *Service) Upload(ctx context.Context, actor *user.User, bookingID string, docType DocType, fileName, contentType string, r io.Reader) (*Document, error) {
	if _, err := s.bookingFor(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	if fileName == "" {
		return nil, api.Validation("", "file name is required")
	}

	key := NewStorageKey()
	size, err := s.storage.Save(ctx, key, r)
	if err != nil {
		return nil, err
	}

	d, err := s.store.Insert(ctx, &Document{
		BookingID:   bookingID,
		UploadedBy:  actor.ID,
		Type:        docType,
		FileName:    fileName,
		StorageKey:  key,
		ContentType: contentType,
		SizeBytes:   size,
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			log.Printf("document: cleanup of blob %s failed: %v", key, delErr)
		}
		return nil, err
	}

	// A signed submission form flips the generated service form.
	if docType == TypeSampleSubmissionForm {
		if _, err := s.store.MarkFormSigned(ctx, bookingID, s.now()); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("document: mark form signed for booking %s: %v", bookingID, err)
		}
	}

	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "DOCUMENT_UPLOADED", Entity: "document", EntityID: d.ID,
		Metadata: map[string]any{"bookingId": bookingID, "type": docType, "fileName": fileName},
	})
	return d, nil
}

func (s *Service) ListByBooking(ctx context.Context, actor *user.User, bookingID string) ([]Document, error) {
	if _, err := s.bookingFor(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	return s.store.ListByBooking(ctx, bookingID)
}

func (s *Service) Verify(ctx context.Context, actor *user.User, docID string) (*Document, error) {
	return s.review(ctx, actor, docID, StatusVerified, "")
}

// Reject requires a reason; the owner needs to know what to fix before
// re-uploading.
func (s *Service) Reject(ctx context.Context, actor *user.User, docID, reason string) (*Document, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, api.Validation("", "a rejection reason is required")
	}
	return s.review(ctx, actor, docID, StatusRejected, reason)
}

func (s *Service) review(ctx context.Context, actor *user.User, docID string, to VerificationStatus, reason string) (*Document, error) {
	if !actor.IsAdmin() {
		return nil, api.Forbidden("admin role required")
	}

	d, err := s.store.SetVerification(ctx, docID, to, actor.ID, reason, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, api.NotFound("document not found")
		}
		var rc *ReviewConflictError
		if errors.As(err, &rc) {
			return nil, api.InvalidState(rc.Error())
		}
		return nil, err
	}

	action, event, message := "DOCUMENT_VERIFIED", "document_verified", fmt.Sprintf("Your %s was verified", d.Type)
	if to == StatusRejected {
		action, event, message = "DOCUMENT_REJECTED", "document_rejected", fmt.Sprintf("Your %s was rejected: %s", d.Type, reason)
	}
	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: action, Entity: "document", EntityID: docID,
		Metadata: map[string]any{"bookingId": d.BookingID, "reason": reason},
	})
	s.notify.BookingEvent(ctx, d.UploadedBy, d.BookingID, event, message, map[string]any{"documentId": docID})
	return d, nil
}

// Delete removes the blob first; a blob that refuses to go is logged and the
// row is removed anyway, leaving at worst an orphan file for the next sweep.
func (s *Service) Delete(ctx context.Context, actor *user.User, docID string) error {
	d, err := s.store.Get(ctx, docID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return api.NotFound("document not found")
		}
		return err
	}
	if !actor.IsAdmin() {
		if d.UploadedBy != actor.ID {
			return api.Forbidden("not the document owner")
		}
		if d.Status != StatusPendingVerification {
			return api.InvalidState("only pending documents can be deleted")
		}
	}

	if err := s.storage.Delete(ctx, d.StorageKey); err != nil {
		log.Printf("document: blob delete for %s failed, row removed anyway: %v", d.ID, err)
	}
	if err := s.store.Delete(ctx, docID); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "DOCUMENT_DELETED", Entity: "document", EntityID: docID,
		Metadata: map[string]any{"bookingId": d.BookingID},
	})
	return nil
}

// Download re-checks the gate on every call for gated types. Admins bypass
// the gate, never the ownership check for other users' paperwork.
func (s *Service) Download(ctx context.Context, actor *user.User, docID string) (io.ReadCloser, *Document, error) {
	d, err := s.store.Get(ctx, docID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, api.NotFound("document not found")
		}
		return nil, nil, err
	}
	if _, err := s.bookingFor(ctx, actor, d.BookingID); err != nil {
		return nil, nil, err
	}

	if d.Type.IsGated() && !actor.IsAdmin() {
		decision, err := s.gate.Check(ctx, d.BookingID)
		if err != nil {
			return nil, nil, err
		}
		if !decision.Eligible {
			return nil, nil, &api.Error{Kind: api.KindForbidden, Code: "PAYMENT_REQUIRED", Message: decision.Reason}
		}
	}

	rc, err := s.storage.Open(ctx, d.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return rc, d, nil
}

// GenerateForm renders the service form for an approved booking and files it
// under a fresh storage key. Idempotent per booking.
func (s *Service) GenerateForm(ctx context.Context, actor *user.User, bookingID string) (*ServiceForm, error) {
	if !actor.IsAdmin() {
		return nil, api.Forbidden("admin role required")
	}

	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return nil, api.NotFound("booking not found")
		}
		return nil, err
	}
	items, err := s.bookings.Items(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	key := NewStorageKey()
	if _, err := s.storage.Save(ctx, key, strings.NewReader(renderForm(b, items))); err != nil {
		return nil, err
	}

	f, err := s.store.CreateForm(ctx, bookingID, key)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "FORM_GENERATED", Entity: "booking", EntityID: bookingID,
	})
	return f, nil
}

func (s *Service) DownloadForm(ctx context.Context, actor *user.User, bookingID string) (io.ReadCloser, *ServiceForm, error) {
	if _, err := s.bookingFor(ctx, actor, bookingID); err != nil {
		return nil, nil, err
	}
	f, err := s.store.GetForm(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, api.NotFound("no service form generated for this booking")
		}
		return nil, nil, err
	}
	rc, err := s.storage.Open(ctx, f.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}

func renderForm(b *booking.Booking, items []booking.ServiceItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SERVICE BOOKING FORM\n")
	fmt.Fprintf(&sb, "Reference: %s\n", b.ReferenceNumber)
	if b.PreferredStart != nil && b.PreferredEnd != nil {
		fmt.Fprintf(&sb, "Period: %s to %s\n",
			b.PreferredStart.Format("2006-01-02"), b.PreferredEnd.Format("2006-01-02"))
	}
	fmt.Fprintf(&sb, "\nServices:\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "  %s  %s  x%d  %s\n", it.ServiceCode, it.Name, it.Quantity, it.UnitPrice.StringFixed(2))
		for _, a := range it.AddOns {
			fmt.Fprintf(&sb, "    + %s  %s  %s\n", a.Code, a.Name, a.Price.StringFixed(2))
		}
	}
	fmt.Fprintf(&sb, "\nTotal: %s\n", b.TotalAmount.StringFixed(2))
	fmt.Fprintf(&sb, "\nSign and upload this form as your sample submission form.\n")
	return sb.String()
}
