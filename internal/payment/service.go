package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/audit"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/booking"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/gatekeeper"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
)

type Store interface {
	CreateInvoice(ctx context.Context, bookingID, number string, amount decimal.Decimal, dueAt *time.Time) (*Invoice, error)
	ListInvoicesByBooking(ctx context.Context, bookingID string) ([]Invoice, error)
	SubmitPayment(ctx context.Context, p *Payment) (*Payment, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
	ListPaymentsByBooking(ctx context.Context, bookingID string) ([]Payment, error)
	SetVerification(ctx context.Context, id string, to PaymentStatus, reviewedBy, notes string, at time.Time) (*Payment, error)
	Sums(ctx context.Context, bookingID string) (invoiced, verified, pending decimal.Decimal, err error)
}

type BookingGetter interface {
	Get(ctx context.Context, id string) (*booking.Booking, error)
}

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
	bookings BookingGetter
	gate     Gate
	audit    AuditLogger
	notify   Notifier
	now      func() time.Time
}

func NewService(store Store, bookings BookingGetter, gate Gate, auditLog AuditLogger, notifier Notifier) *Service {
	return &Service{
		store:    store,
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

// IssueInvoice creates an invoice against the booking's current total.
func (s *Service) IssueInvoice(ctx context.Context, actor *user.User, bookingID string, dueAt *time.Time) (*Invoice, error) {
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

	inv, err := s.store.CreateInvoice(ctx, bookingID, NewInvoiceNumber(s.now()), b.TotalAmount, dueAt)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "INVOICE_ISSUED", Entity: "invoice", EntityID: inv.ID,
		Metadata: map[string]any{"bookingId": bookingID, "number": inv.Number, "amount": inv.Amount},
	})
	s.notify.BookingEvent(ctx, b.UserID, bookingID, "invoice_issued",
		fmt.Sprintf("Invoice %s for %s was issued", inv.Number, inv.Amount.StringFixed(2)), nil)
	return inv, nil
}

// SubmitPayment records a customer-reported transfer for admin review.
func (s *Service) SubmitPayment(ctx context.Context, actor *user.User, bookingID string, amount decimal.Decimal, method, reference string, invoiceID *string) (*Payment, error) {
	if _, err := s.bookingFor(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, api.Validation("", "payment amount must be positive")
	}
	if strings.TrimSpace(method) == "" {
		return nil, api.Validation("", "payment method is required")
	}

	p, err := s.store.SubmitPayment(ctx, &Payment{
		BookingID:   bookingID,
		InvoiceID:   invoiceID,
		SubmittedBy: actor.ID,
		Amount:      amount,
		Method:      method,
		Reference:   reference,
	})
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: "PAYMENT_SUBMITTED", Entity: "payment", EntityID: p.ID,
		Metadata: map[string]any{"bookingId": bookingID, "amount": amount, "method": method},
	})
	return p, nil
}

func (s *Service) Verify(ctx context.Context, actor *user.User, paymentID string) (*Payment, error) {
	return s.review(ctx, actor, paymentID, PaymentVerified, "")
}

// Reject requires notes explaining what was wrong with the reported payment.
func (s *Service) Reject(ctx context.Context, actor *user.User, paymentID, notes string) (*Payment, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, api.Validation("", "rejection notes are required")
	}
	return s.review(ctx, actor, paymentID, PaymentRejected, notes)
}

func (s *Service) review(ctx context.Context, actor *user.User, paymentID string, to PaymentStatus, notes string) (*Payment, error) {
	if !actor.IsAdmin() {
		return nil, api.Forbidden("admin role required")
	}

	p, err := s.store.SetVerification(ctx, paymentID, to, actor.ID, notes, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, api.NotFound("payment not found")
		}
		var vc *VerifyConflictError
		if errors.As(err, &vc) {
			return nil, api.InvalidState(vc.Error())
		}
		return nil, err
	}

	action, event, message := "PAYMENT_VERIFIED", "payment_verified", "Your payment was verified"
	if to == PaymentRejected {
		action, event, message = "PAYMENT_REJECTED", "payment_rejected", "Your payment could not be verified: "+notes
	}
	s.audit.Record(ctx, audit.Entry{
		UserID: actor.ID, Action: action, Entity: "payment", EntityID: paymentID,
		Metadata: map[string]any{"bookingId": p.BookingID, "notes": notes},
	})
	s.notify.BookingEvent(ctx, p.SubmittedBy, p.BookingID, event, message, map[string]any{"paymentId": paymentID})
	return p, nil
}

func (s *Service) ListForBooking(ctx context.Context, actor *user.User, bookingID string) ([]Invoice, []Payment, error) {
	if _, err := s.bookingFor(ctx, actor, bookingID); err != nil {
		return nil, nil, err
	}
	invoices, err := s.store.ListInvoicesByBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.store.ListPaymentsByBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	return invoices, payments, nil
}

// Overview assembles the booking's money picture and the live gate verdict.
func (s *Service) Overview(ctx context.Context, actor *user.User, bookingID string) (*FinanceOverview, error) {
	b, err := s.bookingFor(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	invoiced, verified, pending, err := s.store.Sums(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	decision, err := s.gate.Check(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	outstanding := b.TotalAmount.Sub(verified)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	return &FinanceOverview{
		BookingID:   bookingID,
		AmountDue:   b.TotalAmount,
		Invoiced:    invoiced,
		Verified:    verified,
		Pending:     pending,
		Outstanding: outstanding,
		Gate:        decision,
	}, nil
}
