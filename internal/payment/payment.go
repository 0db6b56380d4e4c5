package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/gatekeeper"
)

var ErrNotFound = errors.New("payment not found")

type InvoiceStatus string

const (
	InvoiceIssued InvoiceStatus = "issued"
	InvoicePaid   InvoiceStatus = "paid"
	InvoiceVoid   InvoiceStatus = "void"
)

type Invoice struct {
	ID        string          `json:"id"`
	BookingID string          `json:"bookingId"`
	Number    string          `json:"number"`
	Amount    decimal.Decimal `json:"amount"`
	Status    InvoiceStatus   `json:"status"`
	IssuedAt  time.Time       `json:"issuedAt"`
	DueAt     *time.Time      `json:"dueAt,omitempty"`
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending_verification"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// Payment is a customer-reported transfer awaiting admin verification. Only
// verified payments count toward the gate.
type Payment struct {
	ID          string          `json:"id"`
	BookingID   string          `json:"bookingId"`
	InvoiceID   *string         `json:"invoiceId,omitempty"`
	SubmittedBy string          `json:"submittedBy"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference,omitempty"`
	Status      PaymentStatus   `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	VerifiedBy  *string         `json:"verifiedBy,omitempty"`
	VerifiedAt  *time.Time      `json:"verifiedAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// FinanceOverview is the per-booking money picture plus the gate verdict.
type FinanceOverview struct {
	BookingID   string              `json:"bookingId"`
	AmountDue   decimal.Decimal     `json:"amountDue"`
	Invoiced    decimal.Decimal     `json:"invoiced"`
	Verified    decimal.Decimal     `json:"verified"`
	Pending     decimal.Decimal     `json:"pending"`
	Outstanding decimal.Decimal     `json:"outstanding"`
	Gate        gatekeeper.Decision `json:"gate"`
}

// NewInvoiceNumber follows the booking reference shape with its own prefix.
func NewInvoiceNumber(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("INV-%s-%s", now.Format("200601"), strings.ToUpper(fmt.Sprintf("%x", id[0:3])))
}
