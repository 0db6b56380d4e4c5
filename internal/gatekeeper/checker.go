package gatekeeper

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Checker loads a booking's requirements and verification snapshot from the
// database and runs them through Evaluate. Call it fresh on every gated
// download; eligibility is never cached.
type Checker struct {
	db *pgxpool.Pool
}

func NewChecker(pool *pgxpool.Pool) *Checker {
	return &Checker{db: pool}
}

// Check recomputes download eligibility for the booking.
func (c *Checker) Check(ctx context.Context, bookingID string) (Decision, error) {
	req, err := c.requirements(ctx, bookingID)
	if err != nil {
		return Decision{}, err
	}
	snap, err := c.snapshot(ctx, bookingID)
	if err != nil {
		return Decision{}, err
	}
	return Evaluate(req, snap), nil
}

// VerificationState is the per-condition breakdown shown on the booking page.
type VerificationState struct {
	FormVerified     bool `json:"formVerified"`
	WorkAreaRequired bool `json:"workAreaRequired"`
	WorkAreaVerified bool `json:"workAreaVerified"`
	PaymentVerified  bool `json:"paymentVerified"`
}

// State reports each gate condition separately.
func (c *Checker) State(ctx context.Context, bookingID string) (VerificationState, error) {
	req, err := c.requirements(ctx, bookingID)
	if err != nil {
		return VerificationState{}, err
	}
	snap, err := c.snapshot(ctx, bookingID)
	if err != nil {
		return VerificationState{}, err
	}

	verified := make(map[string]bool, len(snap.VerifiedDocTypes))
	for _, t := range snap.VerifiedDocTypes {
		verified[t] = true
	}
	st := VerificationState{
		FormVerified:    verified["sample_submission_form"],
		PaymentVerified: snap.VerifiedPaid.GreaterThanOrEqual(req.AmountDue),
	}
	for _, t := range req.RequiredDocTypes {
		if t == "safety_declaration" {
			st.WorkAreaRequired = true
			st.WorkAreaVerified = verified[t]
		}
	}
	return st, nil
}

func (c *Checker) requirements(ctx context.Context, bookingID string) (Requirements, error) {
	const q = `SELECT requires_work_area, total_amount::text FROM bookings WHERE id = $1`
	var requiresWorkArea bool
	var totalStr string
	if err := c.db.QueryRow(ctx, q, bookingID).Scan(&requiresWorkArea, &totalStr); err != nil {
		return Requirements{}, err
	}
	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return Requirements{}, err
	}

	docs := []string{"sample_submission_form"}
	if requiresWorkArea {
		docs = append(docs, "safety_declaration")
	}
	return Requirements{RequiredDocTypes: docs, AmountDue: total}, nil
}

func (c *Checker) snapshot(ctx context.Context, bookingID string) (Snapshot, error) {
	const qDocs = `
SELECT DISTINCT doc_type
FROM booking_documents
WHERE booking_id = $1 AND status = 'verified'
`
	rows, err := c.db.Query(ctx, qDocs, bookingID)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()

	var snap Snapshot
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return Snapshot{}, err
		}
		snap.VerifiedDocTypes = append(snap.VerifiedDocTypes, t)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	const qPaid = `
SELECT COALESCE(SUM(amount), 0)::text
FROM payments
WHERE booking_id = $1 AND status = 'verified'
`
	var paidStr string
	if err := c.db.QueryRow(ctx, qPaid, bookingID).Scan(&paidStr); err != nil {
		return Snapshot{}, err
	}
	if snap.VerifiedPaid, err = decimal.NewFromString(paidStr); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
