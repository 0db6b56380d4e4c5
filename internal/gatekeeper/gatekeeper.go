package gatekeeper

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Requirements is what a booking demands before gated downloads unlock:
// every required document type verified, and verified payments covering the
// amount due.
type Requirements struct {
	RequiredDocTypes []string
	AmountDue        decimal.Decimal
}

// Snapshot is the booking's current verification state.
type Snapshot struct {
	VerifiedDocTypes []string
	VerifiedPaid     decimal.Decimal
}

// Decision is the gate's verdict. Reason is human-readable and safe to return
// to the booking owner.
type Decision struct {
	Eligible    bool            `json:"eligible"`
	Reason      string          `json:"reason,omitempty"`
	MissingDocs []string        `json:"missingDocs,omitempty"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// Evaluate is pure: no clock, no storage. Both conditions must hold; when
// both fail the reason names both.
func Evaluate(req Requirements, snap Snapshot) Decision {
	verified := make(map[string]bool, len(snap.VerifiedDocTypes))
	for _, t := range snap.VerifiedDocTypes {
		verified[t] = true
	}

	var missing []string
	for _, t := range req.RequiredDocTypes {
		if !verified[t] {
			missing = append(missing, t)
		}
	}

	outstanding := req.AmountDue.Sub(snap.VerifiedPaid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	var reasons []string
	if len(missing) > 0 {
		reasons = append(reasons, fmt.Sprintf("unverified documents: %s", strings.Join(missing, ", ")))
	}
	if outstanding.IsPositive() {
		reasons = append(reasons, fmt.Sprintf("outstanding balance: %s", outstanding.StringFixed(2)))
	}

	return Decision{
		Eligible:    len(reasons) == 0,
		Reason:      strings.Join(reasons, "; "),
		MissingDocs: missing,
		Outstanding: outstanding,
	}
}
