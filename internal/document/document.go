package document

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("document not found")

// DocType classifies an upload. Result reports are the gated downloads; the
// rest are user-supplied paperwork feeding verification.
type DocType string

const (
	TypeSampleSubmissionForm DocType = "sample_submission_form"
	TypeSafetyDeclaration    DocType = "safety_declaration"
	TypePaymentProof         DocType = "payment_proof"
	TypeResultReport         DocType = "result_report"
)

func ParseDocType(s string) (DocType, error) {
	switch DocType(s) {
	case TypeSampleSubmissionForm, TypeSafetyDeclaration, TypePaymentProof, TypeResultReport:
		return DocType(s), nil
	default:
		return "", fmt.Errorf("unknown document type: %s", s)
	}
}

// IsGated reports whether downloading this type requires the booking to pass
// the document-and-payment gate.
func (t DocType) IsGated() bool {
	return t == TypeResultReport
}

type VerificationStatus string

const (
	StatusPendingVerification VerificationStatus = "pending_verification"
	StatusVerified            VerificationStatus = "verified"
	StatusRejected            VerificationStatus = "rejected"
)

// CanReview reports whether an admin decision is still possible. Rejection is
// terminal per row; the user re-uploads as a new document instead.
func CanReview(s VerificationStatus) bool {
	return s == StatusPendingVerification
}

type Document struct {
	ID           string             `json:"id"`
	BookingID    string             `json:"bookingId"`
	UploadedBy   string             `json:"uploadedBy"`
	Type         DocType            `json:"type"`
	FileName     string             `json:"fileName"`
	StorageKey   string             `json:"-"`
	ContentType  string             `json:"contentType"`
	SizeBytes    int64              `json:"sizeBytes"`
	Status       VerificationStatus `json:"status"`
	RejectReason string             `json:"rejectReason,omitempty"`
	VerifiedBy   *string            `json:"verifiedBy,omitempty"`
	VerifiedAt   *time.Time         `json:"verifiedAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// ServiceForm is the generated paperwork a customer signs and returns. One
// per booking, created at approval.
type ServiceForm struct {
	ID          string     `json:"id"`
	BookingID   string     `json:"bookingId"`
	Status      FormStatus `json:"status"`
	StorageKey  string     `json:"-"`
	GeneratedAt time.Time  `json:"generatedAt"`
	UploadedAt  *time.Time `json:"uploadedAt,omitempty"`
}

type FormStatus string

const (
	FormGenerated      FormStatus = "generated"
	FormSignedUploaded FormStatus = "signed_forms_uploaded"
)
