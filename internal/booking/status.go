package booking

import "fmt"

type Status string

const (
	StatusDraft                   Status = "draft"
	StatusPendingUserVerification Status = "pending_user_verification"
	StatusPendingApproval         Status = "pending_approval"
	StatusRevisionRequested       Status = "revision_requested"
	StatusRevisionSubmitted       Status = "revision_submitted"
	StatusApproved                Status = "approved"
	StatusInProgress              Status = "in_progress"
	StatusCompleted               Status = "completed"
	StatusRejected                Status = "rejected"
	StatusCancelled               Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusPendingUserVerification, StatusPendingApproval,
		StatusRevisionRequested, StatusRevisionSubmitted, StatusApproved,
		StatusInProgress, StatusCompleted, StatusRejected, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusDraft:                   {StatusPendingApproval: true, StatusPendingUserVerification: true, StatusCancelled: true},
	StatusPendingUserVerification: {StatusPendingApproval: true, StatusCancelled: true},
	StatusPendingApproval:         {StatusApproved: true, StatusRejected: true, StatusRevisionRequested: true, StatusCancelled: true},
	StatusRevisionRequested:       {StatusRevisionSubmitted: true, StatusCancelled: true},
	StatusRevisionSubmitted:       {StatusApproved: true, StatusRejected: true, StatusRevisionRequested: true, StatusCancelled: true},
	StatusApproved:                {StatusInProgress: true, StatusCancelled: true},
	StatusInProgress:              {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:               {},
	StatusRejected:                {},
	StatusCancelled:               {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// IsTerminal statuses accept no further transitions; the booking is immutable
// except for document and payment attachments.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

// IsEditable reports whether the owner may still change booking contents.
func IsEditable(s Status) bool {
	return s == StatusDraft || s == StatusRevisionRequested
}

// ReviewableStatuses are the legal sources for admin approve/reject/return.
var ReviewableStatuses = []Status{StatusPendingApproval, StatusRevisionSubmitted}

// SubmittableStatuses are the legal sources for an owner submit.
var SubmittableStatuses = []Status{StatusDraft, StatusRevisionRequested}

// BulkDeletableStatuses bound the bulk hard-delete; everything else must go
// through cancellation.
var BulkDeletableStatuses = []Status{StatusDraft, StatusRejected, StatusCancelled, StatusRevisionRequested}

// NonTerminalStatuses lists every status from which cancel is legal.
func NonTerminalStatuses() []Status {
	out := make([]Status, 0, len(allowedTransitions))
	for s := range allowedTransitions {
		if !IsTerminal(s) {
			out = append(out, s)
		}
	}
	return out
}
