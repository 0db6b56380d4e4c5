package sample

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("sample not found")

// StepError reports an advance that does not match the sample's only legal
// next step.
type StepError struct {
	Current Status
	Target  Status
}

func (e *StepError) Error() string {
	next := Next(e.Current)
	if next == "" {
		return fmt.Sprintf("sample is %s, which is final", e.Current)
	}
	return fmt.Sprintf("sample is %s, next step is %s, got %s", e.Current, next, e.Target)
}

// Tracking is one sample's lab-side state, attached to a booking service item.
// Rows are created lazily once the booking reaches the lab.
type Tracking struct {
	ID        string    `json:"id"`
	BookingID string    `json:"bookingId"`
	ItemID    string    `json:"itemId"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedBy *string   `json:"updatedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
