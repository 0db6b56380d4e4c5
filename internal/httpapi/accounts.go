package httpapi

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/audit"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/booking"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/user"
)

// accountHandler covers the admin-side account operations that cut across
// users and bookings: activating a pending account releases every booking
// parked behind user verification.
type accountHandler struct {
	users    *user.Repository
	bookings *booking.Repository
	audit    *audit.Recorder
}

func (h *accountHandler) Verify(w http.ResponseWriter, r *http.Request) {
	admin := api.UserFromContext(r.Context())
	userID := chi.URLParam(r, "userID")

	target, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	if err := h.users.MarkVerified(r.Context(), userID); err != nil {
		api.WriteErr(w, err)
		return
	}

	// Release bookings that were waiting on this account.
	parked, _, err := h.bookings.List(r.Context(), booking.ListFilter{
		UserID:   userID,
		Statuses: []booking.Status{booking.StatusPendingUserVerification},
		Page:     1,
		PageSize: 100,
	})
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	released := 0
	for _, b := range parked {
		if _, err := h.bookings.Transition(r.Context(), b.ID,
			[]booking.Status{booking.StatusPendingUserVerification},
			booking.StatusPendingApproval, nil); err != nil {
			log.Printf("account verify: release booking %s: %v", b.ID, err)
			continue
		}
		released++
	}

	h.audit.Record(r.Context(), audit.Entry{
		UserID: admin.ID, Action: "ACCOUNT_VERIFIED", Entity: "user", EntityID: userID,
		Metadata: map[string]any{"email": target.Email, "bookingsReleased": released},
	})
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"userId":           userID,
		"status":           user.AccountActive,
		"bookingsReleased": released,
	})
}
