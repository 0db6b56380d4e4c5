package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/booking"
	"github.com/rithbennet/checa-booking-systems-sub004/internal/gatekeeper"
)

// gateHandler exposes the gate verdicts directly so the portal can show the
// owner what still blocks their result downloads.
type gateHandler struct {
	checker  *gatekeeper.Checker
	bookings *booking.Repository
}

func (h *gateHandler) allowed(r *http.Request, bookingID string) error {
	b, err := h.bookings.Get(r.Context(), bookingID)
	if err != nil {
		return api.NotFound("booking not found")
	}
	u := api.UserFromContext(r.Context())
	if b.UserID != u.ID && !u.IsAdmin() {
		return api.Forbidden("not the booking owner")
	}
	return nil
}

func (h *gateHandler) VerificationState(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	if err := h.allowed(r, bookingID); err != nil {
		api.WriteErr(w, err)
		return
	}
	st, err := h.checker.State(r.Context(), bookingID)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, st)
}

func (h *gateHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	if err := h.allowed(r, bookingID); err != nil {
		api.WriteErr(w, err)
		return
	}
	decision, err := h.checker.Check(r.Context(), bookingID)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, decision)
}
