package sample

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
)

type Handler struct {
	Service *Service
}

func (h *Handler) ListForBooking(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	samples, err := h.Service.ListForBooking(r.Context(), u, chi.URLParam(r, "bookingID"))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"samples": samples})
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}
	to, err := ParseStatus(body.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	u := api.UserFromContext(r.Context())
	t, err := h.Service.Advance(r.Context(), u, chi.URLParam(r, "sampleID"), to, body.Notes)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, t)
}
