package payment

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
)

type Handler struct {
	Service *Service
}

func (h *Handler) IssueInvoice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DueAt *time.Time `json:"dueAt"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	u := api.UserFromContext(r.Context())
	inv, err := h.Service.IssueInvoice(r.Context(), u, chi.URLParam(r, "bookingID"), body.DueAt)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, inv)
}

func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount    string  `json:"amount"`
		Method    string  `json:"method"`
		Reference string  `json:"reference"`
		InvoiceID *string `json:"invoiceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid amount")
		return
	}

	u := api.UserFromContext(r.Context())
	p, err := h.Service.SubmitPayment(r.Context(), u, chi.URLParam(r, "bookingID"),
		amount, body.Method, body.Reference, body.InvoiceID)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	p, err := h.Service.Verify(r.Context(), u, chi.URLParam(r, "paymentID"))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}

	u := api.UserFromContext(r.Context())
	p, err := h.Service.Reject(r.Context(), u, chi.URLParam(r, "paymentID"), body.Notes)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ListForBooking(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	invoices, payments, err := h.Service.ListForBooking(r.Context(), u, chi.URLParam(r, "bookingID"))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"invoices": invoices,
		"payments": payments,
	})
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	ov, err := h.Service.Overview(r.Context(), u, chi.URLParam(r, "bookingID"))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, ov)
}
