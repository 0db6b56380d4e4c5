package booking

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
)

// Page size allow-lists per view. Anything else falls back to the first entry.
var (
	userPageSizes  = []int{10, 25, 50}
	adminPageSizes = []int{25, 50, 100}
)

type Handler struct {
	Service  *Service
	DraftTTL time.Duration
}

func actorFrom(r *http.Request) Actor {
	u := api.UserFromContext(r.Context())
	return Actor{ID: u.ID, Role: u.Role}
}

func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var in DraftInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}

	b, err := h.Service.CreateDraft(r.Context(), actorFrom(r), in)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, items, err := h.Service.Get(r.Context(), actorFrom(r), chi.URLParam(r, "bookingID"))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": b, "items": items})
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var in DraftInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}

	b, err := h.Service.SaveDraft(r.Context(), actorFrom(r), chi.URLParam(r, "bookingID"), in)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	b, err := h.Service.Submit(r.Context(), actorFrom(r), chi.URLParam(r, "bookingID"), u.Status)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b, err := h.Service.Cancel(r.Context(), actorFrom(r), chi.URLParam(r, "bookingID"), body.Reason)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteDraft(r.Context(), actorFrom(r), chi.URLParam(r, "bookingID")); err != nil {
		api.WriteErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, userPageSizes)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, adminPageSizes)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, pageSizes []int) {
	f, err := filterFromQuery(r, pageSizes)
	if err != nil {
		api.WriteErr(w, err)
		return
	}

	items, total, err := h.Service.List(r.Context(), actorFrom(r), f)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"items":    items,
		"total":    total,
		"page":     f.Page,
		"pageSize": f.PageSize,
	})
}

func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.CountsByStatus(r.Context(), actorFrom(r))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

func (h *Handler) AdminReview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action string `json:"action"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}

	b, err := h.Service.AdminReview(r.Context(), actorFrom(r), chi.URLParam(r, "bookingID"), ReviewAction(body.Action), body.Note)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) AdminStart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Note string `json:"note"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b, err := h.Service.AdminStart(r.Context(), actorFrom(r), chi.URLParam(r, "bookingID"), body.Note)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) AdminComplete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Note string `json:"note"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b, err := h.Service.AdminComplete(r.Context(), actorFrom(r), chi.URLParam(r, "bookingID"), body.Note)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) BulkReview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs    []string `json:"ids"`
		Action string   `json:"action"`
		Note   string   `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}
	if len(body.IDs) == 0 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "ids must not be empty")
		return
	}

	results, err := h.Service.BulkReview(r.Context(), actorFrom(r), ReviewAction(body.Action), body.IDs, body.Note)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}
	if len(body.IDs) == 0 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "ids must not be empty")
		return
	}

	deleted, err := h.Service.BulkDelete(r.Context(), actorFrom(r), body.IDs)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"requested": len(body.IDs),
		"deleted":   deleted,
	})
}

// PurgeDrafts is the scheduled-job entry point; route it behind the cron key,
// not a user session.
func (h *Handler) PurgeDrafts(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().Add(-h.DraftTTL)
	n, err := h.Service.PurgeExpiredDrafts(r.Context(), cutoff)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"purged": n, "cutoff": cutoff})
}

func filterFromQuery(r *http.Request, pageSizes []int) (ListFilter, error) {
	q := r.URL.Query()

	f := ListFilter{
		Query:     strings.TrimSpace(q.Get("q")),
		SortField: q.Get("sort"),
		SortDir:   q.Get("dir"),
		Page:      1,
	}

	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			s, err := ParseStatus(strings.TrimSpace(part))
			if err != nil {
				return ListFilter{}, api.Validation("", err.Error())
			}
			f.Statuses = append(f.Statuses, s)
		}
	}

	if raw := q.Get("from"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return ListFilter{}, api.Validation("", "invalid from date")
		}
		f.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return ListFilter{}, api.Validation("", "invalid to date")
		}
		f.To = &t
	}

	if raw := q.Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			f.Page = n
		}
	}
	requested, _ := strconv.Atoi(q.Get("pageSize"))
	f.PageSize = AllowPageSize(requested, pageSizes)

	return f, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
