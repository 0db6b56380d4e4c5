package document

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rithbennet/checa-booking-systems-sub004/internal/api"
)

// maxUploadBytes bounds a single document upload.
const maxUploadBytes = 20 << 20

type Handler struct {
	Service *Service
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_UPLOAD", "invalid multipart body")
		return
	}

	docType, err := ParseDocType(r.FormValue("type"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_UPLOAD", "missing file field")
		return
	}
	defer file.Close()

	u := api.UserFromContext(r.Context())
	d, err := h.Service.Upload(r.Context(), u, chi.URLParam(r, "bookingID"), docType,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) ListByBooking(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	docs, err := h.Service.ListByBooking(r.Context(), u, chi.URLParam(r, "bookingID"))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	d, err := h.Service.Verify(r.Context(), u, chi.URLParam(r, "documentID"))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}

	u := api.UserFromContext(r.Context())
	d, err := h.Service.Reject(r.Context(), u, chi.URLParam(r, "documentID"), body.Reason)
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if err := h.Service.Delete(r.Context(), u, chi.URLParam(r, "documentID")); err != nil {
		api.WriteErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	rc, d, err := h.Service.Download(r.Context(), u, chi.URLParam(r, "documentID"))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	defer rc.Close()

	if d.ContentType != "" {
		w.Header().Set("Content-Type", d.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.FileName))
	_, _ = io.Copy(w, rc)
}

func (h *Handler) GenerateForm(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	f, err := h.Service.GenerateForm(r.Context(), u, chi.URLParam(r, "bookingID"))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) DownloadForm(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	rc, _, err := h.Service.DownloadForm(r.Context(), u, chi.URLParam(r, "bookingID"))
	if err != nil {
		api.WriteErr(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="service-form.txt"`)
	_, _ = io.Copy(w, rc)
}
