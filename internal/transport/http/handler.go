package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"faultline/internal/bootstrap/logging"
	"faultline/internal/domain/defect"
	"faultline/internal/errs"
	defectuc "faultline/internal/usecase/defect"
	syncuc "faultline/internal/usecase/sync"
)

type Handler struct {
	defects *defectuc.Service
	syncer  *syncuc.Processor
}

func NewHandler(defects *defectuc.Service, syncer *syncuc.Processor) *Handler {
	return &Handler{defects: defects, syncer: syncer}
}

func actorFromRequest(r *http.Request) defectuc.Actor {
	return defectuc.Actor{
		ID:   r.Header.Get("X-Actor-Id"),
		Name: r.Header.Get("X-Actor-Name"),
		Role: defect.Role(r.Header.Get("X-Actor-Role")),
	}
}

func (h *Handler) createDefect(w http.ResponseWriter, r *http.Request) {
	var input defectuc.CreateDefectInput
	if !decodeBody(w, r, &input) {
		return
	}
	d, err := h.defects.Create(r.Context(), actorFromRequest(r), input)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, d)
}

func (h *Handler) getDefect(w http.ResponseWriter, r *http.Request) {
	d, err := h.defects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, d)
}

func (h *Handler) getDefectByCode(w http.ResponseWriter, r *http.Request) {
	d, err := h.defects.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, d)
}

func (h *Handler) defectStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, err := h.defects.Status(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"id": id, "status": string(status)})
}

func (h *Handler) updateDefect(w http.ResponseWriter, r *http.Request) {
	var input defectuc.UpdateDefectInput
	if !decodeBody(w, r, &input) {
		return
	}
	d, err := h.defects.Update(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, d)
}

func (h *Handler) deleteDefect(w http.ResponseWriter, r *http.Request) {
	if err := h.defects.Delete(r.Context(), actorFromRequest(r), chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Body string `json:"body"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	d, err := h.defects.AddComment(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), input.Body)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, d)
}

func (h *Handler) closeDefect(w http.ResponseWriter, r *http.Request) {
	var input defectuc.CloseDefectInput
	if !decodeBody(w, r, &input) {
		return
	}
	d, err := h.defects.Close(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, d)
}

func (h *Handler) reopenDefect(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Mode string `json:"mode"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	d, err := h.defects.Reopen(r.Context(), actorFromRequest(r), chi.URLParam(r, "id"), defectuc.ReopenDefectInput{
		Mode: defectuc.ReopenMode(input.Mode),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, d)
}

func (h *Handler) queryDefects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := defectuc.QueryFilter{
		Status:        q.Get("status"),
		Severity:      q.Get("severity"),
		SeverityModel: q.Get("model"),
		AssetID:       q.Get("asset_id"),
		LocationID:    q.Get("location_id"),
		SiteID:        q.Get("site_id"),
		AssigneeID:    q.Get("assignee_id"),
		ComplianceTag: q.Get("compliance_tag"),
		Overdue:       q.Get("overdue") == "true",
		Unsafe:        q.Get("unsafe") == "true",
		Unassigned:    q.Get("unassigned") == "true",
		Search:        q.Get("search"),
	}
	defects, err := h.defects.Query(r.Context(), filter)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"defects": defects, "count": len(defects)})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.defects.Summarize(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, summary)
}

func (h *Handler) resolveDefect(w http.ResponseWriter, r *http.Request) {
	d, err := h.defects.Resolve(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if d == nil {
		writeJSON(r.Context(), w, http.StatusNotFound, map[string]string{"error": "no defect matches the query"})
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, d)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.defects.Settings(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, settings)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var input defectuc.UpdateSettingsInput
	if !decodeBody(w, r, &input) {
		return
	}
	settings, err := h.defects.UpdateSettings(r.Context(), actorFromRequest(r), input)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, settings)
}

func (h *Handler) flushOutbox(w http.ResponseWriter, r *http.Request) {
	report, err := h.syncer.Flush(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, report)
}

func (h *Handler) syncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.syncer.Status(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, status)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn(ctx, "encode response", slog.Any("error", errs.Loggable(err)))
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]any{"error": err.Error()}

	switch {
	case errors.Is(err, defect.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, defect.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, defect.ErrValidationFailed):
		status = http.StatusUnprocessableEntity
		var verr *defect.ValidationError
		if errors.As(err, &verr) {
			body["reasons"] = verr.Reasons
		}
	default:
		logging.Error(ctx, "request failed", slog.Any("error", errs.Loggable(err)))
		body = map[string]any{"error": "internal error"}
	}

	writeJSON(ctx, w, status, body)
}
