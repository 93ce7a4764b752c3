package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"fitsync/internal/middleware"
	"fitsync/internal/model"
	"fitsync/internal/service"
	"fitsync/pkg/apierror"
)

type EntryLogHandler struct {
	service *service.EntryLogService
}

func NewEntryLogHandler(service *service.EntryLogService) *EntryLogHandler {
	return &EntryLogHandler{service: service}
}

func (h *EntryLogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.All(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.service.Search(r.URL.Query().Get("search")), nil)
}

// UserHistory returns only the caller's own check-ins.
func (h *EntryLogHandler) UserHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	logs, err := h.service.UserHistory(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, logs, nil)
}

// CheckIn records an entry. Members check themselves in; staff may check in
// another member by id (front-desk flow).
func (h *EntryLogHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	var payload model.CreateEntryLogRequest
	if r.Body != http.NoBody {
		// An empty body is fine; it means "check me in".
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	userID := strings.TrimSpace(payload.UserID)
	if userID == "" || claims.Role == model.RoleUser {
		userID = claims.UserID
	}

	entry, err := h.service.CheckIn(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, entry, nil)
}
