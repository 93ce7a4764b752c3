package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fitsync/internal/middleware"
	"fitsync/internal/service"
	"fitsync/pkg/apierror"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	// Warm the cache before filtering so a cold store still answers. An
	// empty search resets the filter to the full directory.
	if _, err := h.service.List(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.service.Search(r.URL.Query().Get("search")), nil)
}

func (h *UserHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, apierror.BadRequest("user id is required", "id"))
		return
	}

	actorID := ""
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actorID = claims.UserID
	}

	user, err := h.service.ToggleStatus(r.Context(), userID, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}
