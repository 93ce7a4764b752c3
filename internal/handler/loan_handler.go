package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fitsync/internal/middleware"
	"fitsync/internal/model"
	"fitsync/internal/service"
	"fitsync/pkg/apierror"
)

type LoanHandler struct {
	service *service.LoanService
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{service: service}
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.List(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.service.Search(r.URL.Query().Get("search")), nil)
}

// Create borrows equipment. A regular member always borrows for themself;
// staff may borrow on another member's behalf by setting user_id.
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	var payload model.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	userID := strings.TrimSpace(payload.UserID)
	if userID == "" || claims.Role == model.RoleUser {
		userID = claims.UserID
	}

	loan, err := h.service.Create(r.Context(), userID, payload.EquipmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, loan, nil)
}

func (h *LoanHandler) Complete(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	if loanID == "" {
		writeError(w, apierror.BadRequest("loan id is required", "id"))
		return
	}

	actorID := ""
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		actorID = claims.UserID
	}

	loan, err := h.service.Complete(r.Context(), loanID, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, loan, nil)
}
