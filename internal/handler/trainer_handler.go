package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fitsync/internal/model"
	"fitsync/internal/service"
	"fitsync/pkg/apierror"
)

type TrainerHandler struct {
	service *service.TrainerService
}

func NewTrainerHandler(service *service.TrainerService) *TrainerHandler {
	return &TrainerHandler{service: service}
}

func (h *TrainerHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.List(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.service.Search(r.URL.Query().Get("search")), nil)
}

func (h *TrainerHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateTrainerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	trainer, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, trainer, nil)
}

func (h *TrainerHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.UpdateTrainerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	trainer, err := h.service.Update(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, trainer, nil)
}

func (h *TrainerHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	trainerID := chi.URLParam(r, "id")
	if trainerID == "" {
		writeError(w, apierror.BadRequest("trainer id is required", "id"))
		return
	}

	trainer, err := h.service.ToggleStatus(r.Context(), trainerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, trainer, nil)
}
