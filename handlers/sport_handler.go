package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
)

type SportHandler struct {
	sportService services.SportService
}

func NewSportHandler(sportService services.SportService) *SportHandler {
	return &SportHandler{sportService: sportService}
}

type createSportRequest struct {
	Name string `json:"name"`
}

func (h *SportHandler) CreateSport(w http.ResponseWriter, r *http.Request) {
	var input createSportRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	sport, err := h.sportService.CreateSport(r.Context(), input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sport, nil)
}

func (h *SportHandler) GetSport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		notFoundResponse(w, r)
		return
	}
	sport, err := h.sportService.GetSportByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sport, nil)
}

func (h *SportHandler) ListSports(w http.ResponseWriter, r *http.Request) {
	sports, err := h.sportService.ListSports(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"sports": sports}, nil)
}
