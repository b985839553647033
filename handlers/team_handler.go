package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(teamService services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

type createTeamRequest struct {
	Name    string `json:"name"`
	SportID int    `json:"sport_id"`
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var input createTeamRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	team, err := h.teamService.CreateTeam(r.Context(), input.Name, input.SportID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team, nil)
}

func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		notFoundResponse(w, r)
		return
	}
	team, err := h.teamService.GetTeamByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team, nil)
}

// ListSportTeams serves the nested form, GET /sports/{id}/teams.
func (h *TeamHandler) ListSportTeams(w http.ResponseWriter, r *http.Request) {
	sportID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || sportID <= 0 {
		notFoundResponse(w, r)
		return
	}
	teams, err := h.teamService.ListTeamsBySport(r.Context(), sportID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil)
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	sportID, err := strconv.Atoi(r.URL.Query().Get("sport_id"))
	if err != nil || sportID <= 0 {
		badRequestResponse(w, r, errors.New("sport_id query parameter is required"))
		return
	}
	teams, err := h.teamService.ListTeamsBySport(r.Context(), sportID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil)
}
