package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
)

type BracketHandler struct {
	bracketService   services.BracketService
	standingsService services.StandingsService
}

func NewBracketHandler(bracketService services.BracketService, standingsService services.StandingsService) *BracketHandler {
	return &BracketHandler{
		bracketService:   bracketService,
		standingsService: standingsService,
	}
}

type createBracketRequest struct {
	Name    string             `json:"name"`
	SportID int                `json:"sport_id"`
	Mode    models.BracketMode `json:"mode"`
	TeamIDs []int              `json:"team_ids"`
}

func (h *BracketHandler) CreateBracket(w http.ResponseWriter, r *http.Request) {
	var input createBracketRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	bracket, err := h.bracketService.CreateBracket(r.Context(), services.CreateBracketParams{
		Name:    input.Name,
		SportID: input.SportID,
		Mode:    input.Mode,
		TeamIDs: input.TeamIDs,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bracket, nil)
}

func (h *BracketHandler) GenerateBracket(w http.ResponseWriter, r *http.Request) {
	bracketID, ok := bracketIDParam(w, r)
	if !ok {
		return
	}
	matches, err := h.bracketService.GenerateBracket(r.Context(), bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil)
}

func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	bracketID, ok := bracketIDParam(w, r)
	if !ok {
		return
	}
	snapshot, err := h.bracketService.GetBracketSnapshot(r.Context(), bracketID, includeHidden(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot, nil)
}

func (h *BracketHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	bracketID, ok := bracketIDParam(w, r)
	if !ok {
		return
	}
	matches, err := h.bracketService.ListMatches(r.Context(), bracketID, includeHidden(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil)
}

func (h *BracketHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	bracketID, ok := bracketIDParam(w, r)
	if !ok {
		return
	}
	standings, err := h.standingsService.GetStandings(r.Context(), bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil)
}

func (h *BracketHandler) DeleteBracket(w http.ResponseWriter, r *http.Request) {
	bracketID, ok := bracketIDParam(w, r)
	if !ok {
		return
	}
	if err := h.bracketService.DeleteBracket(r.Context(), bracketID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bracketIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "bracketID"))
	if err != nil || id <= 0 {
		notFoundResponse(w, r)
		return 0, false
	}
	return id, true
}

func includeHidden(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("include_hidden"))
	return err == nil && v
}
