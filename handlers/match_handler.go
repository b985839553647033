package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type matchResultRequest struct {
	WinnerID   int  `json:"winner_id"`
	ScoreTeam1 *int `json:"score_team1,omitempty"`
	ScoreTeam2 *int `json:"score_team2,omitempty"`
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDParam(w, r)
	if !ok {
		return
	}
	match, err := h.matchService.GetMatchByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match, nil)
}

func (h *MatchHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDParam(w, r)
	if !ok {
		return
	}
	match, err := h.matchService.StartMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match, nil)
}

// SubmitResult записывает результат матча и продвигает сетку.
func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDParam(w, r)
	if !ok {
		return
	}
	var input matchResultRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	outcome, err := h.matchService.SubmitResult(r.Context(), services.SubmitResultParams{
		MatchID:    matchID,
		WinnerID:   input.WinnerID,
		ScoreTeam1: input.ScoreTeam1,
		ScoreTeam2: input.ScoreTeam2,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome, nil)
}

func (h *MatchHandler) CorrectResult(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDParam(w, r)
	if !ok {
		return
	}
	var input matchResultRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	outcome, err := h.matchService.CorrectResult(r.Context(), services.SubmitResultParams{
		MatchID:    matchID,
		WinnerID:   input.WinnerID,
		ScoreTeam1: input.ScoreTeam1,
		ScoreTeam2: input.ScoreTeam2,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome, nil)
}

func matchIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "matchID"))
	if err != nil || id <= 0 {
		notFoundResponse(w, r)
		return 0, false
	}
	return id, true
}
