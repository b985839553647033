package models

import "time"

type MatchStatus string

const (
	StatusScheduled      MatchStatus = "scheduled"
	StatusInProgress     MatchStatus = "ongoing"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusHidden    MatchStatus = "hidden"
)

// BracketType различает ветки сетки double elimination. Для single
// elimination и round robin все матчи лежат в winner-ветке.
type BracketType string

const (
	BracketTypeWinner       BracketType = "winner"
	BracketTypeLoser        BracketType = "loser"
	BracketTypeChampionship BracketType = "championship"
)

// MatchStage is the tagged stage of a match. The legacy integer round
// encoding (1.., 101.., 200, 201) is derived from it, never stored.
type MatchStage string

const (
	StageRegular    MatchStage = "regular"
	StageGrandFinal MatchStage = "grand_final"
	StageResetFinal MatchStage = "reset_final"
)

const (
	loserRoundOffset       = 100
	grandFinalRoundNumber  = 200
	resetFinalRoundNumber  = 201
)

type Match struct {
	ID              int         `json:"id" db:"id"`
	BracketID       int         `json:"bracket_id" db:"bracket_id"`
	BracketType     BracketType `json:"bracket_type" db:"bracket_type"`
	Stage           MatchStage  `json:"stage" db:"stage"`
	Round           int         `json:"round" db:"round"`
	OrderInRound    int         `json:"order_in_round" db:"order_in_round"`
	BracketMatchUID string      `json:"bracket_match_uid" db:"bracket_match_uid"`

	Team1ID *int `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID *int `json:"team2_id,omitempty" db:"team2_id"`

	Status   MatchStatus `json:"status" db:"status"`
	WinnerID *int        `json:"winner_id,omitempty" db:"winner_id"`
	LoserID  *int        `json:"loser_id,omitempty" db:"loser_id"`

	ScoreTeam1 *int `json:"score_team1,omitempty" db:"score_team1"`
	ScoreTeam2 *int `json:"score_team2,omitempty" db:"score_team2"`

	// Forward pointers: where the winner/loser of this match land, and in
	// which slot of that match. Loser pointers exist only in double
	// elimination winner-bracket matches.
	NextMatchWinnerID *int `json:"next_match_winner_id,omitempty" db:"next_match_winner_id"`
	WinnerSlot        *int `json:"winner_slot,omitempty" db:"winner_slot"`
	NextMatchLoserID  *int `json:"next_match_loser_id,omitempty" db:"next_match_loser_id"`
	LoserSlot         *int `json:"loser_slot,omitempty" db:"loser_slot"`

	// IsBye marks a match that only ever receives one live team: it
	// auto-completes with that team as winner (first-round byes at
	// generation time, loser-bracket byes when the single team arrives).
	IsBye bool `json:"is_bye" db:"is_bye"`

	// GenerationID ties the row to the generate call that produced it.
	GenerationID string    `json:"-" db:"generation_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// RoundNumber is the derived UI-facing round encoding, populated after
	// scan. See DisplayRound.
	RoundNumber int `json:"round_number" db:"-"`
}

// DisplayRound derives the legacy single-integer round encoding consumed by
// bracket visualisation clients: winner rounds count 1.. toward the final,
// loser rounds are offset by 100, the grand final is 200 and the reset
// final 201.
func (m *Match) DisplayRound() int {
	switch m.Stage {
	case StageGrandFinal:
		return grandFinalRoundNumber
	case StageResetFinal:
		return resetFinalRoundNumber
	}
	if m.BracketType == BracketTypeLoser {
		return loserRoundOffset + m.Round
	}
	return m.Round
}

// HasTeam reports whether teamID occupies one of the match slots.
func (m *Match) HasTeam(teamID int) bool {
	if m.Team1ID != nil && *m.Team1ID == teamID {
		return true
	}
	return m.Team2ID != nil && *m.Team2ID == teamID
}

// Ready reports whether both slots are filled and a result can be recorded.
func (m *Match) Ready() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}
