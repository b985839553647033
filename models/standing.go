package models

// TeamStanding is a computed round-robin table row. It is never persisted:
// the standings service rebuilds the table from completed matches on demand.
type TeamStanding struct {
	TeamID          int     `json:"team_id"`
	GamesPlayed     int     `json:"games_played"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	ScoreFor        int     `json:"score_for"`
	ScoreAgainst    int     `json:"score_against"`
	ScoreDifference int     `json:"score_difference"`
	WinPercentage   float64 `json:"win_percentage"`
	Rank            int     `json:"rank"`

	Team *Team `json:"team,omitempty"`
}
