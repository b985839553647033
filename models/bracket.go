package models

import "time"

// BracketMode соответствует ENUM bracket_mode в БД.
type BracketMode string

const (
	ModeSingleElimination BracketMode = "single"
	ModeDoubleElimination BracketMode = "double"
	ModeRoundRobin        BracketMode = "round_robin"
)

func (m BracketMode) Valid() bool {
	switch m {
	case ModeSingleElimination, ModeDoubleElimination, ModeRoundRobin:
		return true
	}
	return false
}

type Bracket struct {
	ID        int         `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	SportID   int         `json:"sport_id" db:"sport_id"`
	Mode      BracketMode `json:"mode" db:"mode"`
	Generated bool        `json:"generated" db:"generated"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`

	Sport   *Sport  `json:"sport,omitempty" db:"-"`
	Teams   []Team  `json:"teams,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}
