package models

import "time"

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	SportID   int       `json:"sport_id" db:"sport_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Sport *Sport `json:"sport,omitempty" db:"-"`

	// Seed is the team's drawn position in a bracket. Populated only when
	// the team is loaded through a bracket (bracket_teams join).
	Seed *int `json:"seed,omitempty" db:"-"`
}
