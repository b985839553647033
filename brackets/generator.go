package brackets

import (
	"context"
	"errors"

	"github.com/Dosada05/bracket-engine/models"
)

var (
	ErrUnsupportedMode   = errors.New("unsupported bracket mode")
	ErrInsufficientTeams = errors.New("not enough teams to generate a bracket (minimum 2)")
)

type GenerateBracketParams struct {
	Bracket *models.Bracket
	// Teams in seeded order: the caller is expected to have shuffled them
	// already (see ShuffleTeams).
	Teams []*models.Team
}

// BracketMatch is the topology skeleton a generator produces. It carries no
// database identity; the bracket service persists skeletons in two passes,
// resolving target UIDs to row ids.
type BracketMatch struct {
	UID          string
	BracketType  models.BracketType
	Stage        models.MatchStage
	Round        int
	OrderInRound int

	Team1ID *int
	Team2ID *int

	// Forward pointers, by skeleton UID. Slot is 1 or 2.
	WinnerTargetUID *string
	WinnerSlot      int
	LoserTargetUID  *string
	LoserSlot       int

	// IsBye: only one live feed can ever fill this match; it auto-completes
	// when that team is known.
	IsBye bool

	// Completed/WinnerID: resolved at generation time (first-round byes).
	Completed bool
	WinnerID  *int

	// Hidden: created but not playable until the advancement engine
	// activates it (the reset final).
	Hidden bool
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// GeneratorForMode maps a bracket mode to its topology builder.
func GeneratorForMode(mode models.BracketMode) (BracketGenerator, error) {
	switch mode {
	case models.ModeSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.ModeDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.ModeRoundRobin:
		return NewRoundRobinGenerator(), nil
	default:
		return nil, ErrUnsupportedMode
	}
}
