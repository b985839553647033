package brackets

import (
	"context"
	"fmt"
	"math"

	"github.com/Dosada05/bracket-engine/models"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket builds a single elimination tree for the seeded team list.
// The bracket is padded to the next power of two; byes go against the top
// seeds (match j pairs seed j+1 with seed size-j), so two byes can never
// meet in round 1. Bye matches resolve at generation time and their winner
// is pushed straight into the next round's slot.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	n := len(teams)
	if n < 2 {
		return nil, ErrInsufficientTeams
	}

	numRounds := int(math.Ceil(math.Log2(float64(n))))
	size := 1 << uint(numRounds)

	rounds := make([][]*BracketMatch, numRounds+1)
	for r := 1; r <= numRounds; r++ {
		count := size >> uint(r)
		rounds[r] = make([]*BracketMatch, count)
		for i := 0; i < count; i++ {
			rounds[r][i] = &BracketMatch{
				UID:          fmt.Sprintf("R%dM%d", r, i+1),
				BracketType:  models.BracketTypeWinner,
				Stage:        models.StageRegular,
				Round:        r,
				OrderInRound: i + 1,
			}
		}
	}

	// Forward pointers: match i of round r feeds match i/2 of round r+1.
	for r := 1; r < numRounds; r++ {
		for i, bm := range rounds[r] {
			target := rounds[r+1][i/2]
			bm.WinnerTargetUID = &target.UID
			bm.WinnerSlot = i%2 + 1
		}
	}

	// Round 1 pairing and bye resolution.
	for i, bm := range rounds[1] {
		seed1 := teams[i].ID
		bm.Team1ID = &seed1

		opponent := size - 1 - i
		if opponent < n {
			seed2 := teams[opponent].ID
			bm.Team2ID = &seed2
			continue
		}

		bm.IsBye = true
		bm.Completed = true
		bm.WinnerID = &seed1
		if bm.WinnerTargetUID != nil {
			placeIntoSlot(rounds[2][i/2], bm.WinnerSlot, seed1)
		}
	}

	out := make([]*BracketMatch, 0, size-1)
	for r := 1; r <= numRounds; r++ {
		out = append(out, rounds[r]...)
	}
	return out, nil
}

func placeIntoSlot(bm *BracketMatch, slot int, teamID int) {
	id := teamID
	if slot == 1 {
		bm.Team1ID = &id
	} else {
		bm.Team2ID = &id
	}
}
