package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket schedules a single round robin with the circle method:
// fix the first team, rotate the rest each round. Every pair meets exactly
// once and no team plays twice in the same round. Round robin matches carry
// no forward pointers; the standings service ranks the results.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	n := len(teams)
	if n < 2 {
		return nil, ErrInsufficientTeams
	}

	// Odd team counts get a rotating dummy slot: whoever draws it sits the
	// round out.
	ids := make([]*int, 0, n+1)
	for _, t := range teams {
		id := t.ID
		ids = append(ids, &id)
	}
	if n%2 != 0 {
		ids = append(ids, nil)
	}
	slots := len(ids)
	numRounds := slots - 1

	matches := make([]*BracketMatch, 0, n*(n-1)/2)
	for round := 1; round <= numRounds; round++ {
		order := 0
		for i := 0; i < slots/2; i++ {
			p1 := ids[i]
			p2 := ids[slots-1-i]
			if p1 == nil || p2 == nil {
				continue
			}
			order++
			matches = append(matches, &BracketMatch{
				UID:          fmt.Sprintf("R%dM%d", round, order),
				BracketType:  models.BracketTypeWinner,
				Stage:        models.StageRegular,
				Round:        round,
				OrderInRound: order,
				Team1ID:      p1,
				Team2ID:      p2,
			})
		}

		// Rotate, keeping the first slot fixed.
		rotated := make([]*int, slots)
		rotated[0] = ids[0]
		rotated[1] = ids[slots-1]
		copy(rotated[2:], ids[1:slots-1])
		ids = rotated
	}

	return matches, nil
}
