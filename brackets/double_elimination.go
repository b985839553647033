package brackets

import (
	"context"
	"fmt"
	"math"

	"github.com/Dosada05/bracket-engine/models"
)

const (
	GrandFinalUID = "GF"
	ResetFinalUID = "RF"
)

type DoubleEliminationGenerator struct {
}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

// GenerateBracket builds the full double elimination topology: a winner
// bracket identical in shape to single elimination, a loser bracket with the
// canonical alternating minor/major drop pattern, the grand final and a
// hidden reset final.
//
// Loser rounds come in pairs per winner round: losers of winner round 1 pair
// up in loser round 1; losers of winner round r>1 drop into loser round
// 2(r-1) ("major"), meeting the survivors of loser round 2r-3 ("minor").
// The loser-bracket final winner meets the winner-bracket final winner in
// the grand final, slots 2 and 1 respectively.
//
// Byes cascade: a winner round 1 bye never produces a loser, so the loser
// match it feeds either waits for its single live team (IsBye) or, with both
// feeds dead, is elided and deadens its own output in turn.
func (g *DoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	n := len(teams)
	if n < 2 {
		return nil, ErrInsufficientTeams
	}

	numWinnerRounds := int(math.Ceil(math.Log2(float64(n))))
	size := 1 << uint(numWinnerRounds)

	grandFinal := &BracketMatch{
		UID:          GrandFinalUID,
		BracketType:  models.BracketTypeChampionship,
		Stage:        models.StageGrandFinal,
		Round:        1,
		OrderInRound: 1,
	}
	resetFinal := &BracketMatch{
		UID:          ResetFinalUID,
		BracketType:  models.BracketTypeChampionship,
		Stage:        models.StageResetFinal,
		Round:        2,
		OrderInRound: 1,
		Hidden:       true,
	}

	// Winner bracket skeleton.
	wb := make([][]*BracketMatch, numWinnerRounds+1)
	for r := 1; r <= numWinnerRounds; r++ {
		count := size >> uint(r)
		wb[r] = make([]*BracketMatch, count)
		for i := 0; i < count; i++ {
			wb[r][i] = &BracketMatch{
				UID:          fmt.Sprintf("W%dM%d", r, i+1),
				BracketType:  models.BracketTypeWinner,
				Stage:        models.StageRegular,
				Round:        r,
				OrderInRound: i + 1,
			}
		}
	}
	for r := 1; r < numWinnerRounds; r++ {
		for i, bm := range wb[r] {
			target := wb[r+1][i/2]
			bm.WinnerTargetUID = &target.UID
			bm.WinnerSlot = i%2 + 1
		}
	}
	wbFinal := wb[numWinnerRounds][0]
	wbFinal.WinnerTargetUID = &grandFinal.UID
	wbFinal.WinnerSlot = 1

	// Loser bracket skeleton. Rounds 1..2(numWinnerRounds-1); round count
	// for the pair (2k-1, 2k) is size/2^(k+1). With two teams there is no
	// loser bracket at all and the first loss drops straight to the grand
	// final.
	numLoserRounds := 2 * (numWinnerRounds - 1)
	lb := make([][]*BracketMatch, numLoserRounds+1)
	for l := 1; l <= numLoserRounds; l++ {
		k := (l + 1) / 2
		count := size >> uint(k+1)
		lb[l] = make([]*BracketMatch, count)
		for i := 0; i < count; i++ {
			lb[l][i] = &BracketMatch{
				UID:          fmt.Sprintf("L%dM%d", l, i+1),
				BracketType:  models.BracketTypeLoser,
				Stage:        models.StageRegular,
				Round:        l,
				OrderInRound: i + 1,
			}
		}
	}

	if numLoserRounds == 0 {
		wbFinal.LoserTargetUID = &grandFinal.UID
		wbFinal.LoserSlot = 2
	} else {
		// Winner bracket drop-ins.
		for i, bm := range wb[1] {
			target := lb[1][i/2]
			bm.LoserTargetUID = &target.UID
			bm.LoserSlot = i%2 + 1
		}
		for r := 2; r <= numWinnerRounds; r++ {
			major := 2 * (r - 1)
			for i, bm := range wb[r] {
				target := lb[major][i]
				bm.LoserTargetUID = &target.UID
				bm.LoserSlot = 2
			}
		}

		// Survivor links within the loser bracket.
		for l := 1; l < numLoserRounds; l++ {
			for i, bm := range lb[l] {
				if l%2 == 1 { // minor feeds the major of the same pair
					target := lb[l+1][i]
					bm.WinnerTargetUID = &target.UID
					bm.WinnerSlot = 1
				} else { // major survivors pair up in the next minor
					target := lb[l+1][i/2]
					bm.WinnerTargetUID = &target.UID
					bm.WinnerSlot = i%2 + 1
				}
			}
		}
		lbFinal := lb[numLoserRounds][0]
		lbFinal.WinnerTargetUID = &grandFinal.UID
		lbFinal.WinnerSlot = 2
	}

	// Round 1 pairing and bye resolution, winner side. A bye deadens the
	// loser feed it would have produced.
	deadSlots := make(map[string][2]bool)
	markDead := func(uid string, slot int) {
		d := deadSlots[uid]
		d[slot-1] = true
		deadSlots[uid] = d
	}
	for i, bm := range wb[1] {
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
		// Byes only exist when size > n, so round 2 is always there.
		placeIntoSlot(wb[2][i/2], bm.WinnerSlot, seed1)
		if bm.LoserTargetUID != nil {
			markDead(*bm.LoserTargetUID, bm.LoserSlot)
		}
	}

	// Dead-feed resolution through the loser bracket, in round order. An
	// elided match deadens the slot it feeds before that match is visited.
	elided := make(map[string]bool)
	for l := 1; l <= numLoserRounds; l++ {
		for _, bm := range lb[l] {
			d := deadSlots[bm.UID]
			switch {
			case d[0] && d[1]:
				elided[bm.UID] = true
				if bm.WinnerTargetUID != nil {
					markDead(*bm.WinnerTargetUID, bm.WinnerSlot)
				}
			case d[0] || d[1]:
				bm.IsBye = true
			}
		}
	}

	out := make([]*BracketMatch, 0, 2*size)
	for r := 1; r <= numWinnerRounds; r++ {
		out = append(out, wb[r]...)
	}
	for l := 1; l <= numLoserRounds; l++ {
		for _, bm := range lb[l] {
			if !elided[bm.UID] {
				out = append(out, bm)
			}
		}
	}
	out = append(out, grandFinal, resetFinal)
	return out, nil
}
