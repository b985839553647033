package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSlotOccupied = errors.New("slot occupied")

// fakeMatchStore keeps the bracket in memory and mirrors the occupancy
// semantics of the SQL store: placing the team already in a slot is a no-op,
// placing a different one fails.
type fakeMatchStore struct {
	matches  map[int]*models.Match
	brackets map[int]*models.Bracket
}

func newFakeStore(bracket *models.Bracket, matches ...*models.Match) *fakeMatchStore {
	store := &fakeMatchStore{
		matches:  make(map[int]*models.Match),
		brackets: map[int]*models.Bracket{bracket.ID: bracket},
	}
	for _, m := range matches {
		store.matches[m.ID] = m
	}
	return store
}

func (f *fakeMatchStore) LockMatch(ctx context.Context, matchID int) (*models.Match, error) {
	m, ok := f.matches[matchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	snapshot := *m
	return &snapshot, nil
}

func (f *fakeMatchStore) LockByStage(ctx context.Context, bracketID int, stage models.MatchStage) (*models.Match, error) {
	for _, m := range f.matches {
		if m.BracketID == bracketID && m.Stage == stage {
			snapshot := *m
			return &snapshot, nil
		}
	}
	return nil, ErrMatchNotFound
}

func (f *fakeMatchStore) UpdateResult(ctx context.Context, match *models.Match) error {
	stored, ok := f.matches[match.ID]
	if !ok {
		return ErrMatchNotFound
	}
	stored.Status = match.Status
	stored.WinnerID = match.WinnerID
	stored.LoserID = match.LoserID
	stored.ScoreTeam1 = match.ScoreTeam1
	stored.ScoreTeam2 = match.ScoreTeam2
	return nil
}

func (f *fakeMatchStore) SetTeamSlot(ctx context.Context, matchID, slot, teamID int) error {
	stored, ok := f.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	var target **int
	switch slot {
	case 1:
		target = &stored.Team1ID
	case 2:
		target = &stored.Team2ID
	default:
		return errSlotOccupied
	}
	if *target != nil && **target != teamID {
		return errSlotOccupied
	}
	id := teamID
	*target = &id
	return nil
}

func (f *fakeMatchStore) ClearTeamSlot(ctx context.Context, matchID, slot int) error {
	stored, ok := f.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	if slot == 1 {
		stored.Team1ID = nil
	} else {
		stored.Team2ID = nil
	}
	return nil
}

func (f *fakeMatchStore) ClearResult(ctx context.Context, matchID int) error {
	stored, ok := f.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	stored.Status = models.StatusScheduled
	stored.WinnerID = nil
	stored.LoserID = nil
	stored.ScoreTeam1 = nil
	stored.ScoreTeam2 = nil
	return nil
}

func (f *fakeMatchStore) UpdateStatus(ctx context.Context, matchID int, status models.MatchStatus) error {
	stored, ok := f.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	stored.Status = status
	return nil
}

func (f *fakeMatchStore) GetBracket(ctx context.Context, bracketID int) (*models.Bracket, error) {
	bracket, ok := f.brackets[bracketID]
	if !ok {
		return nil, ErrBracketNotFound
	}
	return bracket, nil
}

func intP(v int) *int { return &v }

// singleElimFour builds a played-through-ready four team single elimination
// bracket: 1 vs 4 and 2 vs 3 feeding the final.
func singleElimFour() *fakeMatchStore {
	return newFakeStore(
		&models.Bracket{ID: 1, Mode: models.ModeSingleElimination, Generated: true},
		&models.Match{ID: 1, BracketID: 1, BracketType: models.BracketTypeWinner, Stage: models.StageRegular, Round: 1, OrderInRound: 1,
			Team1ID: intP(1), Team2ID: intP(4), Status: models.StatusScheduled,
			NextMatchWinnerID: intP(3), WinnerSlot: intP(1)},
		&models.Match{ID: 2, BracketID: 1, BracketType: models.BracketTypeWinner, Stage: models.StageRegular, Round: 1, OrderInRound: 2,
			Team1ID: intP(2), Team2ID: intP(3), Status: models.StatusScheduled,
			NextMatchWinnerID: intP(3), WinnerSlot: intP(2)},
		&models.Match{ID: 3, BracketID: 1, BracketType: models.BracketTypeWinner, Stage: models.StageRegular, Round: 2, OrderInRound: 1,
			Status: models.StatusScheduled},
	)
}

// doubleElimFour builds the full four team double elimination graph:
// two semifinals, winner final, two loser matches, grand final, reset final.
func doubleElimFour() *fakeMatchStore {
	return newFakeStore(
		&models.Bracket{ID: 1, Mode: models.ModeDoubleElimination, Generated: true},
		&models.Match{ID: 1, BracketID: 1, BracketType: models.BracketTypeWinner, Stage: models.StageRegular, Round: 1, OrderInRound: 1,
			Team1ID: intP(1), Team2ID: intP(4), Status: models.StatusScheduled,
			NextMatchWinnerID: intP(3), WinnerSlot: intP(1),
			NextMatchLoserID: intP(4), LoserSlot: intP(1)},
		&models.Match{ID: 2, BracketID: 1, BracketType: models.BracketTypeWinner, Stage: models.StageRegular, Round: 1, OrderInRound: 2,
			Team1ID: intP(2), Team2ID: intP(3), Status: models.StatusScheduled,
			NextMatchWinnerID: intP(3), WinnerSlot: intP(2),
			NextMatchLoserID: intP(4), LoserSlot: intP(2)},
		&models.Match{ID: 3, BracketID: 1, BracketType: models.BracketTypeWinner, Stage: models.StageRegular, Round: 2, OrderInRound: 1,
			Status:            models.StatusScheduled,
			NextMatchWinnerID: intP(6), WinnerSlot: intP(1),
			NextMatchLoserID:  intP(5), LoserSlot: intP(2)},
		&models.Match{ID: 4, BracketID: 1, BracketType: models.BracketTypeLoser, Stage: models.StageRegular, Round: 1, OrderInRound: 1,
			Status:            models.StatusScheduled,
			NextMatchWinnerID: intP(5), WinnerSlot: intP(1)},
		&models.Match{ID: 5, BracketID: 1, BracketType: models.BracketTypeLoser, Stage: models.StageRegular, Round: 2, OrderInRound: 1,
			Status:            models.StatusScheduled,
			NextMatchWinnerID: intP(6), WinnerSlot: intP(2)},
		&models.Match{ID: 6, BracketID: 1, BracketType: models.BracketTypeChampionship, Stage: models.StageGrandFinal, Round: 1, OrderInRound: 1,
			Status: models.StatusScheduled},
		&models.Match{ID: 7, BracketID: 1, BracketType: models.BracketTypeChampionship, Stage: models.StageResetFinal, Round: 2, OrderInRound: 1,
			Status: models.MatchStatusHidden},
	)
}

func submit(t *testing.T, store matchStore, matchID, winnerID int) *AdvancementOutcome {
	t.Helper()
	outcome, err := submitResult(context.Background(), store, SubmitResultParams{MatchID: matchID, WinnerID: winnerID})
	require.NoError(t, err)
	return outcome
}

func TestSubmitResult_SingleEliminationRun(t *testing.T) {
	store := singleElimFour()
	ctx := context.Background()

	outcome := submit(t, store, 1, 1)
	assert.Nil(t, outcome.ChampionID)
	require.Len(t, outcome.Advanced, 1)
	assert.Equal(t, 3, outcome.Advanced[0].ID)
	assert.Equal(t, 1, *store.matches[3].Team1ID)

	submit(t, store, 2, 2)
	assert.Equal(t, 2, *store.matches[3].Team2ID)

	// The final decides the champion: no forward pointer, single elimination.
	outcome, err := submitResult(ctx, store, SubmitResultParams{MatchID: 3, WinnerID: 1})
	require.NoError(t, err)
	require.NotNil(t, outcome.ChampionID)
	assert.Equal(t, 1, *outcome.ChampionID)
	assert.False(t, outcome.BracketReset)
}

func TestSubmitResult_RecordsScoresAndLoser(t *testing.T) {
	store := singleElimFour()

	outcome, err := submitResult(context.Background(), store, SubmitResultParams{
		MatchID: 1, WinnerID: 4, ScoreTeam1: intP(1), ScoreTeam2: intP(3),
	})
	require.NoError(t, err)

	m := store.matches[1]
	assert.Equal(t, models.MatchStatusCompleted, m.Status)
	assert.Equal(t, 4, *m.WinnerID)
	assert.Equal(t, 1, *m.LoserID)
	assert.Equal(t, 1, *m.ScoreTeam1)
	assert.Equal(t, 3, *m.ScoreTeam2)
	assert.Equal(t, 4, *store.matches[3].Team1ID)
	_ = outcome
}

func TestSubmitResult_Validation(t *testing.T) {
	tests := []struct {
		name    string
		params  SubmitResultParams
		wantErr error
	}{
		{"winner not in match", SubmitResultParams{MatchID: 1, WinnerID: 9}, ErrInvalidWinner},
		{"match not found", SubmitResultParams{MatchID: 99, WinnerID: 1}, ErrMatchNotFound},
		{"final not ready", SubmitResultParams{MatchID: 3, WinnerID: 1}, ErrMatchNotReady},
		{"lopsided scores", SubmitResultParams{MatchID: 1, WinnerID: 1, ScoreTeam1: intP(0), ScoreTeam2: intP(2)}, ErrValidationFailed},
		{"half a score line", SubmitResultParams{MatchID: 1, WinnerID: 1, ScoreTeam1: intP(2)}, ErrValidationFailed},
		{"negative score", SubmitResultParams{MatchID: 1, WinnerID: 1, ScoreTeam1: intP(-1), ScoreTeam2: intP(0)}, ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := singleElimFour()
			_, err := submitResult(context.Background(), store, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubmitResult_Idempotent(t *testing.T) {
	store := singleElimFour()
	ctx := context.Background()

	submit(t, store, 1, 1)

	// Same result again: accepted, nothing re-advances.
	outcome, err := submitResult(ctx, store, SubmitResultParams{MatchID: 1, WinnerID: 1})
	require.NoError(t, err)
	assert.Empty(t, outcome.Advanced)

	// Different result: conflict.
	_, err = submitResult(ctx, store, SubmitResultParams{MatchID: 1, WinnerID: 4})
	assert.ErrorIs(t, err, ErrResultConflict)
}

func TestSubmitResult_HiddenMatchRejected(t *testing.T) {
	store := doubleElimFour()
	_, err := submitResult(context.Background(), store, SubmitResultParams{MatchID: 7, WinnerID: 1})
	assert.ErrorIs(t, err, ErrMatchHidden)
}

func TestSubmitResult_DoubleEliminationBracketReset(t *testing.T) {
	store := doubleElimFour()

	submit(t, store, 1, 1) // 4 drops to the loser bracket
	submit(t, store, 2, 2) // 3 drops to the loser bracket
	assert.Equal(t, 4, *store.matches[4].Team1ID)
	assert.Equal(t, 3, *store.matches[4].Team2ID)

	submit(t, store, 3, 1) // 2 drops into the loser final
	submit(t, store, 4, 3)
	submit(t, store, 5, 2) // 2 fights back into the grand final

	gf := store.matches[6]
	assert.Equal(t, 1, *gf.Team1ID, "winner bracket champion holds slot one")
	assert.Equal(t, 2, *gf.Team2ID, "loser bracket survivor holds slot two")

	// The loser-bracket side wins the grand final: both teams now have one
	// loss and the reset final activates.
	outcome := submit(t, store, 6, 2)
	assert.True(t, outcome.BracketReset)
	assert.Nil(t, outcome.ChampionID)

	rf := store.matches[7]
	assert.Equal(t, models.StatusScheduled, rf.Status)
	assert.Equal(t, 2, *rf.Team1ID)
	assert.Equal(t, 1, *rf.Team2ID)

	// The reset final winner is the champion, unconditionally.
	outcome = submit(t, store, 7, 1)
	require.NotNil(t, outcome.ChampionID)
	assert.Equal(t, 1, *outcome.ChampionID)
}

func TestSubmitResult_GrandFinalWithoutReset(t *testing.T) {
	store := doubleElimFour()

	submit(t, store, 1, 1)
	submit(t, store, 2, 2)
	submit(t, store, 3, 1)
	submit(t, store, 4, 3)
	submit(t, store, 5, 2)

	// The undefeated side wins: done, no reset final.
	outcome := submit(t, store, 6, 1)
	assert.False(t, outcome.BracketReset)
	require.NotNil(t, outcome.ChampionID)
	assert.Equal(t, 1, *outcome.ChampionID)
	assert.Equal(t, models.MatchStatusHidden, store.matches[7].Status)
}

func TestSubmitResult_ByeCascade(t *testing.T) {
	// A loser-bracket bye auto-completes when its single live team arrives
	// and pushes it straight into the next match.
	store := newFakeStore(
		&models.Bracket{ID: 1, Mode: models.ModeDoubleElimination, Generated: true},
		&models.Match{ID: 1, BracketID: 1, BracketType: models.BracketTypeWinner, Stage: models.StageRegular, Round: 1, OrderInRound: 1,
			Team1ID: intP(1), Team2ID: intP(2), Status: models.StatusScheduled,
			NextMatchWinnerID: intP(3), WinnerSlot: intP(1),
			NextMatchLoserID: intP(2), LoserSlot: intP(2)},
		&models.Match{ID: 2, BracketID: 1, BracketType: models.BracketTypeLoser, Stage: models.StageRegular, Round: 1, OrderInRound: 1,
			Status: models.StatusScheduled, IsBye: true,
			NextMatchWinnerID: intP(3), WinnerSlot: intP(2)},
		&models.Match{ID: 3, BracketID: 1, BracketType: models.BracketTypeLoser, Stage: models.StageRegular, Round: 2, OrderInRound: 1,
			Status:            models.StatusScheduled,
			NextMatchWinnerID: intP(4), WinnerSlot: intP(2)},
		&models.Match{ID: 4, BracketID: 1, BracketType: models.BracketTypeChampionship, Stage: models.StageGrandFinal, Round: 1, OrderInRound: 1,
			Status: models.StatusScheduled},
	)

	outcome := submit(t, store, 1, 1)

	bye := store.matches[2]
	assert.Equal(t, models.MatchStatusCompleted, bye.Status)
	assert.Equal(t, 2, *bye.WinnerID)

	next := store.matches[3]
	assert.Equal(t, 2, *next.Team2ID, "bye winner carried into the following match")

	// The outcome lists both the bye and the match it cascaded into.
	ids := make([]int, 0, len(outcome.Advanced))
	for _, m := range outcome.Advanced {
		ids = append(ids, m.ID)
	}
	assert.Contains(t, ids, 2)
	assert.Contains(t, ids, 3)
}

func TestCorrectResult_ReplacesDownstreamPlacement(t *testing.T) {
	store := doubleElimFour()
	ctx := context.Background()

	submit(t, store, 1, 1)

	outcome, err := correctResult(ctx, store, SubmitResultParams{MatchID: 1, WinnerID: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, *outcome.Match.WinnerID)

	assert.Equal(t, 4, *store.matches[3].Team1ID, "corrected winner replaces the old one downstream")
	assert.Equal(t, 1, *store.matches[4].Team1ID, "corrected loser drops instead")
}

func TestCorrectResult_BlockedByDownstreamProgress(t *testing.T) {
	store := doubleElimFour()
	ctx := context.Background()

	submit(t, store, 1, 1)
	submit(t, store, 2, 2)
	submit(t, store, 3, 1)

	// The winner final already completed: round 1 results are now
	// load-bearing.
	_, err := correctResult(ctx, store, SubmitResultParams{MatchID: 1, WinnerID: 4})
	assert.ErrorIs(t, err, ErrCorrectionBlocked)
}

func TestCorrectResult_RequiresCompletedMatch(t *testing.T) {
	store := singleElimFour()
	_, err := correctResult(context.Background(), store, SubmitResultParams{MatchID: 1, WinnerID: 1})
	assert.ErrorIs(t, err, ErrMatchNotCompleted)
}

func TestCorrectResult_GrandFinalRehidesResetFinal(t *testing.T) {
	store := doubleElimFour()
	ctx := context.Background()

	submit(t, store, 1, 1)
	submit(t, store, 2, 2)
	submit(t, store, 3, 1)
	submit(t, store, 4, 3)
	submit(t, store, 5, 2)

	outcome := submit(t, store, 6, 2)
	require.True(t, outcome.BracketReset)

	// Flipping the grand final back to the winner-bracket side deactivates
	// the reset final and crowns the champion.
	corrected, err := correctResult(ctx, store, SubmitResultParams{MatchID: 6, WinnerID: 1})
	require.NoError(t, err)
	require.NotNil(t, corrected.ChampionID)
	assert.Equal(t, 1, *corrected.ChampionID)

	rf := store.matches[7]
	assert.Equal(t, models.MatchStatusHidden, rf.Status)
	assert.Nil(t, rf.Team1ID)
	assert.Nil(t, rf.Team2ID)
}

func TestCorrectResult_GrandFinalBlockedAfterResetFinalResult(t *testing.T) {
	store := doubleElimFour()
	ctx := context.Background()

	submit(t, store, 1, 1)
	submit(t, store, 2, 2)
	submit(t, store, 3, 1)
	submit(t, store, 4, 3)
	submit(t, store, 5, 2)
	submit(t, store, 6, 2)
	submit(t, store, 7, 1)

	_, err := correctResult(ctx, store, SubmitResultParams{MatchID: 6, WinnerID: 1})
	assert.ErrorIs(t, err, ErrCorrectionBlocked)
}
