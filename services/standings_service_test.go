package services

import (
	"context"
	"testing"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBracketRepo struct {
	bracket *models.Bracket
}

func (s *stubBracketRepo) Create(ctx context.Context, bracket *models.Bracket, teamIDs []int) error {
	return nil
}

func (s *stubBracketRepo) GetByID(ctx context.Context, id int) (*models.Bracket, error) {
	if s.bracket == nil || s.bracket.ID != id {
		return nil, repositories.ErrBracketNotFound
	}
	return s.bracket, nil
}

func (s *stubBracketRepo) SetGenerated(ctx context.Context, exec repositories.SQLExecutor, id int, generated bool) error {
	return nil
}

func (s *stubBracketRepo) Delete(ctx context.Context, id int) error { return nil }

type stubTeamRepo struct {
	teams []*models.Team
}

func (s *stubTeamRepo) Create(ctx context.Context, team *models.Team) error { return nil }

func (s *stubTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	for _, t := range s.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (s *stubTeamRepo) ListBySport(ctx context.Context, sportID int) ([]*models.Team, error) {
	return s.teams, nil
}

func (s *stubTeamRepo) ListByBracket(ctx context.Context, bracketID int) ([]*models.Team, error) {
	return s.teams, nil
}

type stubMatchRepo struct {
	repositories.MatchRepository
	matches []*models.Match
}

func (s *stubMatchRepo) ListByBracket(ctx context.Context, bracketID int, includeHidden bool) ([]*models.Match, error) {
	return s.matches, nil
}

func completedMatch(id, team1, team2, winner, score1, score2 int) *models.Match {
	return &models.Match{
		ID: id, BracketID: 1,
		BracketType: models.BracketTypeWinner, Stage: models.StageRegular,
		Team1ID: intP(team1), Team2ID: intP(team2),
		Status: models.MatchStatusCompleted, WinnerID: intP(winner),
		ScoreTeam1: intP(score1), ScoreTeam2: intP(score2),
	}
}

func newStandingsFixture(matches []*models.Match) StandingsService {
	return NewStandingsService(
		&stubBracketRepo{bracket: &models.Bracket{ID: 1, Mode: models.ModeRoundRobin, Generated: true}},
		&stubTeamRepo{teams: []*models.Team{
			{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}, {ID: 4, Name: "D"},
		}},
		&stubMatchRepo{matches: matches},
	)
}

func TestGetStandings_RanksByWinsAndScoreDiff(t *testing.T) {
	// A complete four team round robin: A beats everyone, B beats C and D,
	// C beats D.
	svc := newStandingsFixture([]*models.Match{
		completedMatch(1, 1, 2, 1, 3, 0),
		completedMatch(2, 1, 3, 1, 2, 1),
		completedMatch(3, 1, 4, 1, 5, 0),
		completedMatch(4, 2, 3, 2, 1, 0),
		completedMatch(5, 2, 4, 2, 2, 1),
		completedMatch(6, 3, 4, 3, 4, 2),
	})

	standings, err := svc.GetStandings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	assert.Equal(t, []int{1, 2, 3, 4}, []int{
		standings[0].TeamID, standings[1].TeamID, standings[2].TeamID, standings[3].TeamID,
	})
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 3, standings[0].Wins)
	assert.Equal(t, 0, standings[0].Losses)
	assert.InDelta(t, 1.0, standings[0].WinPercentage, 1e-9)
	assert.Equal(t, 4, standings[3].Rank)
	assert.Equal(t, 0, standings[3].Wins)
}

func TestGetStandings_HeadToHeadBreaksTies(t *testing.T) {
	// A and B both finish 2-1 with identical score difference; B won their
	// meeting, so B ranks first.
	svc := newStandingsFixture([]*models.Match{
		completedMatch(1, 1, 2, 2, 1, 2),
		completedMatch(2, 1, 3, 1, 2, 1),
		completedMatch(3, 1, 4, 1, 2, 1),
		completedMatch(4, 2, 3, 2, 2, 1),
		completedMatch(5, 2, 4, 4, 1, 2),
		completedMatch(6, 3, 4, 3, 3, 0),
	})

	standings, err := svc.GetStandings(context.Background(), 1)
	require.NoError(t, err)

	var posA, posB int
	for i, st := range standings {
		switch st.TeamID {
		case 1:
			posA = i
		case 2:
			posB = i
		}
	}
	assert.Equal(t, standings[posA].Wins, standings[posB].Wins)
	assert.Equal(t, standings[posA].ScoreDifference, standings[posB].ScoreDifference)
	assert.Less(t, posB, posA, "head to head winner ranks above")
}

func TestGetStandings_PartialSchedule(t *testing.T) {
	// Only one match played: both participants have a record, the rest sit
	// at zero games.
	svc := newStandingsFixture([]*models.Match{
		completedMatch(1, 1, 2, 1, 2, 0),
		{ID: 2, BracketID: 1, Team1ID: intP(3), Team2ID: intP(4), Status: models.StatusScheduled},
	})

	standings, err := svc.GetStandings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, standings, 4)
	assert.Equal(t, 1, standings[0].TeamID)
	assert.Equal(t, 1, standings[0].GamesPlayed)

	played := 0
	for _, st := range standings {
		played += st.GamesPlayed
	}
	assert.Equal(t, 2, played, "scheduled matches contribute nothing")
}

func TestGetStandings_WrongMode(t *testing.T) {
	svc := NewStandingsService(
		&stubBracketRepo{bracket: &models.Bracket{ID: 1, Mode: models.ModeSingleElimination, Generated: true}},
		&stubTeamRepo{},
		&stubMatchRepo{},
	)
	_, err := svc.GetStandings(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStandingsUnsupported)
}

func TestGetStandings_NotGenerated(t *testing.T) {
	svc := NewStandingsService(
		&stubBracketRepo{bracket: &models.Bracket{ID: 1, Mode: models.ModeRoundRobin}},
		&stubTeamRepo{},
		&stubMatchRepo{},
	)
	_, err := svc.GetStandings(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBracketNotGenerated)
}

func TestGetStandings_BracketNotFound(t *testing.T) {
	svc := NewStandingsService(&stubBracketRepo{}, &stubTeamRepo{}, &stubMatchRepo{})
	_, err := svc.GetStandings(context.Background(), 42)
	assert.ErrorIs(t, err, ErrBracketNotFound)
}
