package services

import (
	"context"
	"errors"
	"sort"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

type StandingsService interface {
	GetStandings(ctx context.Context, bracketID int) ([]*models.TeamStanding, error)
}

type standingsService struct {
	bracketRepo repositories.BracketRepository
	teamRepo    repositories.TeamRepository
	matchRepo   repositories.MatchRepository
}

func NewStandingsService(
	bracketRepo repositories.BracketRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
) StandingsService {
	return &standingsService{
		bracketRepo: bracketRepo,
		teamRepo:    teamRepo,
		matchRepo:   matchRepo,
	}
}

// GetStandings ranks a round robin bracket from its completed matches.
// Ordering: win percentage, then score difference, then the head-to-head
// result between the tied pair, then team id as the stable last resort.
// Scheduled and in-progress matches contribute nothing, so standings are
// meaningful at any point of the competition.
func (s *standingsService) GetStandings(ctx context.Context, bracketID int) ([]*models.TeamStanding, error) {
	bracket, err := s.bracketRepo.GetByID(ctx, bracketID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketNotFound) {
			return nil, ErrBracketNotFound
		}
		return nil, err
	}
	if bracket.Mode != models.ModeRoundRobin {
		return nil, ErrStandingsUnsupported
	}
	if !bracket.Generated {
		return nil, ErrBracketNotGenerated
	}

	teams, err := s.teamRepo.ListByBracket(ctx, bracketID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByBracket(ctx, bracketID, false)
	if err != nil {
		return nil, err
	}

	byTeam := make(map[int]*models.TeamStanding, len(teams))
	standings := make([]*models.TeamStanding, 0, len(teams))
	for _, team := range teams {
		st := &models.TeamStanding{TeamID: team.ID, Team: team}
		byTeam[team.ID] = st
		standings = append(standings, st)
	}

	// headToHead[a][b] holds the winner of the a vs b meeting.
	headToHead := make(map[int]map[int]int)
	recordH2H := func(a, b, winner int) {
		if headToHead[a] == nil {
			headToHead[a] = make(map[int]int)
		}
		headToHead[a][b] = winner
	}

	for _, m := range matches {
		if m.Status != models.MatchStatusCompleted || m.WinnerID == nil {
			continue
		}
		if m.Team1ID == nil || m.Team2ID == nil {
			continue
		}
		t1, ok1 := byTeam[*m.Team1ID]
		t2, ok2 := byTeam[*m.Team2ID]
		if !ok1 || !ok2 {
			continue
		}

		t1.GamesPlayed++
		t2.GamesPlayed++
		if *m.WinnerID == t1.TeamID {
			t1.Wins++
			t2.Losses++
		} else {
			t2.Wins++
			t1.Losses++
		}
		if m.ScoreTeam1 != nil && m.ScoreTeam2 != nil {
			t1.ScoreFor += *m.ScoreTeam1
			t1.ScoreAgainst += *m.ScoreTeam2
			t2.ScoreFor += *m.ScoreTeam2
			t2.ScoreAgainst += *m.ScoreTeam1
		}
		recordH2H(t1.TeamID, t2.TeamID, *m.WinnerID)
		recordH2H(t2.TeamID, t1.TeamID, *m.WinnerID)
	}

	for _, st := range standings {
		st.ScoreDifference = st.ScoreFor - st.ScoreAgainst
		if st.GamesPlayed > 0 {
			st.WinPercentage = float64(st.Wins) / float64(st.GamesPlayed)
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.WinPercentage != b.WinPercentage {
			return a.WinPercentage > b.WinPercentage
		}
		if a.ScoreDifference != b.ScoreDifference {
			return a.ScoreDifference > b.ScoreDifference
		}
		if winner, ok := headToHead[a.TeamID][b.TeamID]; ok {
			if winner == a.TeamID {
				return true
			}
			if winner == b.TeamID {
				return false
			}
		}
		return a.TeamID < b.TeamID
	})

	for i, st := range standings {
		st.Rank = i + 1
	}
	return standings, nil
}
