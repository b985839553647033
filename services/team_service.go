package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

type TeamService interface {
	CreateTeam(ctx context.Context, name string, sportID int) (*models.Team, error)
	GetTeamByID(ctx context.Context, id int) (*models.Team, error)
	ListTeamsBySport(ctx context.Context, sportID int) ([]*models.Team, error)
}

type teamService struct {
	teamRepo  repositories.TeamRepository
	sportRepo repositories.SportRepository
}

func NewTeamService(teamRepo repositories.TeamRepository, sportRepo repositories.SportRepository) TeamService {
	return &teamService{teamRepo: teamRepo, sportRepo: sportRepo}
}

func (s *teamService) CreateTeam(ctx context.Context, name string, sportID int) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" || sportID <= 0 {
		return nil, ErrValidationFailed
	}
	if _, err := s.sportRepo.GetByID(ctx, sportID); err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, err
	}
	team := &models.Team{Name: name, SportID: sportID}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamSportInvalid) {
			return nil, ErrSportNotFound
		}
		return nil, err
	}
	return team, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (s *teamService) ListTeamsBySport(ctx context.Context, sportID int) ([]*models.Team, error) {
	return s.teamRepo.ListBySport(ctx, sportID)
}
