package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

type SportService interface {
	CreateSport(ctx context.Context, name string) (*models.Sport, error)
	GetSportByID(ctx context.Context, id int) (*models.Sport, error)
	ListSports(ctx context.Context) ([]*models.Sport, error)
}

type sportService struct {
	sportRepo repositories.SportRepository
}

func NewSportService(sportRepo repositories.SportRepository) SportService {
	return &sportService{sportRepo: sportRepo}
}

func (s *sportService) CreateSport(ctx context.Context, name string) (*models.Sport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidationFailed
	}
	sport := &models.Sport{Name: name}
	if err := s.sportRepo.Create(ctx, sport); err != nil {
		if errors.Is(err, repositories.ErrSportNameConflict) {
			return nil, ErrSportNameConflict
		}
		return nil, err
	}
	return sport, nil
}

func (s *sportService) GetSportByID(ctx context.Context, id int) (*models.Sport, error) {
	sport, err := s.sportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, err
	}
	return sport, nil
}

func (s *sportService) ListSports(ctx context.Context) ([]*models.Sport, error) {
	return s.sportRepo.List(ctx)
}
