package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamSportInvalid = errors.New("team sport conflict or invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListBySport(ctx context.Context, sportID int) ([]*models.Team, error)
	ListByBracket(ctx context.Context, bracketID int) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `INSERT INTO teams (name, sport_id) VALUES ($1, $2) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, team.Name, team.SportID).Scan(&team.ID, &team.CreatedAt)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, name, sport_id, created_at FROM teams WHERE id = $1`
	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&team.ID, &team.Name, &team.SportID, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListBySport(ctx context.Context, sportID int) ([]*models.Team, error) {
	query := `SELECT id, name, sport_id, created_at FROM teams WHERE sport_id = $1 ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query, sportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for sport %d: %w", sportID, err)
	}
	defer rows.Close()
	return scanTeams(rows, false)
}

// ListByBracket returns the bracket's teams in seed order.
func (r *postgresTeamRepository) ListByBracket(ctx context.Context, bracketID int) ([]*models.Team, error) {
	query := `
		SELECT t.id, t.name, t.sport_id, t.created_at, bt.seed
		FROM teams t
		JOIN bracket_teams bt ON bt.team_id = t.id
		WHERE bt.bracket_id = $1
		ORDER BY bt.seed ASC`
	rows, err := r.db.QueryContext(ctx, query, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for bracket %d: %w", bracketID, err)
	}
	defer rows.Close()
	return scanTeams(rows, true)
}

func scanTeams(rows *sql.Rows, withSeed bool) ([]*models.Team, error) {
	teams := make([]*models.Team, 0)
	for rows.Next() {
		var t models.Team
		var err error
		if withSeed {
			err = rows.Scan(&t.ID, &t.Name, &t.SportID, &t.CreatedAt, &t.Seed)
		} else {
			err = rows.Scan(&t.ID, &t.Name, &t.SportID, &t.CreatedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "teams_sport_id_fkey":
			return ErrTeamSportInvalid
		}
	}
	return err
}
