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
	ErrSportNotFound     = errors.New("sport not found")
	ErrSportNameConflict = errors.New("sport name conflict")
)

type SportRepository interface {
	Create(ctx context.Context, sport *models.Sport) error
	GetByID(ctx context.Context, id int) (*models.Sport, error)
	List(ctx context.Context) ([]*models.Sport, error)
}

type postgresSportRepository struct {
	db *sql.DB
}

func NewPostgresSportRepository(db *sql.DB) SportRepository {
	return &postgresSportRepository{db: db}
}

func (r *postgresSportRepository) Create(ctx context.Context, sport *models.Sport) error {
	query := `INSERT INTO sports (name) VALUES ($1) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, sport.Name).Scan(&sport.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrSportNameConflict
		}
		return fmt.Errorf("failed to create sport: %w", err)
	}
	return nil
}

func (r *postgresSportRepository) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	query := `SELECT id, name FROM sports WHERE id = $1`
	sport := &models.Sport{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&sport.ID, &sport.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to scan sport by id %d: %w", id, err)
	}
	return sport, nil
}

func (r *postgresSportRepository) List(ctx context.Context) ([]*models.Sport, error) {
	query := `SELECT id, name FROM sports ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sports: %w", err)
	}
	defer rows.Close()

	sports := make([]*models.Sport, 0)
	for rows.Next() {
		var s models.Sport
		if scanErr := rows.Scan(&s.ID, &s.Name); scanErr != nil {
			return nil, fmt.Errorf("failed to scan sport row: %w", scanErr)
		}
		sports = append(sports, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during sport rows iteration: %w", err)
	}
	return sports, nil
}
