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
	ErrBracketNotFound     = errors.New("bracket not found")
	ErrBracketSportInvalid = errors.New("bracket sport conflict or invalid")
	ErrBracketTeamInvalid  = errors.New("bracket team conflict or invalid")
)

type BracketRepository interface {
	Create(ctx context.Context, bracket *models.Bracket, teamIDs []int) error
	GetByID(ctx context.Context, id int) (*models.Bracket, error)
	SetGenerated(ctx context.Context, exec SQLExecutor, id int, generated bool) error
	Delete(ctx context.Context, id int) error
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

// Create inserts the bracket and its team roster in one transaction. Seeds
// record registration order; generation shuffles independently of them.
func (r *postgresBracketRepository) Create(ctx context.Context, bracket *models.Bracket, teamIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for bracket create: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO brackets (name, sport_id, mode) VALUES ($1, $2, $3) RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query, bracket.Name, bracket.SportID, bracket.Mode).
		Scan(&bracket.ID, &bracket.CreatedAt)
	if err != nil {
		return r.handleBracketError(err)
	}

	teamQuery := `INSERT INTO bracket_teams (bracket_id, team_id, seed) VALUES ($1, $2, $3)`
	for i, teamID := range teamIDs {
		if _, err = tx.ExecContext(ctx, teamQuery, bracket.ID, teamID, i+1); err != nil {
			return r.handleBracketError(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bracket create: %w", err)
	}
	return nil
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, id int) (*models.Bracket, error) {
	query := `SELECT id, name, sport_id, mode, generated, created_at FROM brackets WHERE id = $1`
	bracket := &models.Bracket{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&bracket.ID, &bracket.Name, &bracket.SportID, &bracket.Mode, &bracket.Generated, &bracket.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to scan bracket by id %d: %w", id, err)
	}
	return bracket, nil
}

func (r *postgresBracketRepository) SetGenerated(ctx context.Context, exec SQLExecutor, id int, generated bool) error {
	query := `UPDATE brackets SET generated = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, generated, id)
	if err != nil {
		return fmt.Errorf("failed to update bracket generated flag %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}

// Delete removes the bracket; matches and roster rows go with it via
// ON DELETE CASCADE.
func (r *postgresBracketRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM brackets WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete bracket %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}

func (r *postgresBracketRepository) handleBracketError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "brackets_sport_id_fkey":
			return ErrBracketSportInvalid
		case "bracket_teams_team_id_fkey", "bracket_teams_pkey":
			return ErrBracketTeamInvalid
		}
	}
	return err
}
