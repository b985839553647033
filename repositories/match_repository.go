package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchSlotOccupied  = errors.New("match slot already occupied by another team")
	ErrMatchInvalidTeam   = errors.New("match references invalid team")
	ErrResetFinalNotFound = errors.New("reset final not found")
)

const matchColumns = `id, bracket_id, bracket_type, stage, round, order_in_round, bracket_match_uid,
	team1_id, team2_id, status, winner_id, loser_id, score_team1, score_team2,
	next_match_winner_id, winner_slot, next_match_loser_id, loser_slot,
	is_bye, generation_id, created_at`

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	GetByStageForUpdate(ctx context.Context, exec SQLExecutor, bracketID int, stage models.MatchStage) (*models.Match, error)
	ListByBracket(ctx context.Context, bracketID int, includeHidden bool) ([]*models.Match, error)
	UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, matchID int, winnerTarget, winnerSlot, loserTarget, loserSlot *int) error
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
	SetTeamSlot(ctx context.Context, exec SQLExecutor, matchID, slot, teamID int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, matchID int, status models.MatchStatus) error
	ClearResult(ctx context.Context, exec SQLExecutor, matchID int) error
	ClearTeamSlot(ctx context.Context, exec SQLExecutor, matchID, slot int) error
	DeleteByBracket(ctx context.Context, exec SQLExecutor, bracketID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (
			bracket_id, bracket_type, stage, round, order_in_round, bracket_match_uid,
			team1_id, team2_id, status, winner_id, loser_id, is_bye, generation_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`
	err := exec.QueryRowContext(ctx, query,
		match.BracketID, match.BracketType, match.Stage, match.Round, match.OrderInRound, match.BracketMatchUID,
		match.Team1ID, match.Team2ID, match.Status, match.WinnerID, match.LoserID, match.IsBye, match.GenerationID,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "matches_team1_id_fkey", "matches_team2_id_fkey":
				return ErrMatchInvalidTeam
			case "matches_bracket_id_fkey":
				return ErrBracketNotFound
			}
		}
		return fmt.Errorf("failed to create match %s: %w", match.BracketMatchUID, err)
	}
	match.RoundNumber = match.DisplayRound()
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE id = $1`, matchColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate locks the match row for the duration of the surrounding
// transaction. Advancement always locks source before target so concurrent
// submissions on one bracket serialize without deadlocking.
func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE id = $1 FOR UPDATE`, matchColumns)
	return r.scanOne(exec.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByStageForUpdate(ctx context.Context, exec SQLExecutor, bracketID int, stage models.MatchStage) (*models.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE bracket_id = $1 AND stage = $2 FOR UPDATE`, matchColumns)
	match, err := r.scanOne(exec.QueryRowContext(ctx, query, bracketID, stage))
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) && stage == models.StageResetFinal {
			return nil, ErrResetFinalNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByBracket(ctx context.Context, bracketID int, includeHidden bool) ([]*models.Match, error) {
	var query strings.Builder
	query.WriteString(fmt.Sprintf(`SELECT %s FROM matches WHERE bracket_id = $1`, matchColumns))
	if !includeHidden {
		query.WriteString(` AND status != 'hidden'`)
	}
	query.WriteString(` ORDER BY
		CASE stage WHEN 'grand_final' THEN 1 WHEN 'reset_final' THEN 2 ELSE 0 END,
		CASE bracket_type WHEN 'loser' THEN 1 ELSE 0 END,
		round, order_in_round`)

	rows, err := r.db.QueryContext(ctx, query.String(), bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for bracket %d: %w", bracketID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

// UpdateNextMatchInfo fills the forward pointers after all rows of a
// generation exist. Generation creates rows first, then links them.
func (r *postgresMatchRepository) UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, matchID int, winnerTarget, winnerSlot, loserTarget, loserSlot *int) error {
	query := `
		UPDATE matches
		SET next_match_winner_id = $1, winner_slot = $2, next_match_loser_id = $3, loser_slot = $4
		WHERE id = $5`
	result, err := exec.ExecContext(ctx, query, winnerTarget, winnerSlot, loserTarget, loserSlot, matchID)
	if err != nil {
		return fmt.Errorf("failed to link match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET status = $1, winner_id = $2, loser_id = $3, score_team1 = $4, score_team2 = $5
		WHERE id = $6`
	result, err := exec.ExecContext(ctx, query,
		match.Status, match.WinnerID, match.LoserID, match.ScoreTeam1, match.ScoreTeam2, match.ID)
	if err != nil {
		return fmt.Errorf("failed to update result for match %d: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// SetTeamSlot places a team into slot 1 or 2 of the target match. The guard
// in WHERE keeps resubmissions idempotent: placing the same team again is a
// no-op, placing a different team into a taken slot is a conflict.
func (r *postgresMatchRepository) SetTeamSlot(ctx context.Context, exec SQLExecutor, matchID, slot, teamID int) error {
	var column string
	switch slot {
	case 1:
		column = "team1_id"
	case 2:
		column = "team2_id"
	default:
		return fmt.Errorf("invalid team slot %d for match %d", slot, matchID)
	}

	query := fmt.Sprintf(`
		UPDATE matches SET %s = $1
		WHERE id = $2 AND (%s IS NULL OR %s = $1)`, column, column, column)
	result, err := exec.ExecContext(ctx, query, teamID, matchID)
	if err != nil {
		return fmt.Errorf("failed to place team %d into match %d: %w", teamID, matchID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Either the match is gone or another team already holds the slot.
		var exists bool
		checkErr := exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, matchID).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("failed to verify match %d: %w", matchID, checkErr)
		}
		if !exists {
			return ErrMatchNotFound
		}
		return ErrMatchSlotOccupied
	}
	return nil
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, matchID int, status models.MatchStatus) error {
	query := `UPDATE matches SET status = $1 WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, status, matchID)
	if err != nil {
		return fmt.Errorf("failed to update status for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// ClearResult reverts a match to scheduled with no winner or scores. Used by
// result correction before the corrected outcome is re-applied.
func (r *postgresMatchRepository) ClearResult(ctx context.Context, exec SQLExecutor, matchID int) error {
	query := `
		UPDATE matches
		SET status = 'scheduled', winner_id = NULL, loser_id = NULL, score_team1 = NULL, score_team2 = NULL
		WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, matchID)
	if err != nil {
		return fmt.Errorf("failed to clear result for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ClearTeamSlot(ctx context.Context, exec SQLExecutor, matchID, slot int) error {
	var column string
	switch slot {
	case 1:
		column = "team1_id"
	case 2:
		column = "team2_id"
	default:
		return fmt.Errorf("invalid team slot %d for match %d", slot, matchID)
	}
	query := fmt.Sprintf(`UPDATE matches SET %s = NULL WHERE id = $1`, column)
	result, err := exec.ExecContext(ctx, query, matchID)
	if err != nil {
		return fmt.Errorf("failed to clear slot %d of match %d: %w", slot, matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByBracket(ctx context.Context, exec SQLExecutor, bracketID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM matches WHERE bracket_id = $1`, bracketID)
	if err != nil {
		return fmt.Errorf("failed to delete matches for bracket %d: %w", bracketID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(s rowScanner) (*models.Match, error) {
	m := &models.Match{}
	err := s.Scan(
		&m.ID, &m.BracketID, &m.BracketType, &m.Stage, &m.Round, &m.OrderInRound, &m.BracketMatchUID,
		&m.Team1ID, &m.Team2ID, &m.Status, &m.WinnerID, &m.LoserID, &m.ScoreTeam1, &m.ScoreTeam2,
		&m.NextMatchWinnerID, &m.WinnerSlot, &m.NextMatchLoserID, &m.LoserSlot,
		&m.IsBye, &m.GenerationID, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan match row: %w", err)
	}
	m.RoundNumber = m.DisplayRound()
	return m, nil
}

func (r *postgresMatchRepository) scanOne(row *sql.Row) (*models.Match, error) {
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}
