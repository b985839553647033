package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type CreateBracketParams struct {
	Name    string
	SportID int
	Mode    models.BracketMode
	TeamIDs []int
}

// BracketSnapshot is the aggregate view returned to bracket pages: the
// bracket row, its seeded roster and the match list.
type BracketSnapshot struct {
	Bracket *models.Bracket `json:"bracket"`
	Teams   []*models.Team  `json:"teams"`
	Matches []*models.Match `json:"matches"`
}

type BracketService interface {
	CreateBracket(ctx context.Context, params CreateBracketParams) (*models.Bracket, error)
	GenerateBracket(ctx context.Context, bracketID int) ([]*models.Match, error)
	GetBracketSnapshot(ctx context.Context, bracketID int, includeHidden bool) (*BracketSnapshot, error)
	ListMatches(ctx context.Context, bracketID int, includeHidden bool) ([]*models.Match, error)
	DeleteBracket(ctx context.Context, bracketID int) error
}

type bracketService struct {
	db          *sql.DB
	bracketRepo repositories.BracketRepository
	teamRepo    repositories.TeamRepository
	matchRepo   repositories.MatchRepository
	logger      *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	bracketRepo repositories.BracketRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:          db,
		bracketRepo: bracketRepo,
		teamRepo:    teamRepo,
		matchRepo:   matchRepo,
		logger:      logger,
	}
}

func (s *bracketService) CreateBracket(ctx context.Context, params CreateBracketParams) (*models.Bracket, error) {
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" || params.SportID <= 0 {
		return nil, ErrValidationFailed
	}
	if !params.Mode.Valid() {
		return nil, ErrUnsupportedMode
	}
	if len(params.TeamIDs) < 2 {
		return nil, ErrInsufficientTeams
	}
	seen := make(map[int]struct{}, len(params.TeamIDs))
	for _, id := range params.TeamIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate team id %d", ErrValidationFailed, id)
		}
		seen[id] = struct{}{}
	}

	// Every team must exist and belong to the bracket's sport.
	for _, teamID := range params.TeamIDs {
		team, err := s.teamRepo.GetByID(ctx, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return nil, fmt.Errorf("%w: team %d", ErrTeamNotFound, teamID)
			}
			return nil, err
		}
		if team.SportID != params.SportID {
			return nil, fmt.Errorf("%w: team %d", ErrTeamSportMismatch, teamID)
		}
	}

	bracket := &models.Bracket{
		Name:    params.Name,
		SportID: params.SportID,
		Mode:    params.Mode,
	}
	if err := s.bracketRepo.Create(ctx, bracket, params.TeamIDs); err != nil {
		if errors.Is(err, repositories.ErrBracketSportInvalid) {
			return nil, ErrSportNotFound
		}
		if errors.Is(err, repositories.ErrBracketTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return bracket, nil
}

// GenerateBracket builds the bracket topology and persists it atomically.
// The roster is shuffled into random seeds, the mode's generator produces the
// match skeletons, and two passes inside one transaction create the rows and
// then link the forward pointers. Re-generating an already generated bracket
// is rejected.
func (s *bracketService) GenerateBracket(ctx context.Context, bracketID int) ([]*models.Match, error) {
	bracket, err := s.getBracket(ctx, bracketID)
	if err != nil {
		return nil, err
	}
	if bracket.Generated {
		return nil, ErrBracketAlreadyGenerated
	}

	teams, err := s.teamRepo.ListByBracket(ctx, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bracket roster: %w", err)
	}
	shuffled, err := brackets.ShuffleTeams(teams, nil)
	if err != nil {
		if errors.Is(err, brackets.ErrInsufficientTeams) {
			return nil, ErrInsufficientTeams
		}
		return nil, err
	}

	generator, err := brackets.GeneratorForMode(bracket.Mode)
	if err != nil {
		return nil, ErrUnsupportedMode
	}
	skeletons, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
		Bracket: bracket,
		Teams:   shuffled,
	})
	if err != nil {
		if errors.Is(err, brackets.ErrInsufficientTeams) {
			return nil, ErrInsufficientTeams
		}
		return nil, fmt.Errorf("generator %s failed: %w", generator.GetName(), err)
	}

	generationID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin generation transaction: %w", err)
	}
	defer tx.Rollback()

	matches, err := s.persistSkeletons(ctx, tx, bracket, skeletons, generationID)
	if err != nil {
		return nil, err
	}
	if err = s.bracketRepo.SetGenerated(ctx, tx, bracketID, true); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit generation: %w", err)
	}

	s.logger.InfoContext(ctx, "bracket generated",
		slog.Int("bracket_id", bracketID),
		slog.String("mode", string(bracket.Mode)),
		slog.String("generator", generator.GetName()),
		slog.String("generation_id", generationID),
		slog.Int("match_count", len(matches)),
	)
	return matches, nil
}

// persistSkeletons: pass one creates the rows and records UID to row id,
// pass two resolves target UIDs into next-match pointers. A target UID with
// no row belongs to an elided loser-bracket match; its pointer stays NULL.
func (s *bracketService) persistSkeletons(
	ctx context.Context,
	tx *sql.Tx,
	bracket *models.Bracket,
	skeletons []*brackets.BracketMatch,
	generationID string,
) ([]*models.Match, error) {
	idByUID := make(map[string]int, len(skeletons))
	matches := make([]*models.Match, 0, len(skeletons))

	for _, sk := range skeletons {
		status := models.StatusScheduled
		if sk.Hidden {
			status = models.MatchStatusHidden
		}
		if sk.Completed {
			status = models.MatchStatusCompleted
		}
		match := &models.Match{
			BracketID:       bracket.ID,
			BracketType:     sk.BracketType,
			Stage:           sk.Stage,
			Round:           sk.Round,
			OrderInRound:    sk.OrderInRound,
			BracketMatchUID: sk.UID,
			Team1ID:         sk.Team1ID,
			Team2ID:         sk.Team2ID,
			Status:          status,
			WinnerID:        sk.WinnerID,
			IsBye:           sk.IsBye,
			GenerationID:    generationID,
		}
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return nil, fmt.Errorf("failed to persist match %s: %w", sk.UID, err)
		}
		idByUID[sk.UID] = match.ID
		matches = append(matches, match)
	}

	for i, sk := range skeletons {
		var winnerTarget, winnerSlot, loserTarget, loserSlot *int
		if sk.WinnerTargetUID != nil {
			if id, ok := idByUID[*sk.WinnerTargetUID]; ok {
				winnerTarget = &id
				slot := sk.WinnerSlot
				winnerSlot = &slot
			}
		}
		if sk.LoserTargetUID != nil {
			if id, ok := idByUID[*sk.LoserTargetUID]; ok {
				loserTarget = &id
				slot := sk.LoserSlot
				loserSlot = &slot
			}
		}
		if winnerTarget == nil && loserTarget == nil {
			continue
		}
		match := matches[i]
		if err := s.matchRepo.UpdateNextMatchInfo(ctx, tx, match.ID, winnerTarget, winnerSlot, loserTarget, loserSlot); err != nil {
			return nil, fmt.Errorf("failed to link match %s: %w", sk.UID, err)
		}
		match.NextMatchWinnerID = winnerTarget
		match.WinnerSlot = winnerSlot
		match.NextMatchLoserID = loserTarget
		match.LoserSlot = loserSlot
	}

	return matches, nil
}

// GetBracketSnapshot loads the bracket, roster and matches in parallel.
func (s *bracketService) GetBracketSnapshot(ctx context.Context, bracketID int, includeHidden bool) (*BracketSnapshot, error) {
	if _, err := s.getBracket(ctx, bracketID); err != nil {
		return nil, err
	}

	snapshot := &BracketSnapshot{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bracket, err := s.bracketRepo.GetByID(gCtx, bracketID)
		if err != nil {
			return err
		}
		snapshot.Bracket = bracket
		return nil
	})
	g.Go(func() error {
		teams, err := s.teamRepo.ListByBracket(gCtx, bracketID)
		if err != nil {
			return err
		}
		snapshot.Teams = teams
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByBracket(gCtx, bracketID, includeHidden)
		if err != nil {
			return err
		}
		snapshot.Matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load bracket snapshot %d: %w", bracketID, err)
	}
	return snapshot, nil
}

func (s *bracketService) ListMatches(ctx context.Context, bracketID int, includeHidden bool) ([]*models.Match, error) {
	if _, err := s.getBracket(ctx, bracketID); err != nil {
		return nil, err
	}
	return s.matchRepo.ListByBracket(ctx, bracketID, includeHidden)
}

func (s *bracketService) DeleteBracket(ctx context.Context, bracketID int) error {
	err := s.bracketRepo.Delete(ctx, bracketID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketNotFound) {
			return ErrBracketNotFound
		}
		return err
	}
	s.logger.InfoContext(ctx, "bracket deleted", slog.Int("bracket_id", bracketID))
	return nil
}

func (s *bracketService) getBracket(ctx context.Context, bracketID int) (*models.Bracket, error) {
	bracket, err := s.bracketRepo.GetByID(ctx, bracketID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketNotFound) {
			return nil, ErrBracketNotFound
		}
		return nil, err
	}
	return bracket, nil
}
