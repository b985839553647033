package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
)

type SubmitResultParams struct {
	MatchID    int
	WinnerID   int
	ScoreTeam1 *int
	ScoreTeam2 *int
}

// AdvancementOutcome describes what a recorded result changed: the match
// itself, the downstream matches that received a team (including byes the
// placement cascaded through), whether the grand final forced a bracket
// reset, and the champion when the result decided the bracket.
type AdvancementOutcome struct {
	Match        *models.Match   `json:"match"`
	Advanced     []*models.Match `json:"advanced,omitempty"`
	BracketReset bool            `json:"bracket_reset"`
	ChampionID   *int            `json:"champion_id,omitempty"`
}

type MatchService interface {
	SubmitResult(ctx context.Context, params SubmitResultParams) (*AdvancementOutcome, error)
	CorrectResult(ctx context.Context, params SubmitResultParams) (*AdvancementOutcome, error)
	StartMatch(ctx context.Context, matchID int) (*models.Match, error)
	GetMatchByID(ctx context.Context, matchID int) (*models.Match, error)
}

// matchStore is the transactional view the advancement rules run against.
// LockMatch pins the row for the rest of the transaction; the rules always
// lock source before downstream, matching the bracket's forward-only edges,
// so two concurrent submissions cannot deadlock.
type matchStore interface {
	LockMatch(ctx context.Context, matchID int) (*models.Match, error)
	LockByStage(ctx context.Context, bracketID int, stage models.MatchStage) (*models.Match, error)
	UpdateResult(ctx context.Context, match *models.Match) error
	SetTeamSlot(ctx context.Context, matchID, slot, teamID int) error
	ClearTeamSlot(ctx context.Context, matchID, slot int) error
	ClearResult(ctx context.Context, matchID int) error
	UpdateStatus(ctx context.Context, matchID int, status models.MatchStatus) error
	GetBracket(ctx context.Context, bracketID int) (*models.Bracket, error)
}

type txMatchStore struct {
	tx          *sql.Tx
	matchRepo   repositories.MatchRepository
	bracketRepo repositories.BracketRepository
}

func (s *txMatchStore) LockMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByIDForUpdate(ctx, s.tx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *txMatchStore) LockByStage(ctx context.Context, bracketID int, stage models.MatchStage) (*models.Match, error) {
	match, err := s.matchRepo.GetByStageForUpdate(ctx, s.tx, bracketID, stage)
	if err != nil {
		if errors.Is(err, repositories.ErrResetFinalNotFound) || errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *txMatchStore) UpdateResult(ctx context.Context, match *models.Match) error {
	return s.matchRepo.UpdateResult(ctx, s.tx, match)
}

func (s *txMatchStore) SetTeamSlot(ctx context.Context, matchID, slot, teamID int) error {
	return s.matchRepo.SetTeamSlot(ctx, s.tx, matchID, slot, teamID)
}

func (s *txMatchStore) ClearTeamSlot(ctx context.Context, matchID, slot int) error {
	return s.matchRepo.ClearTeamSlot(ctx, s.tx, matchID, slot)
}

func (s *txMatchStore) ClearResult(ctx context.Context, matchID int) error {
	return s.matchRepo.ClearResult(ctx, s.tx, matchID)
}

func (s *txMatchStore) UpdateStatus(ctx context.Context, matchID int, status models.MatchStatus) error {
	return s.matchRepo.UpdateStatus(ctx, s.tx, matchID, status)
}

func (s *txMatchStore) GetBracket(ctx context.Context, bracketID int) (*models.Bracket, error) {
	bracket, err := s.bracketRepo.GetByID(ctx, bracketID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketNotFound) {
			return nil, ErrBracketNotFound
		}
		return nil, err
	}
	return bracket, nil
}

type matchService struct {
	db          *sql.DB
	matchRepo   repositories.MatchRepository
	bracketRepo repositories.BracketRepository
	hub         *brackets.Hub
	logger      *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	bracketRepo repositories.BracketRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:          db,
		matchRepo:   matchRepo,
		bracketRepo: bracketRepo,
		hub:         hub,
		logger:      logger,
	}
}

func (s *matchService) GetMatchByID(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) StartMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.GetMatchByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	switch match.Status {
	case models.MatchStatusHidden:
		return nil, ErrMatchHidden
	case models.MatchStatusCompleted:
		return nil, ErrResultConflict
	case models.StatusInProgress:
		return match, nil
	}
	if !match.Ready() {
		return nil, ErrMatchNotReady
	}
	if err = s.matchRepo.UpdateStatus(ctx, s.db, matchID, models.StatusInProgress); err != nil {
		return nil, err
	}
	match.Status = models.StatusInProgress
	s.broadcast(match.BracketID, brackets.EventMatchUpdated, match)
	return match, nil
}

// SubmitResult records the winner of a match and advances the bracket inside
// one transaction. Resubmitting an identical result is a no-op; a different
// result on a completed match is rejected (corrections go through
// CorrectResult).
func (s *matchService) SubmitResult(ctx context.Context, params SubmitResultParams) (*AdvancementOutcome, error) {
	outcome, err := s.inTransaction(ctx, func(store matchStore) (*AdvancementOutcome, error) {
		return submitResult(ctx, store, params)
	})
	if err != nil {
		return nil, err
	}
	s.publishOutcome(ctx, outcome)
	return outcome, nil
}

// CorrectResult replaces the result of an already completed match. A
// correction is only allowed while none of the match's direct downstream
// targets has progressed past scheduled: once a later match starts, completes
// or auto-completes as a bye, the old result is load-bearing and stays.
func (s *matchService) CorrectResult(ctx context.Context, params SubmitResultParams) (*AdvancementOutcome, error) {
	outcome, err := s.inTransaction(ctx, func(store matchStore) (*AdvancementOutcome, error) {
		return correctResult(ctx, store, params)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "match result corrected",
		slog.Int("match_id", params.MatchID),
		slog.Int("winner_id", params.WinnerID),
	)
	s.publishOutcome(ctx, outcome)
	return outcome, nil
}

func (s *matchService) inTransaction(ctx context.Context, fn func(matchStore) (*AdvancementOutcome, error)) (*AdvancementOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	outcome, err := fn(&txMatchStore{tx: tx, matchRepo: s.matchRepo, bracketRepo: s.bracketRepo})
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return outcome, nil
}

func submitResult(ctx context.Context, store matchStore, params SubmitResultParams) (*AdvancementOutcome, error) {
	if err := validateScores(params.ScoreTeam1, params.ScoreTeam2); err != nil {
		return nil, err
	}
	match, err := store.LockMatch(ctx, params.MatchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusHidden {
		return nil, ErrMatchHidden
	}
	if match.Status == models.MatchStatusCompleted {
		if sameResult(match, params) {
			return &AdvancementOutcome{Match: match}, nil
		}
		return nil, ErrResultConflict
	}
	if !match.Ready() {
		return nil, ErrMatchNotReady
	}
	if !match.HasTeam(params.WinnerID) {
		return nil, ErrInvalidWinner
	}
	if err = validateWinnerScore(match, params); err != nil {
		return nil, err
	}
	return completeAndAdvance(ctx, store, match, params)
}

func correctResult(ctx context.Context, store matchStore, params SubmitResultParams) (*AdvancementOutcome, error) {
	if err := validateScores(params.ScoreTeam1, params.ScoreTeam2); err != nil {
		return nil, err
	}
	match, err := store.LockMatch(ctx, params.MatchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusCompleted {
		return nil, ErrMatchNotCompleted
	}
	if !match.HasTeam(params.WinnerID) {
		return nil, ErrInvalidWinner
	}
	if err = validateWinnerScore(match, params); err != nil {
		return nil, err
	}

	if match.Stage == models.StageGrandFinal {
		err = rollbackGrandFinal(ctx, store, match)
	} else {
		err = rollbackPlacements(ctx, store, match)
	}
	if err != nil {
		return nil, err
	}

	if err = store.ClearResult(ctx, match.ID); err != nil {
		return nil, err
	}
	match.Status = models.StatusScheduled
	match.WinnerID = nil
	match.LoserID = nil
	match.ScoreTeam1 = nil
	match.ScoreTeam2 = nil

	return completeAndAdvance(ctx, store, match, params)
}

// completeAndAdvance writes the result onto a locked, not-yet-completed match
// and runs the advancement rules for its stage.
func completeAndAdvance(ctx context.Context, store matchStore, match *models.Match, params SubmitResultParams) (*AdvancementOutcome, error) {
	loserID := otherTeam(match, params.WinnerID)

	match.Status = models.MatchStatusCompleted
	match.WinnerID = &params.WinnerID
	match.LoserID = loserID
	match.ScoreTeam1 = params.ScoreTeam1
	match.ScoreTeam2 = params.ScoreTeam2
	if err := store.UpdateResult(ctx, match); err != nil {
		return nil, err
	}

	outcome := &AdvancementOutcome{Match: match}

	switch match.Stage {
	case models.StageGrandFinal:
		// The grand final's second slot always holds the loser-bracket
		// representative. If they win, both finalists are on one loss and a
		// reset final decides the bracket.
		if match.Team2ID != nil && *match.Team2ID == params.WinnerID {
			resetFinal, err := activateResetFinal(ctx, store, match, params.WinnerID, *loserID)
			if err != nil {
				return nil, err
			}
			outcome.BracketReset = true
			outcome.Advanced = append(outcome.Advanced, resetFinal)
			return outcome, nil
		}
		outcome.ChampionID = &params.WinnerID
		return outcome, nil

	case models.StageResetFinal:
		outcome.ChampionID = &params.WinnerID
		return outcome, nil
	}

	if match.NextMatchWinnerID != nil && match.WinnerSlot != nil {
		advanced, err := placeTeam(ctx, store, *match.NextMatchWinnerID, *match.WinnerSlot, params.WinnerID)
		if err != nil {
			return nil, err
		}
		outcome.Advanced = append(outcome.Advanced, advanced...)
	}
	if match.NextMatchLoserID != nil && match.LoserSlot != nil && loserID != nil {
		advanced, err := placeTeam(ctx, store, *match.NextMatchLoserID, *match.LoserSlot, *loserID)
		if err != nil {
			return nil, err
		}
		outcome.Advanced = append(outcome.Advanced, advanced...)
	}

	if match.NextMatchWinnerID == nil {
		bracket, err := store.GetBracket(ctx, match.BracketID)
		if err != nil {
			return nil, err
		}
		if bracket.Mode == models.ModeSingleElimination {
			outcome.ChampionID = &params.WinnerID
		}
	}
	return outcome, nil
}

// placeTeam puts teamID into the designated slot of the target match and
// cascades: a bye target auto-completes with the arriving team as winner and
// forwards it again.
func placeTeam(ctx context.Context, store matchStore, targetID, slot, teamID int) ([]*models.Match, error) {
	target, err := store.LockMatch(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err = store.SetTeamSlot(ctx, targetID, slot, teamID); err != nil {
		return nil, err
	}
	switch slot {
	case 1:
		target.Team1ID = &teamID
	case 2:
		target.Team2ID = &teamID
	}

	updated := []*models.Match{target}

	if target.IsBye && target.Status == models.StatusScheduled {
		target.Status = models.MatchStatusCompleted
		target.WinnerID = &teamID
		if err = store.UpdateResult(ctx, target); err != nil {
			return nil, err
		}
		if target.NextMatchWinnerID != nil && target.WinnerSlot != nil {
			cascaded, err := placeTeam(ctx, store, *target.NextMatchWinnerID, *target.WinnerSlot, teamID)
			if err != nil {
				return nil, err
			}
			updated = append(updated, cascaded...)
		}
	}
	return updated, nil
}

// activateResetFinal unhides the reset final and seats both grand finalists
// again: the loser-bracket representative who just won takes slot one.
func activateResetFinal(ctx context.Context, store matchStore, grandFinal *models.Match, winnerID, loserID int) (*models.Match, error) {
	resetFinal, err := store.LockByStage(ctx, grandFinal.BracketID, models.StageResetFinal)
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, fmt.Errorf("bracket %d has no reset final: %w", grandFinal.BracketID, err)
		}
		return nil, err
	}
	if err = store.SetTeamSlot(ctx, resetFinal.ID, 1, winnerID); err != nil {
		return nil, err
	}
	if err = store.SetTeamSlot(ctx, resetFinal.ID, 2, loserID); err != nil {
		return nil, err
	}
	if err = store.UpdateStatus(ctx, resetFinal.ID, models.StatusScheduled); err != nil {
		return nil, err
	}
	resetFinal.Team1ID = &winnerID
	resetFinal.Team2ID = &loserID
	resetFinal.Status = models.StatusScheduled
	return resetFinal, nil
}

// rollbackPlacements undoes the downstream effects of a completed match so
// the result can be replaced. Every direct target must still be scheduled.
func rollbackPlacements(ctx context.Context, store matchStore, match *models.Match) error {
	if match.NextMatchWinnerID != nil && match.WinnerSlot != nil {
		if err := clearDownstreamSlot(ctx, store, *match.NextMatchWinnerID, *match.WinnerSlot); err != nil {
			return err
		}
	}
	if match.NextMatchLoserID != nil && match.LoserSlot != nil {
		if err := clearDownstreamSlot(ctx, store, *match.NextMatchLoserID, *match.LoserSlot); err != nil {
			return err
		}
	}
	return nil
}

func clearDownstreamSlot(ctx context.Context, store matchStore, targetID, slot int) error {
	target, err := store.LockMatch(ctx, targetID)
	if err != nil {
		return err
	}
	// A bye that auto-completed counts as downstream progress too: its own
	// forward placement already happened.
	if target.Status != models.StatusScheduled {
		return ErrCorrectionBlocked
	}
	return store.ClearTeamSlot(ctx, targetID, slot)
}

// rollbackGrandFinal deactivates a reset final that the old grand final
// result may have triggered. A started or completed reset final pins the
// grand final result for good.
func rollbackGrandFinal(ctx context.Context, store matchStore, grandFinal *models.Match) error {
	resetFinal, err := store.LockByStage(ctx, grandFinal.BracketID, models.StageResetFinal)
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil
		}
		return err
	}
	switch resetFinal.Status {
	case models.MatchStatusHidden:
		return nil
	case models.StatusScheduled:
		if err = store.ClearTeamSlot(ctx, resetFinal.ID, 1); err != nil {
			return err
		}
		if err = store.ClearTeamSlot(ctx, resetFinal.ID, 2); err != nil {
			return err
		}
		return store.UpdateStatus(ctx, resetFinal.ID, models.MatchStatusHidden)
	default:
		return ErrCorrectionBlocked
	}
}

func (s *matchService) publishOutcome(ctx context.Context, outcome *AdvancementOutcome) {
	if outcome == nil || outcome.Match == nil {
		return
	}
	bracketID := outcome.Match.BracketID
	s.broadcast(bracketID, brackets.EventMatchUpdated, outcome)
	if outcome.BracketReset {
		s.broadcast(bracketID, brackets.EventBracketReset, outcome)
	}
	if outcome.ChampionID != nil {
		s.broadcast(bracketID, brackets.EventChampionDecided, outcome)
		s.logger.InfoContext(ctx, "champion decided",
			slog.Int("bracket_id", bracketID),
			slog.Int("champion_id", *outcome.ChampionID),
		)
	}
}

func (s *matchService) broadcast(bracketID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	room := strconv.Itoa(bracketID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    eventType,
		Payload: payload,
		RoomID:  room,
	})
}

func otherTeam(m *models.Match, teamID int) *int {
	if m.Team1ID != nil && *m.Team1ID != teamID {
		return m.Team1ID
	}
	if m.Team2ID != nil && *m.Team2ID != teamID {
		return m.Team2ID
	}
	return nil
}

func validateScores(score1, score2 *int) error {
	if (score1 == nil) != (score2 == nil) {
		return fmt.Errorf("%w: scores must be provided for both teams or neither", ErrValidationFailed)
	}
	if score1 != nil && (*score1 < 0 || *score2 < 0) {
		return fmt.Errorf("%w: scores cannot be negative", ErrValidationFailed)
	}
	return nil
}

// validateWinnerScore rejects score lines that contradict the declared
// winner.
func validateWinnerScore(m *models.Match, params SubmitResultParams) error {
	if params.ScoreTeam1 == nil || params.ScoreTeam2 == nil {
		return nil
	}
	winnerIsTeam1 := m.Team1ID != nil && *m.Team1ID == params.WinnerID
	if winnerIsTeam1 && *params.ScoreTeam1 < *params.ScoreTeam2 {
		return fmt.Errorf("%w: declared winner has the lower score", ErrValidationFailed)
	}
	if !winnerIsTeam1 && *params.ScoreTeam2 < *params.ScoreTeam1 {
		return fmt.Errorf("%w: declared winner has the lower score", ErrValidationFailed)
	}
	return nil
}

func sameResult(m *models.Match, params SubmitResultParams) bool {
	if m.WinnerID == nil || *m.WinnerID != params.WinnerID {
		return false
	}
	return intPtrEqual(m.ScoreTeam1, params.ScoreTeam1) && intPtrEqual(m.ScoreTeam2, params.ScoreTeam2)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
