package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/medibrs/tournament-engine/brackets"
	"github.com/medibrs/tournament-engine/events"
	"github.com/medibrs/tournament-engine/lifecycle"
	"github.com/medibrs/tournament-engine/models"
	"github.com/medibrs/tournament-engine/repositories"
)

// OperationResult is the uniform envelope for orchestrated operations.
// Expected rule violations come back as Success=false with Error set;
// infrastructure failures and missing resources are returned as Go
// errors instead.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Orchestrator is the single entry point for format-aware tournament
// operations. It dispatches elimination formats to the bracket engines
// and Swiss to the pairing service.
type Orchestrator interface {
	GenerateBracket(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error)
	AdvanceRound(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error)
	ResetBracket(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error)

	CreateSwissDraft(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error)
	ApproveSwissPairings(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error)
	ModifySwissPairing(ctx context.Context, input ModifyPairingInput) (*OperationResult, error)
	RegenerateSwissDraft(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error)
}

type orchestrator struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	bracketRepo     repositories.BracketRepository
	matchRepo       repositories.MatchRepository
	pairingRepo     repositories.PairingRepository
	historyRepo     repositories.OpponentHistoryRepository
	swissService    SwissService
	bus             *events.Bus
	logger          *slog.Logger
}

func NewOrchestrator(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	bracketRepo repositories.BracketRepository,
	matchRepo repositories.MatchRepository,
	pairingRepo repositories.PairingRepository,
	historyRepo repositories.OpponentHistoryRepository,
	swissService SwissService,
	bus *events.Bus,
	logger *slog.Logger,
) Orchestrator {
	return &orchestrator{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		bracketRepo:     bracketRepo,
		matchRepo:       matchRepo,
		pairingRepo:     pairingRepo,
		historyRepo:     historyRepo,
		swissService:    swissService,
		bus:             bus,
		logger:          logger,
	}
}

// expectedFailures are rule violations callers can act on; they become
// Success=false results rather than errors.
var expectedFailures = []error{
	ErrBracketAlreadyExists,
	ErrNotEnoughTeams,
	ErrRoundIncomplete,
	ErrPairingLocked,
	ErrNoDraftPairings,
	ErrUnsupportedFormat,
	ErrInvalidBracket,
	ErrInvalidPairings,
	ErrInvalidStateTransition,
	ErrValidationFailed,
	ErrOverrideReasonRequired,
	brackets.ErrNotImplemented,
	repositories.ErrRoundConflict,
}

func toResult(data any, message string, err error) (*OperationResult, error) {
	if err == nil {
		return &OperationResult{Success: true, Message: message, Data: data}, nil
	}
	for _, expected := range expectedFailures {
		if errors.Is(err, expected) {
			return &OperationResult{Success: false, Error: err.Error()}, nil
		}
	}
	return nil, err
}

func (o *orchestrator) GenerateBracket(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error) {
	tournament, err := o.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	if tournament.Format == models.FormatSwiss {
		return o.generateSwissOpening(ctx, tournamentID, userID)
	}

	data, err := o.generateEliminationBracket(ctx, tournament, userID)
	return toResult(data, "bracket generated", err)
}

// generateSwissOpening creates the round 1 draft and approves it in one
// step. Round 1 is seed-deterministic, so there is nothing for an
// organizer to review.
func (o *orchestrator) generateSwissOpening(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error) {
	if _, err := o.swissService.CreateDraft(ctx, tournamentID, userID); err != nil {
		return toResult(nil, "", err)
	}
	matches, err := o.swissService.ApprovePairings(ctx, tournamentID, userID)
	return toResult(map[string]any{"matches": matches}, "opening round generated", err)
}

func (o *orchestrator) generateEliminationBracket(ctx context.Context, tournament *models.Tournament, userID *string) (any, error) {
	if !lifecycle.GetCapabilities(tournament.State).CanGenerateBracket {
		return nil, fmt.Errorf("%w: state %q does not allow bracket generation",
			ErrInvalidStateTransition, tournament.State)
	}

	engine, err := brackets.EngineFor(tournament.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	exists, err := o.bracketRepo.Exists(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBracketAlreadyExists
	}

	participants, err := o.participantRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}
	teams := make([]brackets.TeamSeed, 0, len(participants))
	for _, p := range participants {
		if !p.IsActive {
			continue
		}
		teams = append(teams, brackets.TeamSeed{
			TeamID:     p.TeamID,
			SeedNumber: p.SeedNumber,
			TeamName:   p.TeamName,
		})
	}
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 active teams (have %d)", ErrNotEnoughTeams, len(teams))
	}

	config := brackets.FormatConfig{
		OpeningBestOf:     tournament.OpeningBestOf,
		ProgressionBestOf: tournament.ProgressionBestOf,
		EliminationBestOf: tournament.EliminationBestOf,
		FinalsBestOf:      tournament.FinalsBestOf,
	}
	proposal, err := engine.GenerateBracket(teams, config)
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughTeams) {
			return nil, fmt.Errorf("%w: %v", ErrNotEnoughTeams, err)
		}
		return nil, err
	}
	if validation := engine.Validate(proposal); !validation.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBracket, validation.Errors)
	}

	// Generation ends with the tournament live; validate the state
	// transition before touching storage.
	if err := validateStart(tournament.State, len(teams), tournament.MinTeams); err != nil {
		return nil, err
	}

	slots := make([]*models.BracketSlot, len(proposal.Slots))
	slotIndex := make(map[[2]int]int, len(proposal.Slots))
	for i, s := range proposal.Slots {
		slots[i] = &models.BracketSlot{
			TournamentID:    tournament.ID,
			RoundNumber:     s.RoundNumber,
			BracketPosition: s.BracketPosition,
			IsFinal:         s.IsFinal,
		}
		slotIndex[[2]int{s.RoundNumber, s.BracketPosition}] = i
	}

	err = withTournamentTx(ctx, o.db, o.logger, tournament.ID, func(tx *sql.Tx) error {
		if err := o.bracketRepo.CreateBatch(ctx, tx, slots); err != nil {
			return err
		}

		matches := make([]*models.Match, len(proposal.Matches))
		for i, m := range proposal.Matches {
			idx, ok := slotIndex[[2]int{m.RoundNumber, m.BracketPosition}]
			if !ok {
				return fmt.Errorf("proposed match at round %d position %d has no bracket slot", m.RoundNumber, m.BracketPosition)
			}
			matches[i] = &models.Match{
				TournamentID: tournament.ID,
				BracketID:    slots[idx].ID,
				MatchNumber:  i + 1,
				Team1ID:      m.Team1ID,
				Team2ID:      m.Team2ID,
				WinnerID:     m.WinnerID,
				Status:       m.Status,
				Result:       m.Result,
				BestOf:       m.BestOf,
			}
		}
		if err := o.matchRepo.CreateBatch(ctx, tx, matches); err != nil {
			return err
		}
		if err := o.tournamentRepo.UpdateRounds(ctx, tx, tournament.ID, 1, proposal.TotalRounds); err != nil {
			return err
		}
		return o.tournamentRepo.UpdateState(ctx, tx, tournament.ID, models.StateInProgress)
	})
	if err != nil {
		return nil, err
	}

	o.emit(ctx, models.EventBracketGenerated, tournament.ID, map[string]any{
		"format":       string(tournament.Format),
		"total_rounds": proposal.TotalRounds,
		"team_count":   proposal.Metadata.TeamCount,
		"bye_count":    proposal.Metadata.ByeCount,
	}, userID)
	o.emit(ctx, models.EventTournamentStateChanged, tournament.ID, map[string]any{
		"from": string(tournament.State),
		"to":   string(models.StateInProgress),
	}, userID)

	return proposal, nil
}

func (o *orchestrator) AdvanceRound(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error) {
	tournament, err := o.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	if tournament.Format == models.FormatSwiss {
		outcome, err := o.swissService.AdvanceRound(ctx, tournamentID, userID)
		return toResult(outcome, "round advanced", err)
	}

	data, err := o.advanceEliminationRound(ctx, tournament, userID)
	return toResult(data, "round advanced", err)
}

func (o *orchestrator) advanceEliminationRound(ctx context.Context, tournament *models.Tournament, userID *string) (any, error) {
	if !lifecycle.GetCapabilities(tournament.State).CanAdvanceRound {
		return nil, fmt.Errorf("%w: state %q does not allow advancing rounds",
			ErrInvalidStateTransition, tournament.State)
	}

	engine, err := brackets.EngineFor(tournament.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	records, err := o.matchRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}
	slotRows, err := o.bracketRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}

	round := tournament.CurrentRound
	var completed []brackets.CompletedMatch
	matchIDBySlot := make(map[[2]int]string, len(records))
	for _, r := range records {
		matchIDBySlot[[2]int{r.RoundNumber, r.BracketPosition}] = r.ID
		if r.RoundNumber == round && r.Status != models.MatchStatusCompleted {
			return nil, fmt.Errorf("%w: match %s at position %d", ErrRoundIncomplete, r.ID, r.BracketPosition)
		}
		if r.Status == models.MatchStatusCompleted {
			completed = append(completed, brackets.CompletedMatch{
				ID:              r.ID,
				BracketPosition: r.BracketPosition,
				RoundNumber:     r.RoundNumber,
				Team1ID:         r.Team1ID,
				Team2ID:         r.Team2ID,
				WinnerID:        r.WinnerID,
				Result:          r.Result,
				Status:          r.Status,
			})
		}
	}

	slots := make([]brackets.Slot, len(slotRows))
	for i, s := range slotRows {
		slots[i] = brackets.Slot{
			RoundNumber:     s.RoundNumber,
			BracketPosition: s.BracketPosition,
			IsFinal:         s.IsFinal,
		}
	}

	result, err := engine.ComputeAdvancements(round, tournament.TotalRounds, completed, slots)
	if err != nil {
		return nil, err
	}

	if result.TournamentCompleted {
		winnerID := finalWinner(completed, tournament.TotalRounds)
		err = withTournamentTx(ctx, o.db, o.logger, tournament.ID, func(tx *sql.Tx) error {
			if err := o.tournamentRepo.SetWinner(ctx, tx, tournament.ID, winnerID); err != nil {
				return err
			}
			return o.tournamentRepo.UpdateState(ctx, tx, tournament.ID, models.StateCompleted)
		})
		if err != nil {
			return nil, err
		}

		o.emit(ctx, models.EventTournamentCompleted, tournament.ID, map[string]any{
			"winner_team_id": derefString(winnerID),
		}, userID)
		return result, nil
	}

	err = withTournamentTx(ctx, o.db, o.logger, tournament.ID, func(tx *sql.Tx) error {
		for _, adv := range result.Advancements {
			matchID, ok := matchIDBySlot[[2]int{adv.NextRound, adv.NextBracketPosition}]
			if !ok {
				return fmt.Errorf("no match at round %d position %d to advance into", adv.NextRound, adv.NextBracketPosition)
			}
			if err := o.matchRepo.SetTeamSlot(ctx, tx, matchID, string(adv.Side), adv.WinnerID); err != nil {
				return err
			}
		}
		return o.tournamentRepo.AdvanceCurrentRound(ctx, tx, tournament.ID, round, round+1)
	})
	if err != nil {
		return nil, err
	}

	o.emit(ctx, models.EventRoundAdvanced, tournament.ID, map[string]any{
		"round":        round + 1,
		"advancements": len(result.Advancements),
	}, userID)

	return result, nil
}

// finalWinner is the winner of the last completed final-round match.
func finalWinner(completed []brackets.CompletedMatch, totalRounds int) *string {
	for _, m := range completed {
		if m.RoundNumber == totalRounds && m.WinnerID != nil {
			return m.WinnerID
		}
	}
	return nil
}

// ResetBracket wipes all bracket state, matches, pairings and swiss
// progress so the bracket can be regenerated from scratch.
func (o *orchestrator) ResetBracket(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error) {
	tournament, err := o.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.GetCapabilities(tournament.State).IsMutable {
		return toResult(nil, "", fmt.Errorf("%w: state %q does not allow resetting the bracket",
			ErrInvalidStateTransition, tournament.State))
	}

	err = withTournamentTx(ctx, o.db, o.logger, tournamentID, func(tx *sql.Tx) error {
		if err := o.matchRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		if err := o.bracketRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		if err := o.pairingRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		if err := o.historyRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		if err := o.participantRepo.ResetSwissProgress(ctx, tx, tournamentID); err != nil {
			return err
		}
		return o.tournamentRepo.ResetProgress(ctx, tx, tournamentID)
	})
	if err != nil {
		return nil, err
	}

	o.emit(ctx, models.EventBracketReset, tournamentID, map[string]any{
		"format": string(tournament.Format),
	}, userID)

	return &OperationResult{Success: true, Message: "bracket reset"}, nil
}

func (o *orchestrator) CreateSwissDraft(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error) {
	pairings, err := o.swissService.CreateDraft(ctx, tournamentID, userID)
	return toResult(pairings, "draft created", err)
}

func (o *orchestrator) ApproveSwissPairings(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error) {
	matches, err := o.swissService.ApprovePairings(ctx, tournamentID, userID)
	return toResult(matches, "pairings approved", err)
}

func (o *orchestrator) ModifySwissPairing(ctx context.Context, input ModifyPairingInput) (*OperationResult, error) {
	pairing, err := o.swissService.ModifyPairing(ctx, input)
	return toResult(pairing, "pairing modified", err)
}

func (o *orchestrator) RegenerateSwissDraft(ctx context.Context, tournamentID string, userID *string) (*OperationResult, error) {
	pairings, err := o.swissService.RegenerateDraft(ctx, tournamentID, userID)
	return toResult(pairings, "draft regenerated", err)
}

func (o *orchestrator) emit(ctx context.Context, eventType models.EventType, tournamentID string, payload map[string]any, userID *string) {
	if err := o.bus.Emit(ctx, eventType, tournamentID, payload, userID); err != nil {
		o.logger.WarnContext(ctx, "failed to record event",
			slog.String("event_type", string(eventType)),
			slog.String("tournament_id", tournamentID),
			slog.Any("error", err))
	}
}
