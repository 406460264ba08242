package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/medibrs/tournament-engine/events"
	"github.com/medibrs/tournament-engine/lifecycle"
	"github.com/medibrs/tournament-engine/models"
	"github.com/medibrs/tournament-engine/repositories"
)

// LifecycleView is the aggregated answer to "what can happen to this
// tournament right now".
type LifecycleView struct {
	TournamentID     string                   `json:"tournament_id"`
	State            models.TournamentState   `json:"state"`
	Capabilities     lifecycle.Capabilities   `json:"capabilities"`
	ValidTransitions []models.TournamentState `json:"valid_transitions"`
}

type LifecycleService interface {
	Transition(ctx context.Context, tournamentID string, to models.TournamentState, userID *string) (*models.Tournament, error)
	GetLifecycle(ctx context.Context, tournamentID string) (*LifecycleView, error)
}

type lifecycleService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	bracketRepo     repositories.BracketRepository
	matchRepo       repositories.MatchRepository
	pairingRepo     repositories.PairingRepository
	historyRepo     repositories.OpponentHistoryRepository
	bus             *events.Bus
	logger          *slog.Logger
}

func NewLifecycleService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	bracketRepo repositories.BracketRepository,
	matchRepo repositories.MatchRepository,
	pairingRepo repositories.PairingRepository,
	historyRepo repositories.OpponentHistoryRepository,
	bus *events.Bus,
	logger *slog.Logger,
) LifecycleService {
	return &lifecycleService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		bracketRepo:     bracketRepo,
		matchRepo:       matchRepo,
		pairingRepo:     pairingRepo,
		historyRepo:     historyRepo,
		bus:             bus,
		logger:          logger,
	}
}

// loadTransitionContext gathers the aggregate snapshot the guards need.
// The loads are independent, so they run in parallel.
func (s *lifecycleService) loadTransitionContext(ctx context.Context, tournament *models.Tournament) (lifecycle.TransitionContext, error) {
	tc := lifecycle.TransitionContext{
		CurrentRound: tournament.CurrentRound,
		TotalRounds:  tournament.TotalRounds,
		MinTeams:     tournament.MinTeams,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.participantRepo.CountByTournament(gctx, tournament.ID)
		if err != nil {
			return fmt.Errorf("failed to count participants: %w", err)
		}
		tc.RegisteredTeams = count
		return nil
	})

	g.Go(func() error {
		count, err := s.participantRepo.CountSeeded(gctx, tournament.ID)
		if err != nil {
			return fmt.Errorf("failed to count seeded participants: %w", err)
		}
		tc.HasSeeding = count > 0
		return nil
	})

	g.Go(func() error {
		exists, err := s.bracketRepo.Exists(gctx, tournament.ID)
		if err != nil {
			return fmt.Errorf("failed to check bracket existence: %w", err)
		}
		tc.HasBracket = exists
		return nil
	})

	g.Go(func() error {
		count, err := s.matchRepo.CountIncomplete(gctx, tournament.ID)
		if err != nil {
			return fmt.Errorf("failed to count incomplete matches: %w", err)
		}
		tc.IncompleteMatches = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return lifecycle.TransitionContext{}, err
	}
	return tc, nil
}

func (s *lifecycleService) Transition(ctx context.Context, tournamentID string, to models.TournamentState, userID *string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	tc, err := s.loadTransitionContext(ctx, tournament)
	if err != nil {
		return nil, err
	}

	decision := lifecycle.ValidateTransition(tournament.State, to, tc)
	if !decision.Allowed {
		// A structurally valid edge that a guard rejected is a different
		// failure than an edge the state machine does not have at all.
		if lifecycle.IsValidTransition(tournament.State, to) {
			return nil, fmt.Errorf("%w: %s", ErrTransitionGuardFailed, decision.Reason)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidStateTransition, decision.Reason)
	}

	from := tournament.State
	err = withTournamentTx(ctx, s.db, s.logger, tournamentID, func(tx *sql.Tx) error {
		if err := s.tournamentRepo.UpdateState(ctx, tx, tournamentID, to); err != nil {
			return err
		}
		// Revival wipes all progress so the tournament restarts clean.
		if from == models.StateCancelled && to == models.StateRegistration {
			return s.resetProgress(ctx, tx, tournamentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tournament.State = to

	if emitErr := s.bus.Emit(ctx, models.EventTournamentStateChanged, tournamentID, map[string]any{
		"from": string(from),
		"to":   string(to),
	}, userID); emitErr != nil {
		s.logger.WarnContext(ctx, "failed to record state change event",
			slog.String("tournament_id", tournamentID), slog.Any("error", emitErr))
	}

	s.logger.InfoContext(ctx, "tournament state changed",
		slog.String("tournament_id", tournamentID),
		slog.String("from", string(from)),
		slog.String("to", string(to)))

	return tournament, nil
}

// resetProgress clears matches, brackets, pairings, history and swiss
// counters inside the caller's transaction.
func (s *lifecycleService) resetProgress(ctx context.Context, tx *sql.Tx, tournamentID string) error {
	if err := s.matchRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return err
	}
	if err := s.bracketRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return err
	}
	if err := s.pairingRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return err
	}
	if err := s.historyRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
		return err
	}
	if err := s.participantRepo.ResetSwissProgress(ctx, tx, tournamentID); err != nil {
		return err
	}
	return s.tournamentRepo.ResetProgress(ctx, tx, tournamentID)
}

func (s *lifecycleService) GetLifecycle(ctx context.Context, tournamentID string) (*LifecycleView, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return &LifecycleView{
		TournamentID:     tournament.ID,
		State:            tournament.State,
		Capabilities:     lifecycle.GetCapabilities(tournament.State),
		ValidTransitions: lifecycle.ValidTransitions(tournament.State),
	}, nil
}
