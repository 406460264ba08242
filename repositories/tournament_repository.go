package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/medibrs/tournament-engine/models"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrRoundConflict      = errors.New("tournament round was advanced concurrently")
)

type TournamentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	UpdateState(ctx context.Context, exec SQLExecutor, id string, state models.TournamentState) error
	UpdateRounds(ctx context.Context, exec SQLExecutor, id string, currentRound, totalRounds int) error
	AdvanceCurrentRound(ctx context.Context, exec SQLExecutor, id string, fromRound, toRound int) error
	SetWinner(ctx context.Context, exec SQLExecutor, id string, winnerTeamID *string) error
	ResetProgress(ctx context.Context, exec SQLExecutor, id string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, format, state, current_round, total_rounds, swiss_rounds, min_teams,
	points_per_win, points_per_draw, points_per_loss, max_wins, max_losses,
	opening_best_of, progression_best_of, elimination_best_of, finals_best_of,
	winner_team_id, created_at`

func scanTournament(row *sql.Row) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Format, &t.State, &t.CurrentRound, &t.TotalRounds, &t.SwissRounds, &t.MinTeams,
		&t.PointsPerWin, &t.PointsPerDraw, &t.PointsPerLoss, &t.MaxWins, &t.MaxLosses,
		&t.OpeningBestOf, &t.ProgressionBestOf, &t.EliminationBestOf, &t.FinalsBestOf,
		&t.WinnerTeamID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return scanTournament(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) UpdateState(ctx context.Context, exec SQLExecutor, id string, state models.TournamentState) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET state = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, state, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament state: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateRounds(ctx context.Context, exec SQLExecutor, id string, currentRound, totalRounds int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET current_round = $1, total_rounds = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, currentRound, totalRounds, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament rounds: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// AdvanceCurrentRound is a compare-and-swap: the update only applies if
// current_round still holds fromRound, so a writer racing a concurrent
// advance fails with ErrRoundConflict instead of re-applying it.
func (r *postgresTournamentRepository) AdvanceCurrentRound(ctx context.Context, exec SQLExecutor, id string, fromRound, toRound int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET current_round = $1 WHERE id = $2 AND current_round = $3`
	result, err := executor.ExecContext(ctx, query, toRound, id, fromRound)
	if err != nil {
		return fmt.Errorf("failed to advance tournament current round: %w", err)
	}
	return checkAffectedRows(result, ErrRoundConflict)
}

func (r *postgresTournamentRepository) SetWinner(ctx context.Context, exec SQLExecutor, id string, winnerTeamID *string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET winner_team_id = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, winnerTeamID, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament winner: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ResetProgress(ctx context.Context, exec SQLExecutor, id string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET current_round = 0, winner_team_id = NULL WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to reset tournament progress: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
