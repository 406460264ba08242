package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/medibrs/tournament-engine/models"
)

var ErrParticipantNotFound = errors.New("participant not found")

type ParticipantRepository interface {
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Participant, error)
	CountByTournament(ctx context.Context, tournamentID string) (int, error)
	CountSeeded(ctx context.Context, tournamentID string) (int, error)
	UpdateSwissScore(ctx context.Context, exec SQLExecutor, id string, swissScore int) error
	Deactivate(ctx context.Context, exec SQLExecutor, id string) error
	ResetSwissProgress(ctx context.Context, exec SQLExecutor, tournamentID string) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	query := `
		SELECT id, tournament_id, team_id, team_name, seed_number,
		       swiss_score, tiebreaker_points, buchholz_score, is_active,
		       dropped_out_at, created_at
		FROM tournament_participants
		WHERE tournament_id = $1
		ORDER BY seed_number ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(
			&p.ID, &p.TournamentID, &p.TeamID, &p.TeamName, &p.SeedNumber,
			&p.SwissScore, &p.TiebreakerPoints, &p.BuchholzScore, &p.IsActive,
			&p.DroppedOutAt, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tournament_participants WHERE tournament_id = $1`
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&count)
	return count, err
}

func (r *postgresParticipantRepository) CountSeeded(ctx context.Context, tournamentID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tournament_participants WHERE tournament_id = $1 AND seed_number > 0`
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&count)
	return count, err
}

func (r *postgresParticipantRepository) UpdateSwissScore(ctx context.Context, exec SQLExecutor, id string, swissScore int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournament_participants SET swiss_score = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, swissScore, id)
	if err != nil {
		return fmt.Errorf("failed to update swiss score: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Deactivate(ctx context.Context, exec SQLExecutor, id string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournament_participants SET is_active = FALSE, dropped_out_at = NOW() WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) ResetSwissProgress(ctx context.Context, exec SQLExecutor, tournamentID string) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_participants
		SET swiss_score = 0, tiebreaker_points = 0, buchholz_score = 0,
		    is_active = TRUE, dropped_out_at = NULL
		WHERE tournament_id = $1`
	_, err := executor.ExecContext(ctx, query, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to reset swiss progress: %w", err)
	}
	return nil
}
