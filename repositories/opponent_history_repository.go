package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medibrs/tournament-engine/models"
)

type OpponentHistoryRepository interface {
	UpsertBatch(ctx context.Context, exec SQLExecutor, entries []models.OpponentHistoryEntry) error
	ListByTournament(ctx context.Context, tournamentID string) ([]models.OpponentHistoryEntry, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error
}

type postgresOpponentHistoryRepository struct {
	db *sql.DB
}

func NewPostgresOpponentHistoryRepository(db *sql.DB) OpponentHistoryRepository {
	return &postgresOpponentHistoryRepository{db: db}
}

func (r *postgresOpponentHistoryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresOpponentHistoryRepository) UpsertBatch(ctx context.Context, exec SQLExecutor, entries []models.OpponentHistoryEntry) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO swiss_opponent_history (tournament_id, team_id, opponent_id, round_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tournament_id, team_id, opponent_id) DO NOTHING`

	for _, e := range entries {
		_, err := executor.ExecContext(ctx, query, e.TournamentID, e.TeamID, e.OpponentID, e.RoundNumber)
		if err != nil {
			return fmt.Errorf("failed to upsert opponent history: %w", err)
		}
	}
	return nil
}

func (r *postgresOpponentHistoryRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.OpponentHistoryEntry, error) {
	query := `
		SELECT tournament_id, team_id, opponent_id, round_number
		FROM swiss_opponent_history
		WHERE tournament_id = $1
		ORDER BY round_number ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.OpponentHistoryEntry, 0)
	for rows.Next() {
		var e models.OpponentHistoryEntry
		if err := rows.Scan(&e.TournamentID, &e.TeamID, &e.OpponentID, &e.RoundNumber); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *postgresOpponentHistoryRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM swiss_opponent_history WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete opponent history: %w", err)
	}
	return nil
}
