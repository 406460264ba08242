package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/medibrs/tournament-engine/models"
)

type EventLogRepository interface {
	Append(ctx context.Context, event *models.TournamentEvent) error
	ListByTournament(ctx context.Context, tournamentID string, limit int) ([]models.TournamentEvent, error)
}

type postgresEventLogRepository struct {
	db *sql.DB
}

func NewPostgresEventLogRepository(db *sql.DB) EventLogRepository {
	return &postgresEventLogRepository{db: db}
}

func (r *postgresEventLogRepository) Append(ctx context.Context, event *models.TournamentEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	query := `
		INSERT INTO tournament_events (
			id, tournament_id, event_type, user_id, payload, category, impact, round_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err = r.db.QueryRowContext(ctx, query,
		event.ID, event.TournamentID, event.Type, event.UserID,
		payload, event.Category, event.Impact, event.RoundNumber,
	).Scan(&event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append tournament event: %w", err)
	}
	return nil
}

func (r *postgresEventLogRepository) ListByTournament(ctx context.Context, tournamentID string, limit int) ([]models.TournamentEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, tournament_id, event_type, user_id, payload, category, impact, round_number, created_at
		FROM tournament_events
		WHERE tournament_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.TournamentEvent, 0)
	for rows.Next() {
		var e models.TournamentEvent
		var payload []byte
		err := rows.Scan(
			&e.ID, &e.TournamentID, &e.Type, &e.UserID,
			&payload, &e.Category, &e.Impact, &e.RoundNumber, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
