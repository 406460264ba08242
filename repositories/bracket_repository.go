package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medibrs/tournament-engine/models"
)

var ErrBracketSlotNotFound = errors.New("bracket slot not found")

type BracketRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, slots []*models.BracketSlot) error
	ListByTournament(ctx context.Context, tournamentID string) ([]models.BracketSlot, error)
	Exists(ctx context.Context, tournamentID string) (bool, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateBatch inserts slots one by one inside the caller's transaction,
// assigning ids up front so the caller can link matches immediately.
func (r *postgresBracketRepository) CreateBatch(ctx context.Context, exec SQLExecutor, slots []*models.BracketSlot) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_brackets (id, tournament_id, round_number, bracket_position, is_final)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	for _, slot := range slots {
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		err := executor.QueryRowContext(ctx, query,
			slot.ID, slot.TournamentID, slot.RoundNumber, slot.BracketPosition, slot.IsFinal,
		).Scan(&slot.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert bracket slot r%dp%d: %w", slot.RoundNumber, slot.BracketPosition, err)
		}
	}
	return nil
}

func (r *postgresBracketRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.BracketSlot, error) {
	query := `
		SELECT id, tournament_id, round_number, bracket_position, is_final, created_at
		FROM tournament_brackets
		WHERE tournament_id = $1
		ORDER BY round_number ASC, bracket_position ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]models.BracketSlot, 0)
	for rows.Next() {
		var s models.BracketSlot
		if err := rows.Scan(&s.ID, &s.TournamentID, &s.RoundNumber, &s.BracketPosition, &s.IsFinal, &s.CreatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *postgresBracketRepository) Exists(ctx context.Context, tournamentID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM tournament_brackets WHERE tournament_id = $1)`
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&exists)
	return exists, err
}

func (r *postgresBracketRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM tournament_brackets WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete bracket slots: %w", err)
	}
	return nil
}
