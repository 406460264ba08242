package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/medibrs/tournament-engine/models"
)

var (
	ErrPairingNotFound = errors.New("pairing not found")
	ErrNoDraftPairings = errors.New("no draft pairings found for this round")
)

type PairingRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, pairings []*models.SwissPairing) error
	GetByID(ctx context.Context, id string) (*models.SwissPairing, error)
	ListDraftByRound(ctx context.Context, tournamentID string, roundNumber int) ([]models.SwissPairing, error)
	CountDraftByRound(ctx context.Context, exec SQLExecutor, tournamentID string, roundNumber int) (int, error)
	Lock(ctx context.Context, exec SQLExecutor, ids []string) error
	Override(ctx context.Context, exec SQLExecutor, pairing *models.SwissPairing) error
	DeleteUnlockedByRound(ctx context.Context, exec SQLExecutor, tournamentID string, roundNumber int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error
}

type postgresPairingRepository struct {
	db *sql.DB
}

func NewPostgresPairingRepository(db *sql.DB) PairingRepository {
	return &postgresPairingRepository{db: db}
}

func (r *postgresPairingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPairingRepository) CreateBatch(ctx context.Context, exec SQLExecutor, pairings []*models.SwissPairing) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO swiss_pairings (
			id, tournament_id, round_number, team1_id, team2_id, reason,
			status, is_locked, generation_source, version, modified_by, override_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	for _, p := range pairings {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		err := executor.QueryRowContext(ctx, query,
			p.ID, p.TournamentID, p.RoundNumber, p.Team1ID, p.Team2ID, p.Reason,
			p.Status, p.IsLocked, p.GenerationSource, p.Version, p.ModifiedBy, p.OverrideReason,
		).Scan(&p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert pairing for round %d: %w", p.RoundNumber, err)
		}
	}
	return nil
}

const pairingColumns = `
	id, tournament_id, round_number, team1_id, team2_id, reason,
	status, is_locked, generation_source, version, modified_by, override_reason, created_at`

func scanPairing(scanner interface{ Scan(...interface{}) error }) (*models.SwissPairing, error) {
	p := &models.SwissPairing{}
	err := scanner.Scan(
		&p.ID, &p.TournamentID, &p.RoundNumber, &p.Team1ID, &p.Team2ID, &p.Reason,
		&p.Status, &p.IsLocked, &p.GenerationSource, &p.Version, &p.ModifiedBy, &p.OverrideReason, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresPairingRepository) GetByID(ctx context.Context, id string) (*models.SwissPairing, error) {
	query := `SELECT` + pairingColumns + ` FROM swiss_pairings WHERE id = $1`
	p, err := scanPairing(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPairingNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPairingRepository) ListDraftByRound(ctx context.Context, tournamentID string, roundNumber int) ([]models.SwissPairing, error) {
	query := `SELECT` + pairingColumns + `
		FROM swiss_pairings
		WHERE tournament_id = $1 AND round_number = $2 AND status = ANY($3)
		ORDER BY created_at ASC`

	statuses := pq.Array([]string{string(models.PairingStatusDraft), string(models.PairingStatusModified)})
	rows, err := r.db.QueryContext(ctx, query, tournamentID, roundNumber, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pairings := make([]models.SwissPairing, 0)
	for rows.Next() {
		p, err := scanPairing(rows)
		if err != nil {
			return nil, err
		}
		pairings = append(pairings, *p)
	}
	return pairings, rows.Err()
}

// CountDraftByRound takes an executor so the check can run inside the
// same locked transaction that inserts the draft.
func (r *postgresPairingRepository) CountDraftByRound(ctx context.Context, exec SQLExecutor, tournamentID string, roundNumber int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(*) FROM swiss_pairings WHERE tournament_id = $1 AND round_number = $2 AND status = ANY($3)`

	statuses := pq.Array([]string{string(models.PairingStatusDraft), string(models.PairingStatusModified)})
	var count int
	if err := executor.QueryRowContext(ctx, query, tournamentID, roundNumber, statuses).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count draft pairings: %w", err)
	}
	return count, nil
}

func (r *postgresPairingRepository) Lock(ctx context.Context, exec SQLExecutor, ids []string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE swiss_pairings SET status = $1, is_locked = TRUE WHERE id = ANY($2)`
	_, err := executor.ExecContext(ctx, query, models.PairingStatusLocked, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to lock pairings: %w", err)
	}
	return nil
}

func (r *postgresPairingRepository) Override(ctx context.Context, exec SQLExecutor, pairing *models.SwissPairing) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE swiss_pairings
		SET team1_id = $1, team2_id = $2, status = $3, generation_source = $4,
		    version = $5, modified_by = $6, override_reason = $7
		WHERE id = $8 AND is_locked = FALSE`

	result, err := executor.ExecContext(ctx, query,
		pairing.Team1ID, pairing.Team2ID, pairing.Status, pairing.GenerationSource,
		pairing.Version, pairing.ModifiedBy, pairing.OverrideReason, pairing.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to override pairing: %w", err)
	}
	return checkAffectedRows(result, ErrPairingNotFound)
}

func (r *postgresPairingRepository) DeleteUnlockedByRound(ctx context.Context, exec SQLExecutor, tournamentID string, roundNumber int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM swiss_pairings WHERE tournament_id = $1 AND round_number = $2 AND is_locked = FALSE`
	_, err := executor.ExecContext(ctx, query, tournamentID, roundNumber)
	if err != nil {
		return fmt.Errorf("failed to delete draft pairings: %w", err)
	}
	return nil
}

func (r *postgresPairingRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM swiss_pairings WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete pairings: %w", err)
	}
	return nil
}
