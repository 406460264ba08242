package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/medibrs/tournament-engine/models"
)

type PairingAuditRepository interface {
	Append(ctx context.Context, exec SQLExecutor, entry *models.PairingAudit) error
	ListByPairing(ctx context.Context, pairingID string) ([]models.PairingAudit, error)
}

type postgresPairingAuditRepository struct {
	db *sql.DB
}

func NewPostgresPairingAuditRepository(db *sql.DB) PairingAuditRepository {
	return &postgresPairingAuditRepository{db: db}
}

func (r *postgresPairingAuditRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPairingAuditRepository) Append(ctx context.Context, exec SQLExecutor, entry *models.PairingAudit) error {
	executor := r.getExecutor(exec)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	query := `
		INSERT INTO swiss_pairing_audit (
			id, pairing_id, changed_by,
			old_team1_id, old_team2_id, new_team1_id, new_team2_id, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := executor.QueryRowContext(ctx, query,
		entry.ID, entry.PairingID, entry.ChangedBy,
		entry.OldTeam1, entry.OldTeam2, entry.NewTeam1, entry.NewTeam2, entry.Reason,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append pairing audit entry: %w", err)
	}
	return nil
}

func (r *postgresPairingAuditRepository) ListByPairing(ctx context.Context, pairingID string) ([]models.PairingAudit, error) {
	query := `
		SELECT id, pairing_id, changed_by,
		       old_team1_id, old_team2_id, new_team1_id, new_team2_id, reason, created_at
		FROM swiss_pairing_audit
		WHERE pairing_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, pairingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.PairingAudit, 0)
	for rows.Next() {
		var e models.PairingAudit
		err := rows.Scan(
			&e.ID, &e.PairingID, &e.ChangedBy,
			&e.OldTeam1, &e.OldTeam2, &e.NewTeam1, &e.NewTeam2, &e.Reason, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
