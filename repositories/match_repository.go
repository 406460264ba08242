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
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchInvalidReference = errors.New("match references a missing bracket or tournament")
	ErrInvalidSlotSide       = errors.New("slot side must be team1_id or team2_id")
)

// MatchRecord is a match joined with its bracket slot coordinates.
type MatchRecord struct {
	models.Match
	RoundNumber     int `json:"round_number"`
	BracketPosition int `json:"bracket_position"`
}

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	ListByTournament(ctx context.Context, tournamentID string) ([]MatchRecord, error)
	SetTeamSlot(ctx context.Context, exec SQLExecutor, matchID, side, teamID string) error
	ResolveAsDraw(ctx context.Context, exec SQLExecutor, matchID string) error
	CountIncomplete(ctx context.Context, tournamentID string) (int, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_matches (
			id, tournament_id, bracket_id, match_number,
			team1_id, team2_id, winner_id, status, result, best_of, source_pairing_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	for _, m := range matches {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		err := executor.QueryRowContext(ctx, query,
			m.ID, m.TournamentID, m.BracketID, m.MatchNumber,
			m.Team1ID, m.Team2ID, m.WinnerID, m.Status, m.Result, m.BestOf, m.SourcePairingID,
		).Scan(&m.CreatedAt)
		if err != nil {
			return r.handleMatchError(err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]MatchRecord, error) {
	query := `
		SELECT m.id, m.tournament_id, m.bracket_id, m.match_number,
		       m.team1_id, m.team2_id, m.winner_id, m.status, m.result, m.best_of,
		       m.source_pairing_id, m.created_at,
		       b.round_number, b.bracket_position
		FROM tournament_matches m
		JOIN tournament_brackets b ON b.id = m.bracket_id
		WHERE m.tournament_id = $1
		ORDER BY b.round_number ASC, b.bracket_position ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]MatchRecord, 0)
	for rows.Next() {
		var m MatchRecord
		if err := rows.Scan(
			&m.ID, &m.TournamentID, &m.BracketID, &m.MatchNumber,
			&m.Team1ID, &m.Team2ID, &m.WinnerID, &m.Status, &m.Result, &m.BestOf,
			&m.SourcePairingID, &m.CreatedAt,
			&m.RoundNumber, &m.BracketPosition,
		); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// SetTeamSlot writes a winner into one side of a next-round match. The
// side is whitelisted before it reaches the query text.
func (r *postgresMatchRepository) SetTeamSlot(ctx context.Context, exec SQLExecutor, matchID, side, teamID string) error {
	if side != "team1_id" && side != "team2_id" {
		return fmt.Errorf("%w: %q", ErrInvalidSlotSide, side)
	}

	executor := r.getExecutor(exec)
	query := fmt.Sprintf(`UPDATE tournament_matches SET %s = $1 WHERE id = $2`, side)
	result, err := executor.ExecContext(ctx, query, teamID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// ResolveAsDraw completes a ghost match: both sides already hold a
// terminal status, so the match is recorded as a draw with no winner.
func (r *postgresMatchRepository) ResolveAsDraw(ctx context.Context, exec SQLExecutor, matchID string) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_matches
		SET status = $1, result = $2, winner_id = NULL
		WHERE id = $3 AND status <> $1`
	result, err := executor.ExecContext(ctx, query, models.MatchStatusCompleted, models.ResultDraw, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CountIncomplete(ctx context.Context, tournamentID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tournament_matches WHERE tournament_id = $1 AND status <> $2`
	err := r.db.QueryRowContext(ctx, query, tournamentID, models.MatchStatusCompleted).Scan(&count)
	return count, err
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM tournament_matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return fmt.Errorf("%w: %s", ErrMatchInvalidReference, pqErr.Constraint)
	}
	return err
}
