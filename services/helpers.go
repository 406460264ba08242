package services

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/medibrs/tournament-engine/lifecycle"
	"github.com/medibrs/tournament-engine/models"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// validateStart checks the transition into In_Progress that bracket
// generation performs as its final step. HasSeeding and HasBracket are
// satisfied by construction: the caller just built the bracket from the
// seeded field.
func validateStart(state models.TournamentState, teamCount, minTeams int) error {
	decision := lifecycle.ValidateTransition(state, models.StateInProgress, lifecycle.TransitionContext{
		RegisteredTeams: teamCount,
		MinTeams:        minTeams,
		HasSeeding:      true,
		HasBracket:      true,
	})
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrInvalidStateTransition, decision.Reason)
	}
	return nil
}

// advisoryLockKey maps a tournament id to the bigint key space of
// pg_advisory_xact_lock. Concurrent writers on the same tournament
// serialize on this key; different tournaments do not block each other.
func advisoryLockKey(tournamentID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tournamentID))
	return int64(h.Sum64())
}

// withTournamentTx runs fn inside a transaction that holds the advisory
// lock for the given tournament. The lock is released automatically at
// commit or rollback.
func withTournamentTx(ctx context.Context, db *sql.DB, logger *slog.Logger, tournamentID string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.ErrorContext(ctx, "rollback failed",
					slog.String("tournament_id", tournamentID),
					slog.Any("rollback_error", rbErr),
					slog.Any("original_error", txErr))
			}
		}
	}()

	if _, txErr = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey(tournamentID)); txErr != nil {
		return fmt.Errorf("failed to acquire tournament lock: %w", txErr)
	}

	if txErr = fn(tx); txErr != nil {
		return txErr
	}

	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit transaction: %w", txErr)
	}
	return nil
}
