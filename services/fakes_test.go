package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/medibrs/tournament-engine/models"
	"github.com/medibrs/tournament-engine/repositories"
)

// In-memory repository fakes. Each one records the mutations it was
// asked to perform so tests can assert on them after the fact.

type fakeTournamentRepo struct {
	tournament    *models.Tournament
	stateUpdates  []models.TournamentState
	roundAdvances [][2]int
	roundsUpdates [][2]int
	advanceErr    error
	winner        *string
	resets        int
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	if f.tournament == nil || f.tournament.ID != id {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *f.tournament
	return &copied, nil
}

func (f *fakeTournamentRepo) UpdateState(ctx context.Context, exec repositories.SQLExecutor, id string, state models.TournamentState) error {
	f.stateUpdates = append(f.stateUpdates, state)
	return nil
}

func (f *fakeTournamentRepo) UpdateRounds(ctx context.Context, exec repositories.SQLExecutor, id string, currentRound, totalRounds int) error {
	f.roundsUpdates = append(f.roundsUpdates, [2]int{currentRound, totalRounds})
	return nil
}

func (f *fakeTournamentRepo) AdvanceCurrentRound(ctx context.Context, exec repositories.SQLExecutor, id string, fromRound, toRound int) error {
	if f.advanceErr != nil {
		return f.advanceErr
	}
	f.roundAdvances = append(f.roundAdvances, [2]int{fromRound, toRound})
	return nil
}

func (f *fakeTournamentRepo) SetWinner(ctx context.Context, exec repositories.SQLExecutor, id string, winnerTeamID *string) error {
	f.winner = winnerTeamID
	return nil
}

func (f *fakeTournamentRepo) ResetProgress(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	f.resets++
	return nil
}

type fakeParticipantRepo struct {
	participants []models.Participant
	registered   int
	seeded       int
	scoreUpdates map[string]int
	deactivated  []string
}

func (f *fakeParticipantRepo) ListByTournament(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	return f.participants, nil
}

func (f *fakeParticipantRepo) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	return f.registered, nil
}

func (f *fakeParticipantRepo) CountSeeded(ctx context.Context, tournamentID string) (int, error) {
	return f.seeded, nil
}

func (f *fakeParticipantRepo) UpdateSwissScore(ctx context.Context, exec repositories.SQLExecutor, id string, swissScore int) error {
	if f.scoreUpdates == nil {
		f.scoreUpdates = make(map[string]int)
	}
	f.scoreUpdates[id] = swissScore
	return nil
}

func (f *fakeParticipantRepo) Deactivate(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeParticipantRepo) ResetSwissProgress(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) error {
	return nil
}

type fakeBracketRepo struct {
	exists  bool
	slots   []models.BracketSlot
	created [][]*models.BracketSlot
	deletes int
}

func (f *fakeBracketRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, slots []*models.BracketSlot) error {
	for i, s := range slots {
		if s.ID == "" {
			s.ID = fmt.Sprintf("slot-%d-%d", len(f.created), i)
		}
	}
	f.created = append(f.created, slots)
	return nil
}

func (f *fakeBracketRepo) ListByTournament(ctx context.Context, tournamentID string) ([]models.BracketSlot, error) {
	return f.slots, nil
}

func (f *fakeBracketRepo) Exists(ctx context.Context, tournamentID string) (bool, error) {
	return f.exists, nil
}

func (f *fakeBracketRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) error {
	f.deletes++
	return nil
}

type fakeMatchRepo struct {
	records    []repositories.MatchRecord
	created    [][]*models.Match
	drawn      []string
	incomplete int
	deletes    int
}

func (f *fakeMatchRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match) error {
	f.created = append(f.created, matches)
	return nil
}

func (f *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID string) ([]repositories.MatchRecord, error) {
	return f.records, nil
}

func (f *fakeMatchRepo) SetTeamSlot(ctx context.Context, exec repositories.SQLExecutor, matchID, side, teamID string) error {
	return nil
}

func (f *fakeMatchRepo) ResolveAsDraw(ctx context.Context, exec repositories.SQLExecutor, matchID string) error {
	f.drawn = append(f.drawn, matchID)
	return nil
}

func (f *fakeMatchRepo) CountIncomplete(ctx context.Context, tournamentID string) (int, error) {
	return f.incomplete, nil
}

func (f *fakeMatchRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) error {
	f.deletes++
	return nil
}

type fakePairingRepo struct {
	drafts     map[int][]models.SwissPairing
	byID       map[string]*models.SwissPairing
	draftCount map[int]int
	created    [][]*models.SwissPairing
	locked     [][]string
	overridden []*models.SwissPairing
}

func (f *fakePairingRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, pairings []*models.SwissPairing) error {
	f.created = append(f.created, pairings)
	return nil
}

func (f *fakePairingRepo) GetByID(ctx context.Context, id string) (*models.SwissPairing, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrPairingNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePairingRepo) ListDraftByRound(ctx context.Context, tournamentID string, roundNumber int) ([]models.SwissPairing, error) {
	return f.drafts[roundNumber], nil
}

func (f *fakePairingRepo) CountDraftByRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID string, roundNumber int) (int, error) {
	return f.draftCount[roundNumber], nil
}

func (f *fakePairingRepo) Lock(ctx context.Context, exec repositories.SQLExecutor, ids []string) error {
	f.locked = append(f.locked, ids)
	return nil
}

func (f *fakePairingRepo) Override(ctx context.Context, exec repositories.SQLExecutor, pairing *models.SwissPairing) error {
	f.overridden = append(f.overridden, pairing)
	return nil
}

func (f *fakePairingRepo) DeleteUnlockedByRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID string, roundNumber int) error {
	return nil
}

func (f *fakePairingRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) error {
	return nil
}

type fakeAuditRepo struct {
	appended []*models.PairingAudit
}

func (f *fakeAuditRepo) Append(ctx context.Context, exec repositories.SQLExecutor, entry *models.PairingAudit) error {
	f.appended = append(f.appended, entry)
	return nil
}

func (f *fakeAuditRepo) ListByPairing(ctx context.Context, pairingID string) ([]models.PairingAudit, error) {
	return nil, nil
}

type fakeHistoryRepo struct {
	upserts [][]models.OpponentHistoryEntry
}

func (f *fakeHistoryRepo) UpsertBatch(ctx context.Context, exec repositories.SQLExecutor, entries []models.OpponentHistoryEntry) error {
	f.upserts = append(f.upserts, entries)
	return nil
}

func (f *fakeHistoryRepo) ListByTournament(ctx context.Context, tournamentID string) ([]models.OpponentHistoryEntry, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) error {
	return nil
}

type memoryRecorder struct {
	events []models.TournamentEvent
}

func (r *memoryRecorder) Append(ctx context.Context, event *models.TournamentEvent) error {
	r.events = append(r.events, *event)
	return nil
}

func (r *memoryRecorder) eventTypes() []models.EventType {
	types := make([]models.EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var lockQuery = regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)

// newCommitTxDB hands out a database whose only traffic is the locked
// transaction envelope; all real reads and writes go through the fakes.
func newCommitTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	return db
}

func newRollbackTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()
	return db
}
