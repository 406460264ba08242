package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibrs/tournament-engine/events"
	"github.com/medibrs/tournament-engine/models"
	"github.com/medibrs/tournament-engine/repositories"
)

func swissTournament(state models.TournamentState, currentRound int) *models.Tournament {
	return &models.Tournament{
		ID:                "t1",
		Name:              "autumn swiss",
		Format:            models.FormatSwiss,
		State:             state,
		CurrentRound:      currentRound,
		SwissRounds:       3,
		MinTeams:          2,
		PointsPerWin:      3,
		PointsPerDraw:     1,
		MaxWins:           3,
		MaxLosses:         3,
		OpeningBestOf:     1,
		ProgressionBestOf: 3,
		EliminationBestOf: 3,
	}
}

func swissParticipants(n int) []models.Participant {
	participants := make([]models.Participant, n)
	for i := range participants {
		participants[i] = models.Participant{
			ID:           fmt.Sprintf("p%d", i+1),
			TournamentID: "t1",
			TeamID:       fmt.Sprintf("team-%d", i+1),
			SeedNumber:   i + 1,
			IsActive:     true,
		}
	}
	return participants
}

func TestApprovePairingsOpeningRoundStartsTournament(t *testing.T) {
	tournament := swissTournament(models.StateSeeding, 0)
	team2 := "team-2"

	tournamentRepo := &fakeTournamentRepo{tournament: tournament}
	participantRepo := &fakeParticipantRepo{participants: swissParticipants(2)}
	pairingRepo := &fakePairingRepo{
		drafts: map[int][]models.SwissPairing{
			1: {{
				ID: "pr1", TournamentID: "t1", RoundNumber: 1,
				Team1ID: "team-1", Team2ID: &team2,
				Status: models.PairingStatusDraft,
			}},
		},
		draftCount: map[int]int{},
	}
	bracketRepo := &fakeBracketRepo{}
	matchRepo := &fakeMatchRepo{}
	recorder := &memoryRecorder{}

	svc := NewSwissService(
		newCommitTxDB(t), tournamentRepo, participantRepo, bracketRepo, matchRepo,
		pairingRepo, &fakeAuditRepo{}, &fakeHistoryRepo{},
		events.NewBus(recorder, testLogger()), testLogger(),
	)

	matches, err := svc.ApprovePairings(context.Background(), "t1", nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// Approving the opening round must leave the tournament playable:
	// round 1 is current and the state machine has moved to In_Progress.
	assert.Equal(t, []models.TournamentState{models.StateInProgress}, tournamentRepo.stateUpdates)
	assert.Equal(t, [][2]int{{0, 1}}, tournamentRepo.roundAdvances)
	assert.Contains(t, recorder.eventTypes(), models.EventTournamentStateChanged)
	assert.Contains(t, recorder.eventTypes(), models.EventSwissPairingsApproved)
}

func TestApprovePairingsLaterRoundKeepsState(t *testing.T) {
	tournament := swissTournament(models.StateInProgress, 1)
	team2 := "team-2"
	team4 := "team-4"

	tournamentRepo := &fakeTournamentRepo{tournament: tournament}
	participantRepo := &fakeParticipantRepo{participants: swissParticipants(4)}
	pairingRepo := &fakePairingRepo{
		drafts: map[int][]models.SwissPairing{
			2: {
				{ID: "pr1", TournamentID: "t1", RoundNumber: 2, Team1ID: "team-1", Team2ID: &team2, Status: models.PairingStatusDraft},
				{ID: "pr2", TournamentID: "t1", RoundNumber: 2, Team1ID: "team-3", Team2ID: &team4, Status: models.PairingStatusDraft},
			},
		},
		draftCount: map[int]int{},
	}

	svc := NewSwissService(
		newCommitTxDB(t), tournamentRepo, participantRepo, &fakeBracketRepo{}, &fakeMatchRepo{},
		pairingRepo, &fakeAuditRepo{}, &fakeHistoryRepo{},
		events.NewBus(&memoryRecorder{}, testLogger()), testLogger(),
	)

	matches, err := svc.ApprovePairings(context.Background(), "t1", nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Empty(t, tournamentRepo.stateUpdates)
	assert.Equal(t, [][2]int{{1, 2}}, tournamentRepo.roundAdvances)
}

func TestSwissPairingOperationsRespectCapabilities(t *testing.T) {
	team2 := "team-2"

	testCases := []struct {
		name  string
		state models.TournamentState
		call  func(svc SwissService) error
	}{
		{
			name:  "draft creation needs generation capability",
			state: models.StateRegistration,
			call: func(svc SwissService) error {
				_, err := svc.CreateDraft(context.Background(), "t1", nil)
				return err
			},
		},
		{
			name:  "draft creation after completion",
			state: models.StateCompleted,
			call: func(svc SwissService) error {
				_, err := svc.CreateDraft(context.Background(), "t1", nil)
				return err
			},
		},
		{
			name:  "approval needs generation capability",
			state: models.StateRegistration,
			call: func(svc SwissService) error {
				_, err := svc.ApprovePairings(context.Background(), "t1", nil)
				return err
			},
		},
		{
			name:  "regeneration after completion",
			state: models.StateCompleted,
			call: func(svc SwissService) error {
				_, err := svc.RegenerateDraft(context.Background(), "t1", nil)
				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tournament := swissTournament(tc.state, 0)
			tournamentRepo := &fakeTournamentRepo{tournament: tournament}
			pairingRepo := &fakePairingRepo{
				drafts: map[int][]models.SwissPairing{
					1: {{ID: "pr1", TournamentID: "t1", RoundNumber: 1, Team1ID: "team-1", Team2ID: &team2, Status: models.PairingStatusDraft}},
				},
				draftCount: map[int]int{},
			}

			svc := NewSwissService(
				nil, tournamentRepo, &fakeParticipantRepo{participants: swissParticipants(2)},
				&fakeBracketRepo{}, &fakeMatchRepo{}, pairingRepo,
				&fakeAuditRepo{}, &fakeHistoryRepo{},
				events.NewBus(&memoryRecorder{}, testLogger()), testLogger(),
			)

			err := tc.call(svc)
			assert.ErrorIs(t, err, ErrInvalidStateTransition)
			assert.Empty(t, pairingRepo.created)
			assert.Empty(t, tournamentRepo.stateUpdates)
		})
	}
}

func TestModifyPairingRejectsFinishedTournament(t *testing.T) {
	team2 := "team-2"
	team3 := "team-3"
	pairing := &models.SwissPairing{
		ID: "pr1", TournamentID: "t1", RoundNumber: 2,
		Team1ID: "team-1", Team2ID: &team2,
		Status: models.PairingStatusDraft,
	}

	tournamentRepo := &fakeTournamentRepo{tournament: swissTournament(models.StateCompleted, 2)}
	pairingRepo := &fakePairingRepo{byID: map[string]*models.SwissPairing{"pr1": pairing}}
	auditRepo := &fakeAuditRepo{}

	svc := NewSwissService(
		nil, tournamentRepo, &fakeParticipantRepo{}, &fakeBracketRepo{}, &fakeMatchRepo{},
		pairingRepo, auditRepo, &fakeHistoryRepo{},
		events.NewBus(&memoryRecorder{}, testLogger()), testLogger(),
	)

	_, err := svc.ModifyPairing(context.Background(), ModifyPairingInput{
		PairingID:  "pr1",
		NewTeam1ID: "team-1",
		NewTeam2ID: &team3,
		ModifiedBy: "admin-1",
		Reason:     "roster change",
	})
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Empty(t, pairingRepo.overridden)
	assert.Empty(t, auditRepo.appended)
}

func TestAdvanceRoundRejectsConcurrentlyCreatedDraft(t *testing.T) {
	tournament := swissTournament(models.StateInProgress, 1)
	team1, team2, team3, team4 := "team-1", "team-2", "team-3", "team-4"
	win := models.ResultTeam1Win

	matchRepo := &fakeMatchRepo{records: []repositories.MatchRecord{
		{
			Match: models.Match{
				ID: "m1", TournamentID: "t1",
				Team1ID: &team1, Team2ID: &team2, WinnerID: &team1,
				Status: models.MatchStatusCompleted, Result: &win, BestOf: 1,
			},
			RoundNumber: 1, BracketPosition: 1,
		},
		{
			Match: models.Match{
				ID: "m2", TournamentID: "t1",
				Team1ID: &team3, Team2ID: &team4, WinnerID: &team3,
				Status: models.MatchStatusCompleted, Result: &win, BestOf: 1,
			},
			RoundNumber: 1, BracketPosition: 2,
		},
	}}
	// Another writer already inserted the round 2 draft between this
	// call's snapshot read and its transaction.
	pairingRepo := &fakePairingRepo{
		drafts:     map[int][]models.SwissPairing{},
		draftCount: map[int]int{2: 1},
	}
	tournamentRepo := &fakeTournamentRepo{tournament: tournament}

	svc := NewSwissService(
		newRollbackTxDB(t), tournamentRepo, &fakeParticipantRepo{participants: swissParticipants(4)},
		&fakeBracketRepo{}, matchRepo, pairingRepo,
		&fakeAuditRepo{}, &fakeHistoryRepo{},
		events.NewBus(&memoryRecorder{}, testLogger()), testLogger(),
	)

	_, err := svc.AdvanceRound(context.Background(), "t1", nil)
	assert.ErrorIs(t, err, ErrBracketAlreadyExists)
	assert.Empty(t, pairingRepo.created)
}
