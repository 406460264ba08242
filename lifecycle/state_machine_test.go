package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medibrs/tournament-engine/models"
)

func TestIsValidTransition(t *testing.T) {
	testCases := []struct {
		from    models.TournamentState
		to      models.TournamentState
		allowed bool
	}{
		{models.StateRegistration, models.StateSeeding, true},
		{models.StateRegistration, models.StateCancelled, true},
		{models.StateRegistration, models.StateInProgress, false},
		{models.StateSeeding, models.StateInProgress, true},
		{models.StateSeeding, models.StateRegistration, true},
		{models.StateInProgress, models.StatePaused, true},
		{models.StateInProgress, models.StateCompleted, true},
		{models.StateInProgress, models.StateRegistration, false},
		{models.StatePaused, models.StateInProgress, true},
		{models.StatePaused, models.StateCompleted, false},
		{models.StateCompleted, models.StateArchived, true},
		{models.StateCompleted, models.StateInProgress, false},
		{models.StateCancelled, models.StateRegistration, true}, // only revival edge
		{models.StateCancelled, models.StateArchived, true},
		{models.StateArchived, models.StateRegistration, false},
		{models.StateArchived, models.StateCancelled, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+" to "+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, IsValidTransition(tc.from, tc.to))
		})
	}
}

func TestValidTransitionsCanonicalOrder(t *testing.T) {
	assert.Equal(t,
		[]models.TournamentState{models.StateSeeding, models.StateCancelled},
		ValidTransitions(models.StateRegistration))

	assert.Equal(t,
		[]models.TournamentState{models.StateRegistration, models.StateInProgress, models.StateCancelled},
		ValidTransitions(models.StateSeeding))

	assert.Equal(t,
		[]models.TournamentState{models.StatePaused, models.StateCompleted, models.StateCancelled},
		ValidTransitions(models.StateInProgress))

	assert.Empty(t, ValidTransitions(models.StateArchived))
}

func TestValidateTransitionGuards(t *testing.T) {
	testCases := []struct {
		name    string
		from    models.TournamentState
		to      models.TournamentState
		ctx     TransitionContext
		allowed bool
	}{
		{
			name:    "seeding blocked below minimum teams",
			from:    models.StateRegistration,
			to:      models.StateSeeding,
			ctx:     TransitionContext{RegisteredTeams: 3, MinTeams: 4},
			allowed: false,
		},
		{
			name:    "seeding allowed at minimum teams",
			from:    models.StateRegistration,
			to:      models.StateSeeding,
			ctx:     TransitionContext{RegisteredTeams: 4, MinTeams: 4},
			allowed: true,
		},
		{
			name:    "start blocked without seeding",
			from:    models.StateSeeding,
			to:      models.StateInProgress,
			ctx:     TransitionContext{HasSeeding: false},
			allowed: false,
		},
		{
			name:    "start allowed with seeding",
			from:    models.StateSeeding,
			to:      models.StateInProgress,
			ctx:     TransitionContext{HasSeeding: true},
			allowed: true,
		},
		{
			name:    "completion blocked with incomplete matches",
			from:    models.StateInProgress,
			to:      models.StateCompleted,
			ctx:     TransitionContext{IncompleteMatches: 2},
			allowed: false,
		},
		{
			name:    "completion allowed once all matches are done",
			from:    models.StateInProgress,
			to:      models.StateCompleted,
			ctx:     TransitionContext{IncompleteMatches: 0},
			allowed: true,
		},
		{
			name:    "unguarded edge passes with empty context",
			from:    models.StateInProgress,
			to:      models.StatePaused,
			ctx:     TransitionContext{},
			allowed: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decision := ValidateTransition(tc.from, tc.to, tc.ctx)
			assert.Equal(t, tc.allowed, decision.Allowed)
			if !tc.allowed {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestValidateTransitionIllegalEdgeListsAlternatives(t *testing.T) {
	decision := ValidateTransition(models.StateRegistration, models.StateCompleted, TransitionContext{})

	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "Seeding")
	assert.Contains(t, decision.Reason, "Cancelled")
}

func TestGetCapabilities(t *testing.T) {
	reg := GetCapabilities(models.StateRegistration)
	assert.True(t, reg.CanRegister)
	assert.True(t, reg.IsMutable)
	assert.False(t, reg.CanAdvanceRound)

	inProgress := GetCapabilities(models.StateInProgress)
	assert.True(t, inProgress.CanPlayMatches)
	assert.True(t, inProgress.CanAdvanceRound)
	assert.True(t, inProgress.CanModifyPairings)
	assert.False(t, inProgress.CanRegister)

	completed := GetCapabilities(models.StateCompleted)
	assert.Equal(t, Capabilities{}, completed)

	archived := GetCapabilities(models.StateArchived)
	assert.True(t, archived.IsTerminal)
	assert.False(t, archived.IsMutable)
}
