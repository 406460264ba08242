package swiss

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibrs/tournament-engine/models"
)

func seededTeams(n int) []TeamInput {
	teams := make([]TeamInput, n)
	for i := 0; i < n; i++ {
		teams[i] = TeamInput{
			TeamID:     fmt.Sprintf("team-%d", i+1),
			SeedNumber: i + 1,
			IsActive:   true,
		}
	}
	return teams
}

func activeResults(teams []TeamInput) []EliminationResult {
	results := make([]EliminationResult, len(teams))
	for i, team := range teams {
		results[i] = EliminationResult{TeamID: team.TeamID, Status: StatusActive}
	}
	return results
}

func pairingKey(p ProposedPairing) string {
	if p.Team2ID == nil {
		return p.Team1ID + " bye"
	}
	return p.Team1ID + " vs " + *p.Team2ID
}

func TestGenerateRound1ProposalEvenField(t *testing.T) {
	proposal := GenerateRound1Proposal(seededTeams(8), testConfig())

	require.Len(t, proposal.Pairings, 4)
	assert.Equal(t, 1, proposal.Round)
	assert.Equal(t, models.GenerationAuto, proposal.Metadata.GenerationSource)
	assert.Equal(t, 8, proposal.Metadata.TeamsPaired)
	assert.Equal(t, 0, proposal.Metadata.Byes)

	expected := []string{
		"team-1 vs team-2",
		"team-3 vs team-4",
		"team-5 vs team-6",
		"team-7 vs team-8",
	}
	for i, p := range proposal.Pairings {
		assert.Equal(t, expected[i], pairingKey(p))
	}
}

func TestGenerateRound1ProposalOddFieldGivesBye(t *testing.T) {
	proposal := GenerateRound1Proposal(seededTeams(7), testConfig())

	require.Len(t, proposal.Pairings, 4)
	last := proposal.Pairings[3]
	assert.True(t, last.IsBye)
	assert.Nil(t, last.Team2ID)
	assert.Equal(t, "team-7", last.Team1ID)
	assert.Equal(t, 1, proposal.Metadata.Byes)
}

func TestGenerateProposalPoolsByScore(t *testing.T) {
	teams := seededTeams(4)
	teams[0].SwissScore = 3
	teams[1].SwissScore = 3
	teams[2].SwissScore = 0
	teams[3].SwissScore = 0

	proposal := GenerateProposal(teams, activeResults(teams), nil, 2, testConfig())

	require.Len(t, proposal.Pairings, 2)
	assert.Equal(t, "team-1 vs team-2", pairingKey(proposal.Pairings[0]))
	assert.Equal(t, "team-3 vs team-4", pairingKey(proposal.Pairings[1]))
	assert.Equal(t, 0, proposal.Metadata.RematchesForced)
}

func TestGenerateProposalAvoidsRematch(t *testing.T) {
	teams := seededTeams(4)
	for i := range teams {
		teams[i].SwissScore = 3
	}
	history := map[string]map[string]bool{
		"team-1": {"team-2": true},
		"team-2": {"team-1": true},
	}

	proposal := GenerateProposal(teams, activeResults(teams), history, 2, testConfig())

	require.Len(t, proposal.Pairings, 2)
	assert.Equal(t, "team-1 vs team-3", pairingKey(proposal.Pairings[0]))
	assert.Equal(t, "team-2 vs team-4", pairingKey(proposal.Pairings[1]))
	assert.Equal(t, 0, proposal.Metadata.RematchesForced)
}

func TestGenerateProposalForcesRematchWhenExhausted(t *testing.T) {
	// Both teams in the only pool have already played each other.
	teams := seededTeams(2)
	history := map[string]map[string]bool{
		"team-1": {"team-2": true},
		"team-2": {"team-1": true},
	}

	proposal := GenerateProposal(teams, activeResults(teams), history, 3, testConfig())

	require.Len(t, proposal.Pairings, 1)
	assert.Equal(t, "team-1 vs team-2", pairingKey(proposal.Pairings[0]))
	assert.Equal(t, 1, proposal.Metadata.RematchesForced)
}

func TestGenerateProposalCarryOverIntoLowerPool(t *testing.T) {
	teams := seededTeams(4)
	teams[0].SwissScore = 3
	teams[1].SwissScore = 3
	teams[2].SwissScore = 3
	teams[3].SwissScore = 0

	proposal := GenerateProposal(teams, activeResults(teams), nil, 2, testConfig())

	require.Len(t, proposal.Pairings, 2)
	assert.Equal(t, "team-1 vs team-2", pairingKey(proposal.Pairings[0]))
	// The top pool leftover drops into the zero-score pool.
	assert.Equal(t, "team-3 vs team-4", pairingKey(proposal.Pairings[1]))
}

func TestGenerateProposalExcludesFinishedTeams(t *testing.T) {
	teams := seededTeams(4)
	results := []EliminationResult{
		{TeamID: "team-1", Status: StatusQualified},
		{TeamID: "team-2", Status: StatusActive},
		{TeamID: "team-3", Status: StatusEliminated},
		{TeamID: "team-4", Status: StatusActive},
	}

	proposal := GenerateProposal(teams, results, nil, 3, testConfig())

	require.Len(t, proposal.Pairings, 1)
	assert.Equal(t, "team-2 vs team-4", pairingKey(proposal.Pairings[0]))
}

func TestGenerateProposalOddActiveCountGivesBye(t *testing.T) {
	teams := seededTeams(5)
	for i := range teams {
		teams[i].SwissScore = i // every team in its own pool
	}

	proposal := GenerateProposal(teams, activeResults(teams), nil, 2, testConfig())

	byes := 0
	seen := make(map[string]bool)
	for _, p := range proposal.Pairings {
		if p.IsBye {
			byes++
		}
		seen[p.Team1ID] = true
		if p.Team2ID != nil {
			seen[*p.Team2ID] = true
		}
	}
	assert.Equal(t, 1, byes)
	assert.Len(t, seen, 5)
}

func TestGenerateProposalTiebreakerOrderWithinPool(t *testing.T) {
	teams := seededTeams(4)
	for i := range teams {
		teams[i].SwissScore = 3
	}
	teams[3].TiebreakerPoints = 10 // team-4 sorts first in the pool

	proposal := GenerateProposal(teams, activeResults(teams), nil, 2, testConfig())

	require.Len(t, proposal.Pairings, 2)
	assert.Equal(t, "team-4 vs team-1", pairingKey(proposal.Pairings[0]))
	assert.Equal(t, "team-2 vs team-3", pairingKey(proposal.Pairings[1]))
}

func TestValidatePairings(t *testing.T) {
	b, c := "b", "c"

	testCases := []struct {
		name          string
		pairings      []ProposedPairing
		activeTeamIDs []string
		wantValid     bool
		wantErrors    int
	}{
		{
			name: "valid pairings with bye",
			pairings: []ProposedPairing{
				{Team1ID: "a", Team2ID: &b},
				{Team1ID: "c", IsBye: true},
			},
			activeTeamIDs: []string{"a", "b", "c"},
			wantValid:     true,
		},
		{
			name: "team paired against itself",
			pairings: []ProposedPairing{
				{Team1ID: "b", Team2ID: &b},
			},
			activeTeamIDs: []string{"b"},
			wantValid:     false,
			wantErrors:    2, // self-pair plus duplicate appearance
		},
		{
			name: "team in multiple pairings",
			pairings: []ProposedPairing{
				{Team1ID: "a", Team2ID: &b},
				{Team1ID: "a", Team2ID: &c},
			},
			activeTeamIDs: []string{"a", "b", "c"},
			wantValid:     false,
			wantErrors:    1,
		},
		{
			name: "active team missing",
			pairings: []ProposedPairing{
				{Team1ID: "a", Team2ID: &b},
			},
			activeTeamIDs: []string{"a", "b", "c"},
			wantValid:     false,
			wantErrors:    1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidatePairings(tc.pairings, tc.activeTeamIDs)
			assert.Equal(t, tc.wantValid, result.Valid)
			assert.Len(t, result.Errors, tc.wantErrors)
		})
	}
}
