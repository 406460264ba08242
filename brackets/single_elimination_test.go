package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibrs/tournament-engine/models"
)

func TestSeedOrder(t *testing.T) {
	testCases := []struct {
		bracketSize int
		expected    []int
	}{
		{bracketSize: 2, expected: []int{0, 1}},
		{bracketSize: 4, expected: []int{0, 3, 1, 2}},
		{bracketSize: 8, expected: []int{0, 7, 3, 4, 1, 6, 2, 5}},
		{bracketSize: 16, expected: []int{0, 15, 7, 8, 3, 12, 4, 11, 1, 14, 6, 9, 2, 13, 5, 10}},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d slots", tc.bracketSize), func(t *testing.T) {
			assert.Equal(t, tc.expected, SeedOrder(tc.bracketSize))
		})
	}
}

func TestNextBracketPosition(t *testing.T) {
	testCases := []struct {
		position int
		expected int
	}{
		{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {6, 3}, {7, 4}, {8, 4},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, NextBracketPosition(tc.position), "position %d", tc.position)
	}
}

func TestNextSlotSide(t *testing.T) {
	assert.Equal(t, SideTeam1, NextSlotSide(1))
	assert.Equal(t, SideTeam2, NextSlotSide(2))
	assert.Equal(t, SideTeam1, NextSlotSide(3))
	assert.Equal(t, SideTeam2, NextSlotSide(4))
}

func makeSeeds(n int) []TeamSeed {
	teams := make([]TeamSeed, n)
	for i := 0; i < n; i++ {
		teams[i] = TeamSeed{TeamID: fmt.Sprintf("team-%d", i+1), SeedNumber: i + 1}
	}
	return teams
}

func defaultConfig() FormatConfig {
	return FormatConfig{OpeningBestOf: 1, ProgressionBestOf: 3, EliminationBestOf: 3, FinalsBestOf: 5}
}

func TestGenerateBracketPowerOfTwo(t *testing.T) {
	engine := NewSingleEliminationEngine()
	proposal, err := engine.GenerateBracket(makeSeeds(8), defaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, proposal.TotalRounds)
	assert.Equal(t, 0, proposal.Metadata.ByeCount)
	assert.Len(t, proposal.Slots, 7)
	assert.Len(t, proposal.Matches, 7)

	// Seed 1 opens against seed 8, seed 2 against seed 7.
	first := proposal.Matches[0]
	require.NotNil(t, first.Team1ID)
	require.NotNil(t, first.Team2ID)
	assert.Equal(t, "team-1", *first.Team1ID)
	assert.Equal(t, "team-8", *first.Team2ID)

	for _, m := range proposal.Matches {
		if m.RoundNumber == 1 {
			assert.Equal(t, models.MatchStatusScheduled, m.Status)
			assert.Equal(t, 1, m.BestOf)
		}
	}

	validation := engine.Validate(proposal)
	assert.True(t, validation.Valid, "errors: %v", validation.Errors)
}

func TestGenerateBracketWithByes(t *testing.T) {
	engine := NewSingleEliminationEngine()
	proposal, err := engine.GenerateBracket(makeSeeds(6), defaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, proposal.TotalRounds)
	assert.Equal(t, 2, proposal.Metadata.ByeCount)

	byeWinners := map[string]bool{}
	for _, m := range proposal.Matches {
		if m.RoundNumber != 1 || !m.IsBye {
			continue
		}
		require.NotNil(t, m.WinnerID)
		assert.Equal(t, models.MatchStatusCompleted, m.Status)
		require.NotNil(t, m.Result)
		byeWinners[*m.WinnerID] = true
	}
	// Top two seeds draw the byes.
	assert.True(t, byeWinners["team-1"])
	assert.True(t, byeWinners["team-2"])

	// Bye winners appear in round 2 immediately.
	seeded := map[string]bool{}
	for _, m := range proposal.Matches {
		if m.RoundNumber != 2 {
			continue
		}
		for _, id := range []*string{m.Team1ID, m.Team2ID} {
			if id != nil {
				seeded[*id] = true
			}
		}
	}
	assert.True(t, seeded["team-1"])
	assert.True(t, seeded["team-2"])
}

func TestGenerateBracketFinalsBestOf(t *testing.T) {
	engine := NewSingleEliminationEngine()
	proposal, err := engine.GenerateBracket(makeSeeds(8), defaultConfig())
	require.NoError(t, err)

	for _, m := range proposal.Matches {
		switch m.RoundNumber {
		case 3:
			assert.Equal(t, 5, m.BestOf)
		case 2:
			assert.Equal(t, 3, m.BestOf)
		}
	}
}

func TestGenerateBracketErrors(t *testing.T) {
	engine := NewSingleEliminationEngine()

	_, err := engine.GenerateBracket(makeSeeds(1), defaultConfig())
	assert.ErrorIs(t, err, ErrNotEnoughTeams)

	dup := makeSeeds(4)
	dup[3].SeedNumber = 1
	_, err = engine.GenerateBracket(dup, defaultConfig())
	assert.ErrorIs(t, err, ErrDuplicateSeeds)
}

func TestComputeAdvancements(t *testing.T) {
	engine := NewSingleEliminationEngine()
	team1, team3 := "team-1", "team-3"
	win := models.ResultTeam1Win

	completed := []CompletedMatch{
		{ID: "m1", RoundNumber: 1, BracketPosition: 1, WinnerID: &team1, Result: &win, Status: models.MatchStatusCompleted},
		{ID: "m2", RoundNumber: 1, BracketPosition: 2, WinnerID: &team3, Result: &win, Status: models.MatchStatusCompleted},
	}
	slots := []Slot{
		{RoundNumber: 1, BracketPosition: 1},
		{RoundNumber: 1, BracketPosition: 2},
		{RoundNumber: 2, BracketPosition: 1, IsFinal: true},
	}

	result, err := engine.ComputeAdvancements(1, 2, completed, slots)
	require.NoError(t, err)
	assert.False(t, result.TournamentCompleted)
	require.Len(t, result.Advancements, 2)

	assert.Equal(t, Advancement{WinnerID: team1, NextRound: 2, NextBracketPosition: 1, Side: SideTeam1}, result.Advancements[0])
	assert.Equal(t, Advancement{WinnerID: team3, NextRound: 2, NextBracketPosition: 1, Side: SideTeam2}, result.Advancements[1])
}

func TestComputeAdvancementsCompletion(t *testing.T) {
	engine := NewSingleEliminationEngine()

	result, err := engine.ComputeAdvancements(2, 2, nil, nil)
	require.NoError(t, err)
	assert.True(t, result.TournamentCompleted)
	assert.Empty(t, result.Advancements)
}

func TestValidateRejectsSelfPlay(t *testing.T) {
	engine := NewSingleEliminationEngine()
	team := "team-1"
	proposal := &Proposal{
		TotalRounds: 1,
		Matches: []MatchSlot{
			{RoundNumber: 1, BracketPosition: 1, Team1ID: &team, Team2ID: &team},
		},
		Metadata: ProposalMetadata{TeamCount: 2},
	}

	validation := engine.Validate(proposal)
	assert.False(t, validation.Valid)
	assert.NotEmpty(t, validation.Errors)
}

func TestDoubleEliminationNotImplemented(t *testing.T) {
	engine := NewDoubleEliminationEngine()

	_, err := engine.GenerateBracket(makeSeeds(4), defaultConfig())
	assert.ErrorIs(t, err, ErrNotImplemented)

	_, err = engine.ComputeAdvancements(1, 2, nil, nil)
	assert.ErrorIs(t, err, ErrNotImplemented)

	validation := engine.Validate(&Proposal{})
	assert.False(t, validation.Valid)
}

func TestEngineFor(t *testing.T) {
	engine, err := EngineFor(models.FormatSingleElimination)
	require.NoError(t, err)
	assert.Equal(t, models.FormatSingleElimination, engine.Format())

	engine, err = EngineFor(models.FormatDoubleElimination)
	require.NoError(t, err)
	assert.Equal(t, models.FormatDoubleElimination, engine.Format())

	_, err = EngineFor(models.FormatSwiss)
	assert.Error(t, err)

	_, err = EngineFor(models.Format("Round_Robin"))
	assert.Error(t, err)
}
