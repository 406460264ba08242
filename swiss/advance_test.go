package swiss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibrs/tournament-engine/models"
)

func TestDetermineBestOf(t *testing.T) {
	cfg := Config{
		MaxWins:           3,
		MaxLosses:         3,
		OpeningBestOf:     1,
		ProgressionBestOf: 3,
		EliminationBestOf: 5,
	}

	testCases := []struct {
		name               string
		t1Losses, t2Losses int
		t1Wins, t2Wins     int
		expected           int
	}{
		{name: "fresh teams get opening length", expected: 1},
		{name: "team1 on the brink of elimination", t1Losses: 2, expected: 5},
		{name: "team2 on the brink of elimination", t2Losses: 2, expected: 5},
		{name: "team1 one win from qualifying", t1Wins: 2, expected: 3},
		{name: "team2 one win from qualifying", t2Wins: 2, expected: 3},
		{name: "elimination risk beats progression", t1Wins: 2, t2Losses: 2, expected: 5},
		{name: "one short of either threshold", t1Wins: 1, t2Losses: 1, expected: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetermineBestOf(2, cfg, tc.t1Losses, tc.t2Losses, tc.t1Wins, tc.t2Wins)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDetectGhostMatches(t *testing.T) {
	a, b, c, d := "a", "b", "c", "d"
	results := []EliminationResult{
		{TeamID: "a", Status: StatusQualified},
		{TeamID: "b", Status: StatusEliminated},
		{TeamID: "c", Status: StatusActive},
		{TeamID: "d", Status: StatusEliminated},
	}

	roundMatches := []MatchInput{
		// Both sides terminal, not played: ghost.
		{ID: "ghost", Team1ID: &a, Team2ID: &b, Status: models.MatchStatusScheduled},
		// One side still active: must be played.
		{ID: "live", Team1ID: &c, Team2ID: &d, Status: models.MatchStatusScheduled},
		// Already completed matches are never ghosts.
		playedMatch("done", 3, "a", "d", models.ResultTeam1Win),
	}

	assert.Equal(t, []string{"ghost"}, DetectGhostMatches(roundMatches, results))
}

func TestComputeRoundAdvanceProducesNextRound(t *testing.T) {
	cfg := testConfig()
	cfg.CurrentRound = 1

	participants := seededTeams(4)
	round1 := []MatchInput{
		playedMatch("m1", 1, "team-1", "team-2", models.ResultTeam1Win),
		playedMatch("m2", 1, "team-3", "team-4", models.ResultTeam2Win),
	}

	result := ComputeRoundAdvance(participants, round1, nil, cfg)

	assert.False(t, result.TournamentCompleted)
	assert.Len(t, result.ScoreUpdates, 4)
	require.NotNil(t, result.NextRoundProposal)
	assert.Equal(t, 2, result.NextRoundProposal.Round)

	// Winners pool against each other, losers likewise.
	require.Len(t, result.NextRoundProposal.Pairings, 2)
	assert.Equal(t, "team-1 vs team-4", pairingKey(result.NextRoundProposal.Pairings[0]))
	assert.Equal(t, "team-2 vs team-3", pairingKey(result.NextRoundProposal.Pairings[1]))
}

func TestComputeRoundAdvanceCompletesOnFinalRound(t *testing.T) {
	cfg := testConfig()
	cfg.TotalRounds = 1
	cfg.CurrentRound = 1

	participants := seededTeams(2)
	round1 := []MatchInput{
		playedMatch("m1", 1, "team-1", "team-2", models.ResultTeam1Win),
	}

	result := ComputeRoundAdvance(participants, round1, nil, cfg)

	assert.True(t, result.TournamentCompleted)
	assert.Nil(t, result.NextRoundProposal)
}

func TestComputeRoundAdvanceCompletesWhenFewerThanTwoActive(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWins = 1
	cfg.MaxLosses = 1
	cfg.CurrentRound = 1

	participants := seededTeams(2)
	round1 := []MatchInput{
		playedMatch("m1", 1, "team-1", "team-2", models.ResultTeam1Win),
	}

	result := ComputeRoundAdvance(participants, round1, nil, cfg)

	assert.True(t, result.TournamentCompleted)
	require.Len(t, result.EliminationResults, 2)
	byTeam := make(map[string]EliminationStatus)
	for _, e := range result.EliminationResults {
		byTeam[e.TeamID] = e.Status
	}
	assert.Equal(t, StatusQualified, byTeam["team-1"])
	assert.Equal(t, StatusEliminated, byTeam["team-2"])
}

// Five teams, eliminate at two losses: an eliminated team must never
// reappear in a later proposal.
func TestComputeRoundAdvanceFiveTeamEliminationExclusion(t *testing.T) {
	cfg := testConfig()
	cfg.MaxWins = 5
	cfg.MaxLosses = 2
	cfg.TotalRounds = 5

	participants := seededTeams(5)

	round1 := []MatchInput{
		playedMatch("r1m1", 1, "team-1", "team-2", models.ResultTeam1Win),
		playedMatch("r1m2", 1, "team-3", "team-4", models.ResultTeam1Win),
		playedMatch("r1m3", 1, "team-5", "", models.ResultTeam1Win), // bye
	}
	cfg.CurrentRound = 1
	result := ComputeRoundAdvance(participants, round1, nil, cfg)
	require.False(t, result.TournamentCompleted)

	// Apply the score updates the way the service layer would.
	scores := make(map[string]int)
	for _, u := range result.ScoreUpdates {
		scores[u.TeamID] = u.NewSwissScore
	}
	for i := range participants {
		if s, ok := scores[participants[i].TeamID]; ok {
			participants[i].SwissScore = s
		}
	}

	// Round 2: team-2 picks up its second loss.
	round2 := []MatchInput{
		playedMatch("r2m1", 2, "team-1", "team-3", models.ResultTeam1Win),
		playedMatch("r2m2", 2, "team-2", "team-4", models.ResultTeam2Win),
		playedMatch("r2m3", 2, "team-5", "", models.ResultTeam1Win), // bye
	}
	cfg.CurrentRound = 2
	result = ComputeRoundAdvance(participants, round2, round1, cfg)
	require.False(t, result.TournamentCompleted)

	eliminated := make(map[string]bool)
	for _, e := range result.EliminationResults {
		if e.Status == StatusEliminated {
			eliminated[e.TeamID] = true
		}
	}
	assert.True(t, eliminated["team-2"])
	assert.Len(t, eliminated, 1)

	require.NotNil(t, result.NextRoundProposal)
	for _, p := range result.NextRoundProposal.Pairings {
		assert.False(t, eliminated[p.Team1ID], "eliminated team %s was paired", p.Team1ID)
		if p.Team2ID != nil {
			assert.False(t, eliminated[*p.Team2ID], "eliminated team %s was paired", *p.Team2ID)
		}
	}
}
