package swiss

import "github.com/medibrs/tournament-engine/models"

// DetermineBestOf picks a match length from how close either side is to
// a terminal status. Elimination risk wins over progression regardless
// of win counts.
func DetermineBestOf(roundNumber int, cfg Config, team1Losses, team2Losses, team1Wins, team2Wins int) int {
	if team1Losses >= cfg.MaxLosses-1 || team2Losses >= cfg.MaxLosses-1 {
		return cfg.EliminationBestOf
	}
	if team1Wins >= cfg.MaxWins-1 || team2Wins >= cfg.MaxWins-1 {
		return cfg.ProgressionBestOf
	}
	return cfg.OpeningBestOf
}

// DetectGhostMatches finds unplayed matches where both sides already
// hold a terminal status. Playing them cannot affect standings, so they
// must be auto-resolved as a draw with no winner.
func DetectGhostMatches(roundMatches []MatchInput, eliminationResults []EliminationResult) []string {
	statusByTeam := make(map[string]EliminationStatus, len(eliminationResults))
	for _, e := range eliminationResults {
		statusByTeam[e.TeamID] = e.Status
	}

	var ghostIDs []string
	for _, m := range roundMatches {
		if m.Status == models.MatchStatusCompleted {
			continue
		}
		t1Done := m.Team1ID == nil || statusByTeam[*m.Team1ID] != StatusActive
		t2Done := m.Team2ID == nil || statusByTeam[*m.Team2ID] != StatusActive
		if t1Done && t2Done {
			ghostIDs = append(ghostIDs, m.ID)
		}
	}
	return ghostIDs
}

// ComputeRoundAdvance composes the full per-round computation: score
// deltas for the finished round, elimination statuses over all matches,
// and (unless the tournament just finished) the next round's draft
// proposal. Completion triggers when the next round would exceed
// total_rounds or fewer than two active teams remain.
func ComputeRoundAdvance(
	participants []TeamInput,
	currentRoundMatches []MatchInput,
	allMatches []MatchInput,
	cfg Config,
) *RoundAdvanceResult {
	teamIDs := make([]string, len(participants))
	for i, p := range participants {
		teamIDs[i] = p.TeamID
	}

	scoreUpdates := ComputeScoreUpdates(currentRoundMatches, participants, cfg)

	newScores := make(map[string]int, len(scoreUpdates))
	for _, u := range scoreUpdates {
		newScores[u.TeamID] = u.NewSwissScore
	}
	updatedParticipants := make([]TeamInput, len(participants))
	for i, p := range participants {
		if score, ok := newScores[p.TeamID]; ok {
			p.SwissScore = score
		}
		updatedParticipants[i] = p
	}

	// The current round may or may not already be part of allMatches.
	known := make(map[string]bool, len(allMatches))
	for _, m := range allMatches {
		known[m.ID] = true
	}
	combined := append([]MatchInput(nil), allMatches...)
	for _, m := range currentRoundMatches {
		if !known[m.ID] {
			combined = append(combined, m)
		}
	}

	wlRecords := ComputeWLRecords(teamIDs, combined)
	eliminationResults := ComputeEliminationResults(wlRecords, cfg)

	activeRemaining := 0
	for _, e := range eliminationResults {
		if e.Status == StatusActive {
			activeRemaining++
		}
	}

	nextRound := cfg.CurrentRound + 1
	completed := nextRound > cfg.TotalRounds || activeRemaining < 2

	var nextProposal *Proposal
	if !completed {
		opponentHistory := BuildOpponentHistory(combined)
		nextCfg := cfg
		nextCfg.CurrentRound = nextRound
		nextProposal = GenerateProposal(updatedParticipants, eliminationResults, opponentHistory, nextRound, nextCfg)
	}

	return &RoundAdvanceResult{
		ScoreUpdates:        scoreUpdates,
		EliminationResults:  eliminationResults,
		NextRoundProposal:   nextProposal,
		TournamentCompleted: completed,
	}
}
