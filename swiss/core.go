// Package swiss holds the pure Swiss pairing core. Nothing in this
// package touches storage; the service layer feeds it loaded state and
// persists what it returns.
package swiss

import (
	"sort"
	"time"

	"github.com/medibrs/tournament-engine/models"
)

type TeamInput struct {
	TeamID           string `json:"team_id"`
	SeedNumber       int    `json:"seed_number"`
	SwissScore       int    `json:"swiss_score"`
	TiebreakerPoints int    `json:"tiebreaker_points"`
	BuchholzScore    int    `json:"buchholz_score"`
	IsActive         bool   `json:"is_active"`
}

type MatchInput struct {
	ID          string
	Team1ID     *string
	Team2ID     *string
	WinnerID    *string
	Result      *models.MatchResult
	Status      models.MatchStatus
	RoundNumber int
}

type Config struct {
	PointsPerWin  int
	PointsPerDraw int
	PointsPerLoss int
	MaxWins       int
	MaxLosses     int
	TotalRounds   int
	CurrentRound  int

	OpeningBestOf     int
	ProgressionBestOf int
	EliminationBestOf int
}

type WLRecord struct {
	TeamID string `json:"team_id"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
}

type ScoreUpdate struct {
	TeamID        string  `json:"team_id"`
	PointsEarned  int     `json:"points_earned"`
	NewSwissScore int     `json:"new_swiss_score"`
	OpponentID    *string `json:"opponent_id"`
}

type EliminationStatus string

const (
	StatusQualified  EliminationStatus = "qualified"
	StatusEliminated EliminationStatus = "eliminated"
	StatusActive     EliminationStatus = "active"
)

type EliminationResult struct {
	TeamID string            `json:"team_id"`
	Status EliminationStatus `json:"status"`
	Wins   int               `json:"wins"`
	Losses int               `json:"losses"`
}

type ProposedPairing struct {
	Team1ID string  `json:"team1_id"`
	Team2ID *string `json:"team2_id"` // nil = bye
	IsBye   bool    `json:"is_bye"`
	Reason  string  `json:"reason"`
}

type ProposalMetadata struct {
	GeneratedAt      time.Time               `json:"generated_at"`
	GenerationSource models.GenerationSource `json:"generation_source"`
	TeamsPaired      int                     `json:"teams_paired"`
	Byes             int                     `json:"byes"`
	RematchesForced  int                     `json:"rematches_forced"`
}

type Proposal struct {
	Round    int               `json:"round"`
	Pairings []ProposedPairing `json:"pairings"`
	Metadata ProposalMetadata  `json:"metadata"`
}

type RoundAdvanceResult struct {
	ScoreUpdates        []ScoreUpdate       `json:"score_updates"`
	EliminationResults  []EliminationResult `json:"elimination_results"`
	NextRoundProposal   *Proposal           `json:"next_round_proposal"` // nil if tournament is over
	TournamentCompleted bool                `json:"tournament_completed"`
}

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ComputeWLRecords reduces completed matches with a terminal result into
// per-team win/loss/draw counts. The result does not depend on match
// order.
func ComputeWLRecords(teamIDs []string, allMatches []MatchInput) map[string]*WLRecord {
	records := make(map[string]*WLRecord, len(teamIDs))
	for _, id := range teamIDs {
		records[id] = &WLRecord{TeamID: id}
	}

	for _, m := range allMatches {
		if m.Status != models.MatchStatusCompleted || m.Result == nil {
			continue
		}
		switch *m.Result {
		case models.ResultTeam1Win:
			if m.Team1ID != nil {
				if rec, ok := records[*m.Team1ID]; ok {
					rec.Wins++
				}
			}
			if m.Team2ID != nil {
				if rec, ok := records[*m.Team2ID]; ok {
					rec.Losses++
				}
			}
		case models.ResultTeam2Win:
			if m.Team2ID != nil {
				if rec, ok := records[*m.Team2ID]; ok {
					rec.Wins++
				}
			}
			if m.Team1ID != nil {
				if rec, ok := records[*m.Team1ID]; ok {
					rec.Losses++
				}
			}
		case models.ResultDraw:
			if m.Team1ID != nil {
				if rec, ok := records[*m.Team1ID]; ok {
					rec.Draws++
				}
			}
			if m.Team2ID != nil {
				if rec, ok := records[*m.Team2ID]; ok {
					rec.Draws++
				}
			}
		}
	}

	return records
}

// ComputeScoreUpdates awards points per side for each completed match in
// a round and returns the per-team delta plus running total.
func ComputeScoreUpdates(roundMatches []MatchInput, participants []TeamInput, cfg Config) []ScoreUpdate {
	updates := make([]ScoreUpdate, 0, len(roundMatches)*2)
	scores := make(map[string]int, len(participants))
	for _, p := range participants {
		scores[p.TeamID] = p.SwissScore
	}

	pointsFor := func(side, result models.MatchResult) int {
		if result == side {
			return cfg.PointsPerWin
		}
		if result == models.ResultDraw {
			return cfg.PointsPerDraw
		}
		return cfg.PointsPerLoss
	}

	for _, m := range roundMatches {
		if m.Status != models.MatchStatusCompleted || m.Result == nil {
			continue
		}

		if m.Team1ID != nil {
			pts := pointsFor(models.ResultTeam1Win, *m.Result)
			newScore := scores[*m.Team1ID] + pts
			scores[*m.Team1ID] = newScore
			updates = append(updates, ScoreUpdate{
				TeamID:        *m.Team1ID,
				PointsEarned:  pts,
				NewSwissScore: newScore,
				OpponentID:    m.Team2ID,
			})
		}

		if m.Team2ID != nil {
			pts := pointsFor(models.ResultTeam2Win, *m.Result)
			newScore := scores[*m.Team2ID] + pts
			scores[*m.Team2ID] = newScore
			updates = append(updates, ScoreUpdate{
				TeamID:        *m.Team2ID,
				PointsEarned:  pts,
				NewSwissScore: newScore,
				OpponentID:    m.Team1ID,
			})
		}
	}

	return updates
}

// ComputeEliminationResults maps every W/L record to a
// qualified/eliminated/active status. Qualification is checked before
// elimination; a team crossing both thresholds in the same round counts
// as qualified. This ordering is kept from the reference behavior on
// purpose, do not reorder.
func ComputeEliminationResults(wlRecords map[string]*WLRecord, cfg Config) []EliminationResult {
	ids := make([]string, 0, len(wlRecords))
	for id := range wlRecords {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]EliminationResult, 0, len(wlRecords))
	for _, id := range ids {
		rec := wlRecords[id]
		status := StatusActive
		if rec.Wins >= cfg.MaxWins {
			status = StatusQualified
		} else if rec.Losses >= cfg.MaxLosses {
			status = StatusEliminated
		}
		results = append(results, EliminationResult{
			TeamID: rec.TeamID,
			Status: status,
			Wins:   rec.Wins,
			Losses: rec.Losses,
		})
	}
	return results
}

// BuildOpponentHistory returns the symmetric previously-played relation
// from completed matches only.
func BuildOpponentHistory(allMatches []MatchInput) map[string]map[string]bool {
	history := make(map[string]map[string]bool)

	add := func(a, b string) {
		if history[a] == nil {
			history[a] = make(map[string]bool)
		}
		history[a][b] = true
	}

	for _, m := range allMatches {
		if m.Status != models.MatchStatusCompleted {
			continue
		}
		if m.Team1ID == nil || m.Team2ID == nil {
			continue
		}
		add(*m.Team1ID, *m.Team2ID)
		add(*m.Team2ID, *m.Team1ID)
	}

	return history
}
