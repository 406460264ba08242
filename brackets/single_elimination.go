package brackets

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/medibrs/tournament-engine/models"
)

var (
	ErrNotEnoughTeams = errors.New("not enough teams to generate a bracket (minimum 2)")
	ErrDuplicateSeeds = errors.New("seed numbers must be unique")
)

type SingleEliminationEngine struct{}

func NewSingleEliminationEngine() *SingleEliminationEngine {
	return &SingleEliminationEngine{}
}

func (e *SingleEliminationEngine) Format() models.Format {
	return models.FormatSingleElimination
}

// SeedOrder produces the classic 1-vs-last seed ordering for a bracket
// of the given power-of-two size. Size 2 yields [0,1]; for size S the
// order of S/2 is expanded by emitting each seed s followed by S-1-s.
// For 8: [0,7, 3,4, 1,6, 2,5].
func SeedOrder(bracketSize int) []int {
	if bracketSize <= 2 {
		return []int{0, 1}
	}

	sub := SeedOrder(bracketSize / 2)
	order := make([]int, 0, bracketSize)
	for _, seed := range sub {
		order = append(order, seed, bracketSize-1-seed)
	}
	return order
}

// NextBracketPosition maps a slot position onto the child slot position
// in the following round.
func NextBracketPosition(bracketPosition int) int {
	return (bracketPosition + 1) / 2
}

// NextSlotSide picks the child slot side: odd positions feed team1, even
// positions feed team2.
func NextSlotSide(bracketPosition int) SlotSide {
	if bracketPosition%2 == 1 {
		return SideTeam1
	}
	return SideTeam2
}

func (e *SingleEliminationEngine) GenerateBracket(teams []TeamSeed, config FormatConfig) (*Proposal, error) {
	teamCount := len(teams)
	if teamCount < 2 {
		return nil, ErrNotEnoughTeams
	}

	seedsSeen := make(map[int]bool, teamCount)
	for _, t := range teams {
		if seedsSeen[t.SeedNumber] {
			return nil, fmt.Errorf("%w: seed %d assigned twice", ErrDuplicateSeeds, t.SeedNumber)
		}
		seedsSeen[t.SeedNumber] = true
	}

	totalRounds := int(math.Ceil(math.Log2(float64(teamCount))))
	bracketSize := 1 << uint(totalRounds)
	byeCount := bracketSize - teamCount
	seedOrder := SeedOrder(bracketSize)

	sorted := append([]TeamSeed(nil), teams...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SeedNumber < sorted[j].SeedNumber
	})

	var slots []Slot
	for round := 1; round <= totalRounds; round++ {
		matchesInRound := bracketSize >> uint(round)
		for pos := 1; pos <= matchesInRound; pos++ {
			slots = append(slots, Slot{
				RoundNumber:     round,
				BracketPosition: pos,
				IsFinal:         round == totalRounds,
			})
		}
	}

	// First round: pair teams by seed order, auto-completing byes.
	var matches []MatchSlot
	firstRoundCount := bracketSize / 2
	for i := 0; i < firstRoundCount; i++ {
		var team1ID, team2ID *string
		if idx := seedOrder[i*2]; idx < teamCount {
			team1ID = &sorted[idx].TeamID
		}
		if idx := seedOrder[i*2+1]; idx < teamCount {
			team2ID = &sorted[idx].TeamID
		}

		match := MatchSlot{
			BracketPosition: i + 1,
			RoundNumber:     1,
			Team1ID:         team1ID,
			Team2ID:         team2ID,
			IsBye:           (team1ID != nil) != (team2ID != nil),
			Status:          models.MatchStatusScheduled,
			BestOf:          config.OpeningBestOf,
		}

		if team1ID != nil && team2ID == nil {
			match.WinnerID = team1ID
			match.Status = models.MatchStatusCompleted
			result := models.ResultTeam1Win
			match.Result = &result
		} else if team2ID != nil && team1ID == nil {
			match.WinnerID = team2ID
			match.Status = models.MatchStatusCompleted
			result := models.ResultTeam2Win
			match.Result = &result
		}

		matches = append(matches, match)
	}

	// Later rounds start empty.
	for round := 2; round <= totalRounds; round++ {
		matchesInRound := bracketSize >> uint(round)
		bestOf := config.EliminationBestOf
		if round == totalRounds {
			bestOf = config.FinalsBestOf
		}
		for pos := 1; pos <= matchesInRound; pos++ {
			matches = append(matches, MatchSlot{
				BracketPosition: pos,
				RoundNumber:     round,
				Status:          models.MatchStatusScheduled,
				BestOf:          bestOf,
			})
		}
	}

	// Bye winners propagate into round 2 immediately.
	for i := range matches {
		bye := matches[i]
		if bye.RoundNumber != 1 || bye.Status != models.MatchStatusCompleted || bye.WinnerID == nil {
			continue
		}
		nextPos := NextBracketPosition(bye.BracketPosition)
		side := NextSlotSide(bye.BracketPosition)
		for j := range matches {
			if matches[j].RoundNumber == 2 && matches[j].BracketPosition == nextPos {
				if side == SideTeam1 {
					matches[j].Team1ID = bye.WinnerID
				} else {
					matches[j].Team2ID = bye.WinnerID
				}
				break
			}
		}
	}

	return &Proposal{
		Format:      models.FormatSingleElimination,
		TotalRounds: totalRounds,
		Slots:       slots,
		Matches:     matches,
		Metadata: ProposalMetadata{
			GeneratedAt: time.Now().UTC(),
			TeamCount:   teamCount,
			ByeCount:    byeCount,
		},
	}, nil
}

func (e *SingleEliminationEngine) ComputeAdvancements(currentRound, totalRounds int, completedMatches []CompletedMatch, slots []Slot) (AdvancementResult, error) {
	nextRound := currentRound + 1
	if nextRound > totalRounds {
		return AdvancementResult{TournamentCompleted: true}, nil
	}

	nextRoundSlots := make(map[int]bool)
	for _, s := range slots {
		if s.RoundNumber == nextRound {
			nextRoundSlots[s.BracketPosition] = true
		}
	}

	var advancements []Advancement
	for _, match := range completedMatches {
		if match.RoundNumber != currentRound || match.WinnerID == nil {
			continue
		}

		nextPos := NextBracketPosition(match.BracketPosition)
		if !nextRoundSlots[nextPos] {
			continue
		}

		advancements = append(advancements, Advancement{
			WinnerID:            *match.WinnerID,
			NextRound:           nextRound,
			NextBracketPosition: nextPos,
			Side:                NextSlotSide(match.BracketPosition),
		})
	}

	return AdvancementResult{Advancements: advancements}, nil
}

func (e *SingleEliminationEngine) Validate(proposal *Proposal) ValidationResult {
	var errs []string

	expectedRounds := int(math.Ceil(math.Log2(float64(proposal.Metadata.TeamCount))))
	if proposal.TotalRounds != expectedRounds {
		errs = append(errs, fmt.Sprintf("expected %d rounds for %d teams, got %d",
			expectedRounds, proposal.Metadata.TeamCount, proposal.TotalRounds))
	}

	bracketSize := 1 << uint(proposal.TotalRounds)
	var round1 []MatchSlot
	for _, m := range proposal.Matches {
		if m.RoundNumber == 1 {
			round1 = append(round1, m)
		}
	}
	if len(round1) != bracketSize/2 {
		errs = append(errs, fmt.Sprintf("expected %d first-round matches, got %d", bracketSize/2, len(round1)))
	}

	for _, m := range proposal.Matches {
		if m.Team1ID != nil && m.Team2ID != nil && *m.Team1ID == *m.Team2ID {
			errs = append(errs, fmt.Sprintf("match at round %d position %d: team plays itself", m.RoundNumber, m.BracketPosition))
		}
	}

	seen := make(map[string]bool)
	for _, m := range round1 {
		for _, id := range []*string{m.Team1ID, m.Team2ID} {
			if id == nil {
				continue
			}
			if seen[*id] {
				errs = append(errs, fmt.Sprintf("team %s appears in multiple first-round matches", *id))
			}
			seen[*id] = true
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
