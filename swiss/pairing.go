package swiss

import (
	"fmt"
	"sort"
	"time"

	"github.com/medibrs/tournament-engine/models"
)

// GenerateProposal produces the pairing proposal for rounds 2+.
//
// The algorithm:
//  1. Keep only teams that are is_active and still "active".
//  2. Bucket by swiss_score into pools, highest score first.
//  3. Within a pool, sort by tiebreaker desc then seed asc.
//  4. Greedily pair each team with the first later same-pool team it has
//     not already played.
//  5. Exactly one leftover carries down into the next pool.
//  6. Multiple leftovers (everyone already played) are forced into
//     rematches pairwise.
//  7. A single final leftover is cross-paired against any still-unpaired
//     active team, or given a bye if none remain.
//
// Cross-pool last-resort pairing walks teams in input order rather than
// picking the closest score. That can hand a strong pool's leftover a
// much weaker opponent; the behavior is kept as-is because pairings are
// reviewable drafts.
func GenerateProposal(
	participants []TeamInput,
	eliminationResults []EliminationResult,
	opponentHistory map[string]map[string]bool,
	roundNumber int,
	cfg Config,
) *Proposal {
	statusByTeam := make(map[string]EliminationStatus, len(eliminationResults))
	for _, e := range eliminationResults {
		statusByTeam[e.TeamID] = e.Status
	}

	activeTeams := make([]TeamInput, 0, len(participants))
	for _, p := range participants {
		if p.IsActive && statusByTeam[p.TeamID] == StatusActive {
			activeTeams = append(activeTeams, p)
		}
	}

	pools := make(map[int][]TeamInput)
	for _, team := range activeTeams {
		pools[team.SwissScore] = append(pools[team.SwissScore], team)
	}

	scores := make([]int, 0, len(pools))
	for score := range pools {
		scores = append(scores, score)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))

	for _, score := range scores {
		pool := pools[score]
		sort.SliceStable(pool, func(i, j int) bool {
			if pool[i].TiebreakerPoints != pool[j].TiebreakerPoints {
				return pool[i].TiebreakerPoints > pool[j].TiebreakerPoints
			}
			return pool[i].SeedNumber < pool[j].SeedNumber
		})
	}

	paired := make(map[string]bool)
	var pairings []ProposedPairing
	rematchesForced := 0
	var carryOver *TeamInput

	for _, score := range scores {
		poolTeams := append([]TeamInput(nil), pools[score]...)

		// Odd-sized leftover from the previous (higher) pool pairs first.
		if carryOver != nil {
			poolTeams = append([]TeamInput{*carryOver}, poolTeams...)
			carryOver = nil
		}

		var unpaired []TeamInput
		poolPaired := make(map[string]bool)

		for i := 0; i < len(poolTeams); i++ {
			p1 := poolTeams[i]
			if paired[p1.TeamID] || poolPaired[p1.TeamID] {
				continue
			}

			p1Opponents := opponentHistory[p1.TeamID]

			var found *TeamInput
			for j := i + 1; j < len(poolTeams); j++ {
				p2 := poolTeams[j]
				if paired[p2.TeamID] || poolPaired[p2.TeamID] {
					continue
				}
				if !p1Opponents[p2.TeamID] {
					found = &poolTeams[j]
					break
				}
			}

			if found != nil {
				poolPaired[p1.TeamID] = true
				poolPaired[found.TeamID] = true
				paired[p1.TeamID] = true
				paired[found.TeamID] = true
				t2 := found.TeamID
				pairings = append(pairings, ProposedPairing{
					Team1ID: p1.TeamID,
					Team2ID: &t2,
					Reason:  fmt.Sprintf("Pool pairing (score %d)", score),
				})
			} else {
				unpaired = append(unpaired, p1)
			}
		}

		switch {
		case len(unpaired) == 1:
			carryOver = &unpaired[0]
		case len(unpaired) > 1:
			// Everyone left in this pool has already played each other.
			for i := 0; i < len(unpaired); i += 2 {
				if i+1 < len(unpaired) {
					paired[unpaired[i].TeamID] = true
					paired[unpaired[i+1].TeamID] = true
					t2 := unpaired[i+1].TeamID
					pairings = append(pairings, ProposedPairing{
						Team1ID: unpaired[i].TeamID,
						Team2ID: &t2,
						Reason:  fmt.Sprintf("Forced rematch within pool (score %d)", score),
					})
					rematchesForced++
				} else {
					carryOver = &unpaired[i]
				}
			}
		}
	}

	if carryOver != nil {
		found := false
		for _, team := range activeTeams {
			if !paired[team.TeamID] && team.TeamID != carryOver.TeamID {
				paired[carryOver.TeamID] = true
				paired[team.TeamID] = true
				t2 := team.TeamID
				pairings = append(pairings, ProposedPairing{
					Team1ID: carryOver.TeamID,
					Team2ID: &t2,
					Reason:  "Cross-pool pairing (last resort)",
				})
				found = true
				break
			}
		}
		if !found {
			paired[carryOver.TeamID] = true
			pairings = append(pairings, ProposedPairing{
				Team1ID: carryOver.TeamID,
				Team2ID: nil,
				IsBye:   true,
				Reason:  "Bye - odd number of active teams",
			})
		}
	}

	return &Proposal{
		Round:    roundNumber,
		Pairings: pairings,
		Metadata: buildMetadata(pairings, rematchesForced),
	}
}

// GenerateRound1Proposal pairs by seed order (1v2, 3v4, ...) with no
// history check. An odd team count gives the last seed a bye.
func GenerateRound1Proposal(participants []TeamInput, cfg Config) *Proposal {
	sorted := append([]TeamInput(nil), participants...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SeedNumber < sorted[j].SeedNumber
	})

	var pairings []ProposedPairing
	for i := 0; i < len(sorted); i += 2 {
		p1 := sorted[i]
		if i+1 < len(sorted) {
			p2 := sorted[i+1]
			t2 := p2.TeamID
			pairings = append(pairings, ProposedPairing{
				Team1ID: p1.TeamID,
				Team2ID: &t2,
				Reason:  fmt.Sprintf("Seed %d vs Seed %d", p1.SeedNumber, p2.SeedNumber),
			})
		} else {
			pairings = append(pairings, ProposedPairing{
				Team1ID: p1.TeamID,
				IsBye:   true,
				Reason:  "Bye - odd number of teams",
			})
		}
	}

	return &Proposal{
		Round:    1,
		Pairings: pairings,
		Metadata: buildMetadata(pairings, 0),
	}
}

func buildMetadata(pairings []ProposedPairing, rematchesForced int) ProposalMetadata {
	played, byes := 0, 0
	for _, p := range pairings {
		if p.IsBye {
			byes++
		} else {
			played++
		}
	}
	return ProposalMetadata{
		GeneratedAt:      time.Now().UTC(),
		GenerationSource: models.GenerationAuto,
		TeamsPaired:      played * 2,
		Byes:             byes,
		RematchesForced:  rematchesForced,
	}
}

// ValidatePairings returns human-readable errors instead of failing hard
// so bad pairings can be surfaced for manual correction.
func ValidatePairings(pairings []ProposedPairing, activeTeamIDs []string) ValidationResult {
	var errs []string
	seen := make(map[string]bool)

	for _, p := range pairings {
		if p.Team2ID != nil && p.Team1ID == *p.Team2ID {
			errs = append(errs, fmt.Sprintf("Team %s is paired against itself", p.Team1ID))
		}

		if seen[p.Team1ID] {
			errs = append(errs, fmt.Sprintf("Team %s appears in multiple pairings", p.Team1ID))
		}
		seen[p.Team1ID] = true

		if p.Team2ID != nil {
			if seen[*p.Team2ID] {
				errs = append(errs, fmt.Sprintf("Team %s appears in multiple pairings", *p.Team2ID))
			}
			seen[*p.Team2ID] = true
		}
	}

	for _, id := range activeTeamIDs {
		if !seen[id] {
			errs = append(errs, fmt.Sprintf("Active team %s is missing from pairings", id))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
