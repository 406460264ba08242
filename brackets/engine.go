// Package brackets holds the pure per-format bracket engines and the
// websocket hub used to push bracket updates to spectators.
package brackets

import (
	"fmt"
	"time"

	"github.com/medibrs/tournament-engine/models"
)

// TeamSeed is the read-only engine input derived from finalized seeding.
type TeamSeed struct {
	TeamID     string `json:"team_id"`
	SeedNumber int    `json:"seed_number"`
	TeamName   string `json:"team_name,omitempty"`
}

// Slot is a structural (round, position) placeholder, independent of
// which teams occupy it.
type Slot struct {
	RoundNumber     int  `json:"round_number"`
	BracketPosition int  `json:"bracket_position"`
	IsFinal         bool `json:"is_final"`
}

// MatchSlot is an engine-proposed match. The service layer turns it into
// a persisted Match.
type MatchSlot struct {
	BracketPosition int                 `json:"bracket_position"`
	RoundNumber     int                 `json:"round_number"`
	Team1ID         *string             `json:"team1_id"`
	Team2ID         *string             `json:"team2_id"`
	IsBye           bool                `json:"is_bye"`
	WinnerID        *string             `json:"winner_id"`
	Status          models.MatchStatus  `json:"status"`
	Result          *models.MatchResult `json:"result"`
	BestOf          int                 `json:"best_of"`
}

type ProposalMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	TeamCount   int       `json:"team_count"`
	ByeCount    int       `json:"bye_count"`
}

type Proposal struct {
	Format      models.Format    `json:"format"`
	TotalRounds int              `json:"total_rounds"`
	Slots       []Slot           `json:"brackets"`
	Matches     []MatchSlot      `json:"matches"`
	Metadata    ProposalMetadata `json:"metadata"`
}

// SlotSide names which side of a match a winner advances into.
type SlotSide string

const (
	SideTeam1 SlotSide = "team1_id"
	SideTeam2 SlotSide = "team2_id"
)

type Advancement struct {
	WinnerID            string   `json:"winner_id"`
	NextRound           int      `json:"next_round"`
	NextBracketPosition int      `json:"next_bracket_position"`
	Side                SlotSide `json:"slot"`
}

type AdvancementResult struct {
	Advancements        []Advancement `json:"advancements"`
	TournamentCompleted bool          `json:"tournament_completed"`
}

// CompletedMatch is the engine view of a persisted match joined with its
// bracket slot position.
type CompletedMatch struct {
	ID              string
	BracketPosition int
	RoundNumber     int
	Team1ID         *string
	Team2ID         *string
	WinnerID        *string
	Result          *models.MatchResult
	Status          models.MatchStatus
}

type FormatConfig struct {
	OpeningBestOf     int
	ProgressionBestOf int
	EliminationBestOf int
	FinalsBestOf      int
}

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Engine is implemented by every elimination format. All methods are
// pure; engines never touch storage.
type Engine interface {
	Format() models.Format

	GenerateBracket(teams []TeamSeed, config FormatConfig) (*Proposal, error)

	ComputeAdvancements(currentRound, totalRounds int, completedMatches []CompletedMatch, slots []Slot) (AdvancementResult, error)

	Validate(proposal *Proposal) ValidationResult
}

// EngineFor dispatches format to engine. Every models.Format constant
// has an arm here; Swiss is not an elimination format and goes through
// the pairing service instead.
func EngineFor(format models.Format) (Engine, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationEngine(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationEngine(), nil
	case models.FormatSwiss:
		return nil, fmt.Errorf("format %q is not an elimination format", format)
	default:
		return nil, fmt.Errorf("unsupported tournament format %q", format)
	}
}
