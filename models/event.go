package models

import "time"

type EventType string

const (
	// Lifecycle
	EventTournamentStateChanged EventType = "TOURNAMENT_STATE_CHANGED"
	EventTournamentCreated      EventType = "TOURNAMENT_CREATED"
	EventTournamentDeleted      EventType = "TOURNAMENT_DELETED"
	// Bracket
	EventBracketGenerated    EventType = "BRACKET_GENERATED"
	EventBracketReset        EventType = "BRACKET_RESET"
	EventRoundAdvanced       EventType = "ROUND_ADVANCED"
	EventTournamentCompleted EventType = "TOURNAMENT_COMPLETED"
	// Swiss
	EventSwissDraftCreated     EventType = "SWISS_DRAFT_CREATED"
	EventSwissPairingsApproved EventType = "SWISS_PAIRINGS_APPROVED"
	EventSwissPairingModified  EventType = "SWISS_PAIRING_MODIFIED"
	EventSwissRoundAdvanced    EventType = "SWISS_ROUND_ADVANCED"
	EventSwissDraftRegenerated EventType = "SWISS_DRAFT_REGENERATED"
	// Match
	EventMatchScoreSet      EventType = "MATCH_SCORE_SET"
	EventMatchStatusChanged EventType = "MATCH_STATUS_CHANGED"
	EventMatchDisputed      EventType = "MATCH_DISPUTED"
	// Seeding
	EventSeedingGenerated EventType = "SEEDING_GENERATED"
	EventSeedsSwapped     EventType = "SEEDS_SWAPPED"
	EventSeedSet          EventType = "SEED_SET"
	// Admin
	EventAdminOverride      EventType = "ADMIN_OVERRIDE"
	EventManualIntervention EventType = "MANUAL_INTERVENTION"
)

type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "low"
	ImpactMedium   ImpactLevel = "medium"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// TournamentEvent is one append-only audit record. Impact and category
// are assigned at emission and never recomputed.
type TournamentEvent struct {
	ID           string         `json:"id" db:"id"`
	TournamentID string         `json:"tournament_id" db:"tournament_id"`
	Type         EventType      `json:"type" db:"type"`
	UserID       *string        `json:"user_id,omitempty" db:"user_id"`
	Payload      map[string]any `json:"payload" db:"-"`
	Category     string         `json:"category" db:"category"`
	Impact       ImpactLevel    `json:"impact" db:"impact"`
	RoundNumber  *int           `json:"round_number,omitempty" db:"round_number"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
