package models

import "time"

// PairingStatus tracks the draft -> modified -> locked pairing lifecycle.
type PairingStatus string

const (
	PairingStatusDraft    PairingStatus = "draft"
	PairingStatusModified PairingStatus = "modified"
	PairingStatusLocked   PairingStatus = "locked"
)

type GenerationSource string

const (
	GenerationAuto   GenerationSource = "auto"
	GenerationManual GenerationSource = "manual"
)

// SwissPairing is a persisted pairing proposal. A nil Team2ID means a bye.
// On approval a pairing is locked and spawns a Match.
type SwissPairing struct {
	ID           string `json:"id" db:"id"`
	TournamentID string `json:"tournament_id" db:"tournament_id"`
	RoundNumber  int    `json:"round_number" db:"round_number"`

	Team1ID string  `json:"team1_id" db:"team1_id"`
	Team2ID *string `json:"team2_id" db:"team2_id"`
	Reason  string  `json:"reason" db:"reason"`

	Status           PairingStatus    `json:"status" db:"status"`
	IsLocked         bool             `json:"is_locked" db:"is_locked"`
	GenerationSource GenerationSource `json:"generation_source" db:"generation_source"`
	Version          int              `json:"version" db:"version"`

	ModifiedBy     *string   `json:"modified_by,omitempty" db:"modified_by"`
	OverrideReason *string   `json:"override_reason,omitempty" db:"override_reason"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

func (p SwissPairing) IsBye() bool {
	return p.Team2ID == nil || *p.Team2ID == p.Team1ID
}

// PairingAudit records one manual modification of a pairing.
type PairingAudit struct {
	ID        string    `json:"id" db:"id"`
	PairingID string    `json:"pairing_id" db:"pairing_id"`
	ChangedBy string    `json:"changed_by" db:"changed_by"`
	OldTeam1  string    `json:"old_team1_id" db:"old_team1_id"`
	OldTeam2  *string   `json:"old_team2_id" db:"old_team2_id"`
	NewTeam1  string    `json:"new_team1_id" db:"new_team1_id"`
	NewTeam2  *string   `json:"new_team2_id" db:"new_team2_id"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OpponentHistoryEntry is one directed edge of the symmetric
// previously-played relation.
type OpponentHistoryEntry struct {
	TournamentID string `json:"tournament_id" db:"tournament_id"`
	TeamID       string `json:"team_id" db:"team_id"`
	OpponentID   string `json:"opponent_id" db:"opponent_id"`
	RoundNumber  int    `json:"round_number" db:"round_number"`
}
