package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "Scheduled"
	MatchStatusInProgress MatchStatus = "In_Progress"
	MatchStatusCompleted  MatchStatus = "Completed"
)

type MatchResult string

const (
	ResultTeam1Win MatchResult = "Team1_Win"
	ResultTeam2Win MatchResult = "Team2_Win"
	ResultDraw     MatchResult = "Draw"
)

// BracketSlot is a structural (round, position) placeholder created once
// at bracket generation and never mutated afterwards.
type BracketSlot struct {
	ID              string    `json:"id" db:"id"`
	TournamentID    string    `json:"tournament_id" db:"tournament_id"`
	RoundNumber     int       `json:"round_number" db:"round_number"`
	BracketPosition int       `json:"bracket_position" db:"bracket_position"`
	IsFinal         bool      `json:"is_final" db:"is_final"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Match is the mutable playing record attached to a bracket slot. Score
// reporting mutates it until Completed; it is immutable afterwards.
type Match struct {
	ID           string `json:"id" db:"id"`
	TournamentID string `json:"tournament_id" db:"tournament_id"`
	BracketID    string `json:"bracket_id" db:"bracket_id"`
	MatchNumber  int    `json:"match_number" db:"match_number"`

	Team1ID  *string      `json:"team1_id" db:"team1_id"`
	Team2ID  *string      `json:"team2_id" db:"team2_id"`
	WinnerID *string      `json:"winner_id,omitempty" db:"winner_id"`
	Status   MatchStatus  `json:"status" db:"status"`
	Result   *MatchResult `json:"result,omitempty" db:"result"`
	BestOf   int          `json:"best_of" db:"best_of"`

	SourcePairingID *string   `json:"source_pairing_id,omitempty" db:"source_pairing_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
