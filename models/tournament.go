package models

import "time"

// TournamentState represents lifecycle states, matching the ENUM in the DB.
// The transition rules live in the lifecycle package.
type TournamentState string

const (
	StateRegistration TournamentState = "Registration"
	StateSeeding      TournamentState = "Seeding"
	StateInProgress   TournamentState = "In_Progress"
	StatePaused       TournamentState = "Paused"
	StateCompleted    TournamentState = "Completed"
	StateCancelled    TournamentState = "Cancelled"
	StateArchived     TournamentState = "Archived"
)

// AllStates in canonical order.
var AllStates = []TournamentState{
	StateRegistration, StateSeeding, StateInProgress, StatePaused,
	StateCompleted, StateCancelled, StateArchived,
}

type Tournament struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Format       Format          `json:"format" db:"format"`
	State        TournamentState `json:"state" db:"state"`
	CurrentRound int             `json:"current_round" db:"current_round"`
	TotalRounds  int             `json:"total_rounds" db:"total_rounds"`
	SwissRounds  int             `json:"swiss_rounds" db:"swiss_rounds"`
	MinTeams     int             `json:"min_teams" db:"min_teams"`

	PointsPerWin  int `json:"points_per_win" db:"points_per_win"`
	PointsPerDraw int `json:"points_per_draw" db:"points_per_draw"`
	PointsPerLoss int `json:"points_per_loss" db:"points_per_loss"`
	MaxWins       int `json:"max_wins" db:"max_wins"`
	MaxLosses     int `json:"max_losses" db:"max_losses"`

	OpeningBestOf     int `json:"opening_best_of" db:"opening_best_of"`
	ProgressionBestOf int `json:"progression_best_of" db:"progression_best_of"`
	EliminationBestOf int `json:"elimination_best_of" db:"elimination_best_of"`
	FinalsBestOf      int `json:"finals_best_of" db:"finals_best_of"`

	WinnerTeamID *string   `json:"winner_team_id,omitempty" db:"winner_team_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
