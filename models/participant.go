package models

import "time"

// Participant is a team's entry in one tournament. Swiss fields are
// mutated after every round advance; elimination formats only read the
// seed.
type Participant struct {
	ID           string `json:"id" db:"id"`
	TournamentID string `json:"tournament_id" db:"tournament_id"`
	TeamID       string `json:"team_id" db:"team_id"`
	TeamName     string `json:"team_name,omitempty" db:"team_name"`
	SeedNumber   int    `json:"seed_number" db:"seed_number"`

	SwissScore       int  `json:"swiss_score" db:"swiss_score"`
	TiebreakerPoints int  `json:"tiebreaker_points" db:"tiebreaker_points"`
	BuchholzScore    int  `json:"buchholz_score" db:"buchholz_score"`
	IsActive         bool `json:"is_active" db:"is_active"`

	DroppedOutAt *time.Time `json:"dropped_out_at,omitempty" db:"dropped_out_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
