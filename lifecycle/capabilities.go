package lifecycle

import "github.com/medibrs/tournament-engine/models"

// Capabilities is the static per-state action vector. Every calling
// surface consults this instead of switching on state inline.
type Capabilities struct {
	CanRegister        bool `json:"can_register"`
	CanEditSeeding     bool `json:"can_edit_seeding"`
	CanGenerateBracket bool `json:"can_generate_bracket"`
	CanPlayMatches     bool `json:"can_play_matches"`
	CanAdvanceRound    bool `json:"can_advance_round"`
	CanModifyPairings  bool `json:"can_modify_pairings"`
	IsMutable          bool `json:"is_mutable"`
	IsTerminal         bool `json:"is_terminal"`
}

var capabilityTable = map[models.TournamentState]Capabilities{
	models.StateRegistration: {
		CanRegister:    true,
		CanEditSeeding: true, // seeding can be prepared while registration is open
		IsMutable:      true,
	},
	models.StateSeeding: {
		CanEditSeeding:     true,
		CanGenerateBracket: true,
		IsMutable:          true,
	},
	models.StateInProgress: {
		CanEditSeeding:    true,
		CanPlayMatches:    true,
		CanAdvanceRound:   true,
		CanModifyPairings: true,
		IsMutable:         true,
	},
	models.StatePaused: {
		CanEditSeeding:    true,
		CanModifyPairings: true,
		IsMutable:         true,
	},
	models.StateCompleted: {},
	models.StateCancelled: {},
	models.StateArchived: {
		IsTerminal: true,
	},
}

func GetCapabilities(state models.TournamentState) Capabilities {
	return capabilityTable[state]
}
