// Package lifecycle is the only place tournament state transition rules
// live. Pure validation only; persistence is the lifecycle service's
// job.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/medibrs/tournament-engine/models"
)

// transitionTable is the source of truth for legal transitions. Any
// transition not listed here is illegal. Cancelled -> Registration is
// the only revival edge; Archived has no outgoing edges.
var transitionTable = map[models.TournamentState][]models.TournamentState{
	models.StateRegistration: {models.StateSeeding, models.StateCancelled},
	models.StateSeeding:      {models.StateInProgress, models.StateRegistration, models.StateCancelled},
	models.StateInProgress:   {models.StatePaused, models.StateCompleted, models.StateCancelled},
	models.StatePaused:       {models.StateInProgress, models.StateCancelled},
	models.StateCompleted:    {models.StateArchived},
	models.StateCancelled:    {models.StateArchived, models.StateRegistration},
	models.StateArchived:     {},
}

func stateHash(s models.TournamentState) models.TournamentState { return s }

// stateGraph mirrors transitionTable as a directed graph so edge checks
// and adjacency queries go through one structure.
var stateGraph = buildStateGraph()

func buildStateGraph() graph.Graph[models.TournamentState, models.TournamentState] {
	g := graph.New(stateHash, graph.Directed())
	for _, state := range models.AllStates {
		_ = g.AddVertex(state)
	}
	for from, targets := range transitionTable {
		for _, to := range targets {
			_ = g.AddEdge(from, to)
		}
	}
	return g
}

// IsValidTransition checks structural validity only, ignoring guards.
func IsValidTransition(from, to models.TournamentState) bool {
	_, err := stateGraph.Edge(from, to)
	return err == nil
}

// ValidTransitions lists all legal next states in canonical state order.
func ValidTransitions(from models.TournamentState) []models.TournamentState {
	adjacency, err := stateGraph.AdjacencyMap()
	if err != nil {
		return nil
	}
	out := adjacency[from]

	targets := make([]models.TournamentState, 0, len(out))
	for _, state := range models.AllStates {
		if _, ok := out[state]; ok {
			targets = append(targets, state)
		}
	}
	return targets
}

// TransitionContext is the live aggregate snapshot guards validate
// against.
type TransitionContext struct {
	CurrentRound      int  `json:"current_round"`
	TotalRounds       int  `json:"total_rounds"`
	RegisteredTeams   int  `json:"registered_teams"`
	MinTeams          int  `json:"min_teams"`
	HasBracket        bool `json:"has_bracket"`
	HasSeeding        bool `json:"has_seeding"`
	IncompleteMatches int  `json:"incomplete_matches"`
}

// Guard returns a rejection reason, or "" if the transition may proceed.
type Guard func(ctx TransitionContext) string

type edge struct {
	from, to models.TournamentState
}

var guards = map[edge]Guard{
	{models.StateRegistration, models.StateSeeding}: func(ctx TransitionContext) string {
		if ctx.RegisteredTeams < ctx.MinTeams {
			return fmt.Sprintf("need at least %d teams (have %d)", ctx.MinTeams, ctx.RegisteredTeams)
		}
		return ""
	},
	{models.StateSeeding, models.StateInProgress}: func(ctx TransitionContext) string {
		if !ctx.HasSeeding {
			return "seeding must be generated first"
		}
		return ""
	},
	{models.StateInProgress, models.StateCompleted}: func(ctx TransitionContext) string {
		if ctx.IncompleteMatches > 0 {
			return fmt.Sprintf("%d matches still incomplete", ctx.IncompleteMatches)
		}
		return ""
	},
}

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ValidateTransition checks the transition table first, then any guard
// registered for the (from, to) pair.
func ValidateTransition(from, to models.TournamentState, ctx TransitionContext) Decision {
	if !IsValidTransition(from, to) {
		valid := ValidTransitions(from)
		names := make([]string, len(valid))
		for i, s := range valid {
			names[i] = string(s)
		}
		return Decision{
			Allowed: false,
			Reason: fmt.Sprintf("transition from %q to %q is not allowed, valid transitions: [%s]",
				from, to, strings.Join(names, ", ")),
		}
	}

	if guard, ok := guards[edge{from, to}]; ok {
		if reason := guard(ctx); reason != "" {
			return Decision{Allowed: false, Reason: reason}
		}
	}

	return Decision{Allowed: true}
}
