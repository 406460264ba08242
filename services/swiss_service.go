package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/medibrs/tournament-engine/events"
	"github.com/medibrs/tournament-engine/lifecycle"
	"github.com/medibrs/tournament-engine/models"
	"github.com/medibrs/tournament-engine/repositories"
	"github.com/medibrs/tournament-engine/swiss"
)

// SwissAdvanceOutcome reports everything one round advance did.
type SwissAdvanceOutcome struct {
	Round               int                       `json:"round"`
	ScoreUpdates        []swiss.ScoreUpdate       `json:"score_updates"`
	EliminationResults  []swiss.EliminationResult `json:"elimination_results"`
	GhostMatchesDrawn   []string                  `json:"ghost_matches_drawn,omitempty"`
	NextRoundPairings   []models.SwissPairing     `json:"next_round_pairings,omitempty"`
	TournamentCompleted bool                      `json:"tournament_completed"`
	WinnerTeamID        *string                   `json:"winner_team_id,omitempty"`
}

type ModifyPairingInput struct {
	PairingID  string  `json:"pairing_id"`
	NewTeam1ID string  `json:"new_team1_id"`
	NewTeam2ID *string `json:"new_team2_id"`
	ModifiedBy string  `json:"modified_by"`
	Reason     string  `json:"reason"`
}

type SwissService interface {
	CreateDraft(ctx context.Context, tournamentID string, userID *string) ([]models.SwissPairing, error)
	ApprovePairings(ctx context.Context, tournamentID string, userID *string) ([]models.Match, error)
	ModifyPairing(ctx context.Context, input ModifyPairingInput) (*models.SwissPairing, error)
	AdvanceRound(ctx context.Context, tournamentID string, userID *string) (*SwissAdvanceOutcome, error)
	RegenerateDraft(ctx context.Context, tournamentID string, userID *string) ([]models.SwissPairing, error)
	GetCurrentDraft(ctx context.Context, tournamentID string) ([]models.SwissPairing, error)
	GetStandings(ctx context.Context, tournamentID string) ([]models.Participant, error)
}

type swissService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	bracketRepo     repositories.BracketRepository
	matchRepo       repositories.MatchRepository
	pairingRepo     repositories.PairingRepository
	auditRepo       repositories.PairingAuditRepository
	historyRepo     repositories.OpponentHistoryRepository
	bus             *events.Bus
	logger          *slog.Logger
}

func NewSwissService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	bracketRepo repositories.BracketRepository,
	matchRepo repositories.MatchRepository,
	pairingRepo repositories.PairingRepository,
	auditRepo repositories.PairingAuditRepository,
	historyRepo repositories.OpponentHistoryRepository,
	bus *events.Bus,
	logger *slog.Logger,
) SwissService {
	return &swissService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		bracketRepo:     bracketRepo,
		matchRepo:       matchRepo,
		pairingRepo:     pairingRepo,
		auditRepo:       auditRepo,
		historyRepo:     historyRepo,
		bus:             bus,
		logger:          logger,
	}
}

// swissContext is one consistent read of everything the pairing core
// needs.
type swissContext struct {
	tournament   *models.Tournament
	participants []models.Participant
	matches      []repositories.MatchRecord
	cfg          swiss.Config
}

func (c *swissContext) teamInputs() []swiss.TeamInput {
	inputs := make([]swiss.TeamInput, len(c.participants))
	for i, p := range c.participants {
		inputs[i] = swiss.TeamInput{
			TeamID:           p.TeamID,
			SeedNumber:       p.SeedNumber,
			SwissScore:       p.SwissScore,
			TiebreakerPoints: p.TiebreakerPoints,
			BuchholzScore:    p.BuchholzScore,
			IsActive:         p.IsActive,
		}
	}
	return inputs
}

func (c *swissContext) activeTeamInputs() []swiss.TeamInput {
	var inputs []swiss.TeamInput
	for _, in := range c.teamInputs() {
		if in.IsActive {
			inputs = append(inputs, in)
		}
	}
	return inputs
}

func (c *swissContext) matchInputs() []swiss.MatchInput {
	inputs := make([]swiss.MatchInput, len(c.matches))
	for i, m := range c.matches {
		inputs[i] = swiss.MatchInput{
			ID:          m.ID,
			Team1ID:     m.Team1ID,
			Team2ID:     m.Team2ID,
			WinnerID:    m.WinnerID,
			Result:      m.Result,
			Status:      m.Status,
			RoundNumber: m.RoundNumber,
		}
	}
	return inputs
}

func (c *swissContext) roundMatchInputs(round int) []swiss.MatchInput {
	var inputs []swiss.MatchInput
	for _, m := range c.matchInputs() {
		if m.RoundNumber == round {
			inputs = append(inputs, m)
		}
	}
	return inputs
}

func (c *swissContext) participantByTeam(teamID string) *models.Participant {
	for i := range c.participants {
		if c.participants[i].TeamID == teamID {
			return &c.participants[i]
		}
	}
	return nil
}

func swissConfig(t *models.Tournament) swiss.Config {
	totalRounds := t.SwissRounds
	if totalRounds == 0 {
		totalRounds = t.TotalRounds
	}
	return swiss.Config{
		PointsPerWin:      t.PointsPerWin,
		PointsPerDraw:     t.PointsPerDraw,
		PointsPerLoss:     t.PointsPerLoss,
		MaxWins:           t.MaxWins,
		MaxLosses:         t.MaxLosses,
		TotalRounds:       totalRounds,
		CurrentRound:      t.CurrentRound,
		OpeningBestOf:     t.OpeningBestOf,
		ProgressionBestOf: t.ProgressionBestOf,
		EliminationBestOf: t.EliminationBestOf,
	}
}

func (s *swissService) loadContext(ctx context.Context, tournamentID string) (*swissContext, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Format != models.FormatSwiss {
		return nil, fmt.Errorf("%w: format is %q", ErrUnsupportedFormat, tournament.Format)
	}

	sc := &swissContext{tournament: tournament, cfg: swissConfig(tournament)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gctx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		sc.participants = participants
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		sc.matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sc, nil
}

// checkPairingCapability gates pairing work on the capability table.
// The opening round is bracket generation; later rounds are pairing
// work on a live tournament.
func checkPairingCapability(state models.TournamentState, targetRound int) error {
	caps := lifecycle.GetCapabilities(state)
	if targetRound == 1 {
		if !caps.CanGenerateBracket {
			return fmt.Errorf("%w: state %q does not allow bracket generation",
				ErrInvalidStateTransition, state)
		}
		return nil
	}
	if !caps.CanModifyPairings {
		return fmt.Errorf("%w: state %q does not allow working with pairings",
			ErrInvalidStateTransition, state)
	}
	return nil
}

// buildProposal generates the draft for targetRound. Round 1 pairs by
// seed; later rounds pair by score pool with opponent history.
func (s *swissService) buildProposal(sc *swissContext, targetRound int) *swiss.Proposal {
	active := sc.activeTeamInputs()
	if targetRound == 1 {
		return swiss.GenerateRound1Proposal(active, sc.cfg)
	}

	allMatches := sc.matchInputs()
	teamIDs := make([]string, len(active))
	for i, t := range active {
		teamIDs[i] = t.TeamID
	}
	wlRecords := swiss.ComputeWLRecords(teamIDs, allMatches)
	eliminationResults := swiss.ComputeEliminationResults(wlRecords, sc.cfg)
	opponentHistory := swiss.BuildOpponentHistory(allMatches)

	return swiss.GenerateProposal(active, eliminationResults, opponentHistory, targetRound, sc.cfg)
}

func proposalToPairings(tournamentID string, proposal *swiss.Proposal) []*models.SwissPairing {
	pairings := make([]*models.SwissPairing, len(proposal.Pairings))
	for i, p := range proposal.Pairings {
		pairings[i] = &models.SwissPairing{
			TournamentID:     tournamentID,
			RoundNumber:      proposal.Round,
			Team1ID:          p.Team1ID,
			Team2ID:          p.Team2ID,
			Reason:           p.Reason,
			Status:           models.PairingStatusDraft,
			GenerationSource: models.GenerationAuto,
			Version:          1,
		}
	}
	return pairings
}

func (s *swissService) CreateDraft(ctx context.Context, tournamentID string, userID *string) ([]models.SwissPairing, error) {
	sc, err := s.loadContext(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	targetRound := sc.tournament.CurrentRound + 1
	if err := checkPairingCapability(sc.tournament.State, targetRound); err != nil {
		return nil, err
	}
	if len(sc.participants) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 participants", ErrNotEnoughTeams)
	}

	existing, err := s.pairingRepo.ListDraftByRound(ctx, tournamentID, targetRound)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: a draft for round %d already exists", ErrBracketAlreadyExists, targetRound)
	}

	proposal := s.buildProposal(sc, targetRound)
	pairings := proposalToPairings(tournamentID, proposal)

	err = withTournamentTx(ctx, s.db, s.logger, tournamentID, func(tx *sql.Tx) error {
		return s.pairingRepo.CreateBatch(ctx, tx, pairings)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, models.EventSwissDraftCreated, tournamentID, map[string]any{
		"round":    targetRound,
		"pairings": len(pairings),
		"byes":     proposal.Metadata.Byes,
	}, userID)

	out := make([]models.SwissPairing, len(pairings))
	for i, p := range pairings {
		out[i] = *p
	}
	return out, nil
}

// ApprovePairings locks the draft for the next round and materializes it
// into bracket slots and matches. Byes complete immediately as a win for
// the present team.
func (s *swissService) ApprovePairings(ctx context.Context, tournamentID string, userID *string) ([]models.Match, error) {
	sc, err := s.loadContext(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	targetRound := sc.tournament.CurrentRound + 1
	if err := checkPairingCapability(sc.tournament.State, targetRound); err != nil {
		return nil, err
	}
	drafts, err := s.pairingRepo.ListDraftByRound(ctx, tournamentID, targetRound)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: round %d", ErrNoDraftPairings, targetRound)
	}

	proposed := make([]swiss.ProposedPairing, len(drafts))
	for i, d := range drafts {
		proposed[i] = swiss.ProposedPairing{
			Team1ID: d.Team1ID,
			Team2ID: d.Team2ID,
			IsBye:   d.IsBye(),
			Reason:  d.Reason,
		}
	}
	var activeIDs []string
	for _, in := range sc.activeTeamInputs() {
		activeIDs = append(activeIDs, in.TeamID)
	}
	if targetRound > 1 {
		// Terminal-status teams are not required to appear in pairings.
		activeIDs = s.filterActiveByRecord(sc, activeIDs)
	}
	if validation := swiss.ValidatePairings(proposed, activeIDs); !validation.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPairings, strings.Join(validation.Errors, "; "))
	}

	// Approving the opening round puts the tournament in play, so the
	// state transition has to pass the same guards a manual one would.
	startsTournament := targetRound == 1
	if startsTournament {
		if err := validateStart(sc.tournament.State, len(sc.participants), sc.tournament.MinTeams); err != nil {
			return nil, err
		}
	}

	wlRecords := swiss.ComputeWLRecords(activeIDs, sc.matchInputs())

	slots := make([]*models.BracketSlot, len(drafts))
	matches := make([]*models.Match, len(drafts))
	pairingIDs := make([]string, len(drafts))
	for i, d := range drafts {
		pairingIDs[i] = d.ID
		slots[i] = &models.BracketSlot{
			TournamentID:    tournamentID,
			RoundNumber:     targetRound,
			BracketPosition: i + 1,
		}

		bestOf := sc.cfg.OpeningBestOf
		if rec1, ok := wlRecords[d.Team1ID]; ok && d.Team2ID != nil {
			if rec2, ok2 := wlRecords[*d.Team2ID]; ok2 {
				bestOf = swiss.DetermineBestOf(targetRound, sc.cfg, rec1.Losses, rec2.Losses, rec1.Wins, rec2.Wins)
			}
		}

		team1 := d.Team1ID
		pairingID := d.ID
		m := &models.Match{
			TournamentID:    tournamentID,
			MatchNumber:     i + 1,
			Team1ID:         &team1,
			Team2ID:         d.Team2ID,
			Status:          models.MatchStatusScheduled,
			BestOf:          bestOf,
			SourcePairingID: &pairingID,
		}
		if d.IsBye() {
			result := models.ResultTeam1Win
			m.Status = models.MatchStatusCompleted
			m.Result = &result
			m.WinnerID = &team1
		}
		matches[i] = m
	}

	err = withTournamentTx(ctx, s.db, s.logger, tournamentID, func(tx *sql.Tx) error {
		if err := s.pairingRepo.Lock(ctx, tx, pairingIDs); err != nil {
			return err
		}
		if err := s.bracketRepo.CreateBatch(ctx, tx, slots); err != nil {
			return err
		}
		for i := range matches {
			matches[i].BracketID = slots[i].ID
		}
		if err := s.matchRepo.CreateBatch(ctx, tx, matches); err != nil {
			return err
		}
		if startsTournament {
			if err := s.tournamentRepo.UpdateState(ctx, tx, tournamentID, models.StateInProgress); err != nil {
				return err
			}
		}
		return s.tournamentRepo.AdvanceCurrentRound(ctx, tx, tournamentID, targetRound-1, targetRound)
	})
	if err != nil {
		return nil, err
	}

	if startsTournament {
		s.emit(ctx, models.EventTournamentStateChanged, tournamentID, map[string]any{
			"from": string(sc.tournament.State),
			"to":   string(models.StateInProgress),
		}, userID)
	}
	s.emit(ctx, models.EventSwissPairingsApproved, tournamentID, map[string]any{
		"round":   targetRound,
		"matches": len(matches),
	}, userID)

	out := make([]models.Match, len(matches))
	for i, m := range matches {
		out[i] = *m
	}
	return out, nil
}

// filterActiveByRecord drops teams whose record already hit max_wins or
// max_losses from the must-be-paired set.
func (s *swissService) filterActiveByRecord(sc *swissContext, activeIDs []string) []string {
	wlRecords := swiss.ComputeWLRecords(activeIDs, sc.matchInputs())
	results := swiss.ComputeEliminationResults(wlRecords, sc.cfg)
	statusByTeam := make(map[string]swiss.EliminationStatus, len(results))
	for _, r := range results {
		statusByTeam[r.TeamID] = r.Status
	}

	var filtered []string
	for _, id := range activeIDs {
		if statusByTeam[id] == swiss.StatusActive {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

func (s *swissService) ModifyPairing(ctx context.Context, input ModifyPairingInput) (*models.SwissPairing, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, ErrOverrideReasonRequired
	}
	if input.NewTeam2ID != nil && input.NewTeam1ID == *input.NewTeam2ID {
		return nil, fmt.Errorf("%w: a team cannot be paired against itself", ErrValidationFailed)
	}

	pairing, err := s.pairingRepo.GetByID(ctx, input.PairingID)
	if err != nil {
		if errors.Is(err, repositories.ErrPairingNotFound) {
			return nil, ErrPairingNotFound
		}
		return nil, err
	}
	if pairing.IsLocked || pairing.Status == models.PairingStatusLocked {
		return nil, ErrPairingLocked
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, pairing.TournamentID)
	if err != nil {
		return nil, err
	}
	if err := checkPairingCapability(tournament.State, pairing.RoundNumber); err != nil {
		return nil, err
	}

	audit := &models.PairingAudit{
		PairingID: pairing.ID,
		ChangedBy: input.ModifiedBy,
		OldTeam1:  pairing.Team1ID,
		OldTeam2:  pairing.Team2ID,
		NewTeam1:  input.NewTeam1ID,
		NewTeam2:  input.NewTeam2ID,
		Reason:    input.Reason,
	}

	pairing.Team1ID = input.NewTeam1ID
	pairing.Team2ID = input.NewTeam2ID
	pairing.Status = models.PairingStatusModified
	pairing.GenerationSource = models.GenerationManual
	pairing.Version++
	pairing.ModifiedBy = &input.ModifiedBy
	pairing.OverrideReason = &input.Reason

	err = withTournamentTx(ctx, s.db, s.logger, pairing.TournamentID, func(tx *sql.Tx) error {
		if err := s.pairingRepo.Override(ctx, tx, pairing); err != nil {
			if errors.Is(err, repositories.ErrPairingNotFound) {
				return ErrPairingLocked
			}
			return err
		}
		return s.auditRepo.Append(ctx, tx, audit)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, models.EventSwissPairingModified, pairing.TournamentID, map[string]any{
		"round":       pairing.RoundNumber,
		"pairing_id":  pairing.ID,
		"modified_by": input.ModifiedBy,
		"reason":      input.Reason,
	}, &input.ModifiedBy)

	return pairing, nil
}

func (s *swissService) AdvanceRound(ctx context.Context, tournamentID string, userID *string) (*SwissAdvanceOutcome, error) {
	sc, err := s.loadContext(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	round := sc.tournament.CurrentRound
	if round < 1 {
		return nil, fmt.Errorf("%w: no round in progress", ErrNoDraftPairings)
	}
	if !lifecycle.GetCapabilities(sc.tournament.State).CanAdvanceRound {
		return nil, fmt.Errorf("%w: state %q does not allow advancing rounds",
			ErrInvalidStateTransition, sc.tournament.State)
	}

	roundMatches := sc.roundMatchInputs(round)
	allMatches := sc.matchInputs()

	teamIDs := make([]string, len(sc.participants))
	for i, p := range sc.participants {
		teamIDs[i] = p.TeamID
	}

	// Ghost matches cannot change standings and resolve as draws before
	// the completeness check.
	wlBefore := swiss.ComputeWLRecords(teamIDs, allMatches)
	elimBefore := swiss.ComputeEliminationResults(wlBefore, sc.cfg)
	ghostIDs := swiss.DetectGhostMatches(roundMatches, elimBefore)
	ghostSet := make(map[string]bool, len(ghostIDs))
	for _, id := range ghostIDs {
		ghostSet[id] = true
	}

	for i := range roundMatches {
		if ghostSet[roundMatches[i].ID] {
			draw := models.ResultDraw
			roundMatches[i].Status = models.MatchStatusCompleted
			roundMatches[i].Result = &draw
			roundMatches[i].WinnerID = nil
		}
	}
	for _, m := range roundMatches {
		if m.Status != models.MatchStatusCompleted {
			return nil, fmt.Errorf("%w: match %s in round %d", ErrRoundIncomplete, m.ID, round)
		}
	}

	priorMatches := make([]swiss.MatchInput, 0, len(allMatches))
	for _, m := range allMatches {
		if m.RoundNumber != round {
			priorMatches = append(priorMatches, m)
		}
	}

	result := swiss.ComputeRoundAdvance(sc.teamInputs(), roundMatches, priorMatches, sc.cfg)

	historyEntries := make([]models.OpponentHistoryEntry, 0, len(roundMatches)*2)
	for _, m := range roundMatches {
		if m.Team1ID == nil || m.Team2ID == nil {
			continue
		}
		historyEntries = append(historyEntries,
			models.OpponentHistoryEntry{TournamentID: tournamentID, TeamID: *m.Team1ID, OpponentID: *m.Team2ID, RoundNumber: round},
			models.OpponentHistoryEntry{TournamentID: tournamentID, TeamID: *m.Team2ID, OpponentID: *m.Team1ID, RoundNumber: round},
		)
	}

	var winnerTeamID *string
	if result.TournamentCompleted {
		winnerTeamID = pickSwissWinner(sc.participants, result)
	}

	var nextPairings []*models.SwissPairing
	if result.NextRoundProposal != nil {
		nextPairings = proposalToPairings(tournamentID, result.NextRoundProposal)
	}

	err = withTournamentTx(ctx, s.db, s.logger, tournamentID, func(tx *sql.Tx) error {
		for _, id := range ghostIDs {
			if err := s.matchRepo.ResolveAsDraw(ctx, tx, id); err != nil {
				return err
			}
		}
		for _, u := range result.ScoreUpdates {
			p := sc.participantByTeam(u.TeamID)
			if p == nil {
				continue
			}
			if err := s.participantRepo.UpdateSwissScore(ctx, tx, p.ID, u.NewSwissScore); err != nil {
				return err
			}
		}
		for _, e := range result.EliminationResults {
			if e.Status != swiss.StatusEliminated {
				continue
			}
			p := sc.participantByTeam(e.TeamID)
			if p == nil || !p.IsActive {
				continue
			}
			if err := s.participantRepo.Deactivate(ctx, tx, p.ID); err != nil {
				return err
			}
		}
		if err := s.historyRepo.UpsertBatch(ctx, tx, historyEntries); err != nil {
			return err
		}
		if result.TournamentCompleted {
			if err := s.tournamentRepo.SetWinner(ctx, tx, tournamentID, winnerTeamID); err != nil {
				return err
			}
			return s.tournamentRepo.UpdateState(ctx, tx, tournamentID, models.StateCompleted)
		}
		// Recheck under the lock: a concurrent advance may have written
		// the next draft between the context read and this transaction.
		count, err := s.pairingRepo.CountDraftByRound(ctx, tx, tournamentID, round+1)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: a draft for round %d already exists", ErrBracketAlreadyExists, round+1)
		}
		return s.pairingRepo.CreateBatch(ctx, tx, nextPairings)
	})
	if err != nil {
		return nil, err
	}

	outcome := &SwissAdvanceOutcome{
		Round:               round,
		ScoreUpdates:        result.ScoreUpdates,
		EliminationResults:  result.EliminationResults,
		GhostMatchesDrawn:   ghostIDs,
		TournamentCompleted: result.TournamentCompleted,
		WinnerTeamID:        winnerTeamID,
	}
	for _, p := range nextPairings {
		outcome.NextRoundPairings = append(outcome.NextRoundPairings, *p)
	}

	s.emit(ctx, models.EventSwissRoundAdvanced, tournamentID, map[string]any{
		"round":         round,
		"ghost_matches": len(ghostIDs),
		"completed":     result.TournamentCompleted,
	}, userID)
	if result.TournamentCompleted {
		s.emit(ctx, models.EventTournamentCompleted, tournamentID, map[string]any{
			"winner_team_id": derefString(winnerTeamID),
		}, userID)
	}

	return outcome, nil
}

// pickSwissWinner ranks by wins desc, losses asc, swiss score desc, seed
// asc over the final records.
func pickSwissWinner(participants []models.Participant, result *swiss.RoundAdvanceResult) *string {
	recordByTeam := make(map[string]swiss.EliminationResult, len(result.EliminationResults))
	for _, e := range result.EliminationResults {
		recordByTeam[e.TeamID] = e
	}
	scoreByTeam := make(map[string]int, len(result.ScoreUpdates))
	for _, u := range result.ScoreUpdates {
		scoreByTeam[u.TeamID] = u.NewSwissScore
	}

	ranked := append([]models.Participant(nil), participants...)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := recordByTeam[ranked[i].TeamID], recordByTeam[ranked[j].TeamID]
		if ri.Wins != rj.Wins {
			return ri.Wins > rj.Wins
		}
		if ri.Losses != rj.Losses {
			return ri.Losses < rj.Losses
		}
		si, sj := ranked[i].SwissScore, ranked[j].SwissScore
		if v, ok := scoreByTeam[ranked[i].TeamID]; ok {
			si = v
		}
		if v, ok := scoreByTeam[ranked[j].TeamID]; ok {
			sj = v
		}
		if si != sj {
			return si > sj
		}
		return ranked[i].SeedNumber < ranked[j].SeedNumber
	})

	if len(ranked) == 0 {
		return nil
	}
	winner := ranked[0].TeamID
	return &winner
}

// RegenerateDraft replaces every unlocked pairing of the upcoming round
// with a fresh proposal. Locked pairings survive untouched.
func (s *swissService) RegenerateDraft(ctx context.Context, tournamentID string, userID *string) ([]models.SwissPairing, error) {
	sc, err := s.loadContext(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	targetRound := sc.tournament.CurrentRound + 1
	if err := checkPairingCapability(sc.tournament.State, targetRound); err != nil {
		return nil, err
	}

	existing, err := s.pairingRepo.ListDraftByRound(ctx, tournamentID, targetRound)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("%w: round %d", ErrNoDraftPairings, targetRound)
	}

	proposal := s.buildProposal(sc, targetRound)
	pairings := proposalToPairings(tournamentID, proposal)

	err = withTournamentTx(ctx, s.db, s.logger, tournamentID, func(tx *sql.Tx) error {
		if err := s.pairingRepo.DeleteUnlockedByRound(ctx, tx, tournamentID, targetRound); err != nil {
			return err
		}
		return s.pairingRepo.CreateBatch(ctx, tx, pairings)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, models.EventSwissDraftRegenerated, tournamentID, map[string]any{
		"round":    targetRound,
		"pairings": len(pairings),
	}, userID)

	out := make([]models.SwissPairing, len(pairings))
	for i, p := range pairings {
		out[i] = *p
	}
	return out, nil
}

func (s *swissService) GetCurrentDraft(ctx context.Context, tournamentID string) ([]models.SwissPairing, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return s.pairingRepo.ListDraftByRound(ctx, tournamentID, tournament.CurrentRound+1)
}

// GetStandings orders participants by swiss score desc, tiebreaker desc,
// buchholz desc, seed asc.
func (s *swissService) GetStandings(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].SwissScore != participants[j].SwissScore {
			return participants[i].SwissScore > participants[j].SwissScore
		}
		if participants[i].TiebreakerPoints != participants[j].TiebreakerPoints {
			return participants[i].TiebreakerPoints > participants[j].TiebreakerPoints
		}
		if participants[i].BuchholzScore != participants[j].BuchholzScore {
			return participants[i].BuchholzScore > participants[j].BuchholzScore
		}
		return participants[i].SeedNumber < participants[j].SeedNumber
	})
	return participants, nil
}

func (s *swissService) emit(ctx context.Context, eventType models.EventType, tournamentID string, payload map[string]any, userID *string) {
	if err := s.bus.Emit(ctx, eventType, tournamentID, payload, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to record event",
			slog.String("event_type", string(eventType)),
			slog.String("tournament_id", tournamentID),
			slog.Any("error", err))
	}
}
