package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medibrs/tournament-engine/middleware"
	"github.com/medibrs/tournament-engine/services"
)

type SwissHandler struct {
	orchestrator services.Orchestrator
	swissService services.SwissService
	logger       *slog.Logger
}

func NewSwissHandler(orchestrator services.Orchestrator, swissService services.SwissService, logger *slog.Logger) *SwissHandler {
	return &SwissHandler{
		orchestrator: orchestrator,
		swissService: swissService,
		logger:       logger,
	}
}

func (h *SwissHandler) writeOperationResult(w http.ResponseWriter, r *http.Request, result *services.OperationResult) {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	if err := writeJSON(w, status, result, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

func (h *SwissHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.orchestrator.CreateSwissDraft(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	h.writeOperationResult(w, r, result)
}

func (h *SwissHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	pairings, err := h.swissService.GetCurrentDraft(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"pairings": pairings}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

func (h *SwissHandler) ApprovePairings(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.orchestrator.ApproveSwissPairings(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	h.writeOperationResult(w, r, result)
}

func (h *SwissHandler) RegenerateDraft(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.orchestrator.RegenerateSwissDraft(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	h.writeOperationResult(w, r, result)
}

type modifyPairingRequest struct {
	NewTeam1ID string  `json:"new_team1_id"`
	NewTeam2ID *string `json:"new_team2_id"`
	Reason     string  `json:"reason"`
}

func (h *SwissHandler) ModifyPairing(w http.ResponseWriter, r *http.Request) {
	pairingID := chi.URLParam(r, "pairingID")
	userID := middleware.UserIDFromContext(r.Context())

	var req modifyPairingRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	input := services.ModifyPairingInput{
		PairingID:  pairingID,
		NewTeam1ID: req.NewTeam1ID,
		NewTeam2ID: req.NewTeam2ID,
		ModifiedBy: derefOrAnonymous(userID),
		Reason:     req.Reason,
	}
	result, err := h.orchestrator.ModifySwissPairing(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	h.writeOperationResult(w, r, result)
}

func (h *SwissHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	standings, err := h.swissService.GetStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

func derefOrAnonymous(s *string) string {
	if s == nil {
		return "anonymous"
	}
	return *s
}
