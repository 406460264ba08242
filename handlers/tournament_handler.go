package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medibrs/tournament-engine/middleware"
	"github.com/medibrs/tournament-engine/models"
	"github.com/medibrs/tournament-engine/repositories"
	"github.com/medibrs/tournament-engine/services"
)

type TournamentHandler struct {
	orchestrator     services.Orchestrator
	lifecycleService services.LifecycleService
	eventLogRepo     repositories.EventLogRepository
	logger           *slog.Logger
}

func NewTournamentHandler(
	orchestrator services.Orchestrator,
	lifecycleService services.LifecycleService,
	eventLogRepo repositories.EventLogRepository,
	logger *slog.Logger,
) *TournamentHandler {
	return &TournamentHandler{
		orchestrator:     orchestrator,
		lifecycleService: lifecycleService,
		eventLogRepo:     eventLogRepo,
		logger:           logger,
	}
}

// writeOperationResult maps the orchestrator envelope to a status code:
// rule violations are 422 so clients can distinguish them from malformed
// requests.
func (h *TournamentHandler) writeOperationResult(w http.ResponseWriter, r *http.Request, result *services.OperationResult) {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	if err := writeJSON(w, status, result, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

func (h *TournamentHandler) GenerateBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.orchestrator.GenerateBracket(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	h.writeOperationResult(w, r, result)
}

func (h *TournamentHandler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.orchestrator.AdvanceRound(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	h.writeOperationResult(w, r, result)
}

func (h *TournamentHandler) ResetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.orchestrator.ResetBracket(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	h.writeOperationResult(w, r, result)
}

func (h *TournamentHandler) GetLifecycle(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	view, err := h.lifecycleService.GetLifecycle(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

type transitionRequest struct {
	State string `json:"state"`
}

func (h *TournamentHandler) Transition(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	userID := middleware.UserIDFromContext(r.Context())

	var req transitionRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	tournament, err := h.lifecycleService.Transition(r.Context(), tournamentID, models.TournamentState(req.State), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

func (h *TournamentHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			badRequestResponse(w, r, h.logger, errLimitInvalid)
			return
		}
		limit = parsed
	}

	events, err := h.eventLogRepo.ListByTournament(r.Context(), tournamentID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}
