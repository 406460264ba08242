package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/medibrs/tournament-engine/handlers"
	"github.com/medibrs/tournament-engine/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	tournamentHandler *handlers.TournamentHandler,
	swissHandler *handlers.SwissHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		// Public read surface.
		r.Get("/lifecycle", tournamentHandler.GetLifecycle)
		r.Get("/events", tournamentHandler.ListEvents)
		r.Get("/swiss/draft", swissHandler.GetDraft)
		r.Get("/swiss/standings", swissHandler.GetStandings)

		// Organizer operations.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize("organizer", "admin"))

			r.Post("/lifecycle", tournamentHandler.Transition)
			r.Post("/bracket", tournamentHandler.GenerateBracket)
			r.Post("/bracket/advance", tournamentHandler.AdvanceRound)
			r.Delete("/bracket", tournamentHandler.ResetBracket)

			r.Post("/swiss/draft", swissHandler.CreateDraft)
			r.Post("/swiss/draft/approve", swissHandler.ApprovePairings)
			r.Post("/swiss/draft/regenerate", swissHandler.RegenerateDraft)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.Authorize("organizer", "admin"))
		r.Patch("/pairings/{pairingID}", swissHandler.ModifyPairing)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
