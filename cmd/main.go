package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/medibrs/tournament-engine/brackets"
	"github.com/medibrs/tournament-engine/config"
	"github.com/medibrs/tournament-engine/db"
	"github.com/medibrs/tournament-engine/events"
	"github.com/medibrs/tournament-engine/handlers"
	"github.com/medibrs/tournament-engine/middleware"
	"github.com/medibrs/tournament-engine/models"
	"github.com/medibrs/tournament-engine/repositories"
	api "github.com/medibrs/tournament-engine/routes"
	"github.com/medibrs/tournament-engine/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.RunMigrations(dbConn, cfg.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	bracketRepo := repositories.NewPostgresBracketRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	pairingRepo := repositories.NewPostgresPairingRepository(dbConn)
	auditRepo := repositories.NewPostgresPairingAuditRepository(dbConn)
	historyRepo := repositories.NewPostgresOpponentHistoryRepository(dbConn)
	eventLogRepo := repositories.NewPostgresEventLogRepository(dbConn)
	logger.Info("repositories initialized")

	bus := events.NewBus(eventLogRepo, logger)

	// Every recorded event is pushed to the tournament's websocket room.
	busToHub := bus.Subscribe(func(ctx context.Context, event models.TournamentEvent) error {
		wsHub.BroadcastToRoom(brackets.RoomID(event.TournamentID), brackets.HubMessage{
			Type:    string(event.Type),
			Payload: event,
		})
		return nil
	})
	defer busToHub.Close()

	swissService := services.NewSwissService(
		dbConn, tournamentRepo, participantRepo, bracketRepo, matchRepo,
		pairingRepo, auditRepo, historyRepo, bus, logger,
	)
	lifecycleService := services.NewLifecycleService(
		dbConn, tournamentRepo, participantRepo, bracketRepo, matchRepo,
		pairingRepo, historyRepo, bus, logger,
	)
	orchestrator := services.NewOrchestrator(
		dbConn, tournamentRepo, participantRepo, bracketRepo, matchRepo,
		pairingRepo, historyRepo, swissService, bus, logger,
	)
	logger.Info("services initialized")

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(orchestrator, lifecycleService, eventLogRepo, logger)
	swissHandler := handlers.NewSwissHandler(orchestrator, swissService, logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, auth, tournamentHandler, swissHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
