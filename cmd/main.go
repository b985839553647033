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

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/config"
	"github.com/Dosada05/bracket-engine/db"
	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/Dosada05/bracket-engine/repositories"
	api "github.com/Dosada05/bracket-engine/routes"
	"github.com/Dosada05/bracket-engine/services"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
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

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	sportRepo := repositories.NewPostgresSportRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	bracketRepo := repositories.NewPostgresBracketRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	sportService := services.NewSportService(sportRepo)
	teamService := services.NewTeamService(teamRepo, sportRepo)
	bracketService := services.NewBracketService(dbConn, bracketRepo, teamRepo, matchRepo, logger)
	matchService := services.NewMatchService(dbConn, matchRepo, bracketRepo, wsHub, logger)
	standingsService := services.NewStandingsService(bracketRepo, teamRepo, matchRepo)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	sportHandler := handlers.NewSportHandler(sportService)
	teamHandler := handlers.NewTeamHandler(teamService)
	bracketHandler := handlers.NewBracketHandler(bracketService, standingsService)
	matchHandler := handlers.NewMatchHandler(matchService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, bracketService, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := api.SetupRoutes(api.RouterDeps{
		SportHandler:     sportHandler,
		TeamHandler:      teamHandler,
		BracketHandler:   bracketHandler,
		MatchHandler:     matchHandler,
		WebSocketHandler: webSocketHandler,
		AllowedOrigins:   cfg.CORSAllowedOrigins,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
