package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/app/background"
	"github.com/LavaJover/shvark-heist-service/internal/app/setup"
	"github.com/LavaJover/shvark-heist-service/internal/config"
	"github.com/LavaJover/shvark-heist-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/logger"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	appLogger, logCloser := logger.Setup(cfg.LogConfig, cfg.Env)
	defer logCloser.Close()

	deps, err := setup.InitializeDependencies(cfg, appLogger)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()

	uc, err := setup.InitializeUseCases(deps)
	if err != nil {
		log.Fatalf("failed to init usecases: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := uc.Heist.Start(ctx); err != nil {
		log.Fatalf("failed to start heist engine: %v", err)
	}

	tasks := background.NewBackgroundTasks(uc.Heist, cfg.Engine.Schedule.PruneInterval, appLogger)
	if deps.Subscriber != nil {
		tasks.WithChatConsumer(uc.Dispatcher, deps.Subscriber, cfg.KafkaService.ChatTopic, cfg.KafkaService.GroupID)
	}
	if err := tasks.StartAll(ctx); err != nil {
		log.Fatalf("failed to start background tasks: %v", err)
	}

	httpHandler := handlers.NewHTTPHeistHandler(
		uc.Heist,
		uc.Dispatcher,
		deps.Repositories.LedgerRepo,
		deps.Repositories.HeistRepo,
	)
	httpHandler.ChatLimiter = handlers.NewChatLimiter(cfg.HTTPServer.ChatRatePerSecond, cfg.HTTPServer.ChatBurst)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:           handlers.NewRouter(httpHandler, nil),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("http server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	// Состояние уже сохранено, следующий старт продолжит с дедлайна
	uc.Heist.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
}
