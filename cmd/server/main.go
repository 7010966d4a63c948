package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medquest/internal/api"
	"medquest/internal/canon"
	"medquest/internal/config"
	"medquest/internal/content"
	"medquest/internal/db"
	"medquest/internal/logger"
	"medquest/internal/progress"
	"medquest/internal/quiz"
	"medquest/internal/repository/sqlite"
	"medquest/internal/schema"
	"medquest/internal/services"
	"medquest/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("MedQuest Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("notes_url=%s", cfg.NotesURL)
	log.Debug("qbank_url=%s", cfg.QBankURL)
	log.Debug("long_qbank_urls=%v", cfg.LongQBankURLs)
	log.Debug("alias_path=%s", cfg.AliasPath)
	log.Debug("long_form_threshold=%d", cfg.LongFormThreshold)
	log.Debug("battle_length=%d", cfg.BattleLength)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hydrate progress state
	repo := sqlite.NewProgressRepository(database.DB)
	store := progress.NewStore(repo)
	if err := store.Load(ctx); err != nil {
		log.Error("failed to load progress state: %v", err)
		os.Exit(1)
	}
	unlocks := progress.NewUnlockController(store)

	// Build the content pipeline
	resolver, err := canon.LoadResolver(cfg.AliasPath)
	if err != nil {
		log.Error("failed to load alias table: %v", err)
		os.Exit(1)
	}
	source := content.NewHTTPSource(cfg.NotesURL, cfg.QBankURL, cfg.LongQBankURLs)
	builder := schema.NewBuilder(resolver, schema.NewNormalizer(cfg.LongFormThreshold))
	adapter := schema.NewAdapter(source, builder)

	contentService := services.NewContentService(adapter, resolver, store, unlocks)
	if err := contentService.Load(ctx); err != nil {
		log.Error("failed to load content: %v", err)
		os.Exit(1)
	}

	engine := quiz.NewEngine(store, unlocks)
	quizService := services.NewQuizService(engine, contentService, store, unlocks, cfg.BattleLength)

	reloadPool := worker.NewPool(cfg.ReloadWorkerCount, cfg.ReloadQueueSize)
	reloadPool.Start(ctx)

	srv := &api.Server{
		Content:    contentService,
		Quiz:       quizService,
		Store:      store,
		ReloadPool: reloadPool,
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Cancel worker context
	log.Debug("stopping worker pool")
	cancel()

	// Shutdown HTTP server
	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	reloadPool.Stop()

	log.Info("===========================================")
	log.Info("MedQuest Server Stopped")
	log.Info("===========================================")
}
