package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/shoplens/backend/config"
	httpDelivery "github.com/shoplens/backend/internal/delivery/http"
	"github.com/shoplens/backend/internal/domain"
	"github.com/shoplens/backend/internal/extract"
	"github.com/shoplens/backend/internal/infrastructure/cache"
	"github.com/shoplens/backend/internal/infrastructure/scoring"
	"github.com/shoplens/backend/internal/infrastructure/storage"
	"github.com/shoplens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ShopLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Storage: %s", cfg.Storage.Driver)

	ctx := context.Background()
	debug := cfg.Server.Environment == "development"

	// Initialize infrastructure dependencies
	var (
		repo     domain.ResearchRepository
		settings domain.SettingsRepository
	)
	switch cfg.Storage.Driver {
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("Failed to open research store at %s: %v", cfg.Storage.Path, err)
		}
		defer store.Close()
		log.Printf("Research store: %s", cfg.Storage.Path)
		repo, settings = store, store
	default:
		store := storage.NewMemoryStore()
		log.Printf("Research store: in-memory (entries are lost on restart)")
		repo, settings = store, store
	}

	// A persisted override beats the configured scoring endpoint
	if base, err := settings.GetSetting(ctx, "api_base_url"); err == nil && base != "" {
		cfg.Scoring.BaseURL = base
		log.Printf("Scoring base URL overridden from settings: %s", base)
	}

	if cfg.Scoring.APIKey != "" {
		log.Printf("Scoring service: %s (bearer token set)", cfg.Scoring.BaseURL)
	} else {
		log.Printf("Scoring service: %s (no bearer token)", cfg.Scoring.BaseURL)
	}

	scoringClient := scoring.NewClient(scoring.Config{
		BaseURL:            cfg.Scoring.BaseURL,
		APIKey:             cfg.Scoring.APIKey,
		Timeout:            cfg.Scoring.Timeout,
		RequestsPerSecond:  cfg.Scoring.RequestsPerSecond,
		EnableDebugLogging: debug,
	})

	sessionCache := cache.NewMemoryCache()
	normalizer := usecase.NewNormalizer(debug)

	// Initialize usecase layer
	history := usecase.NewHistoryService(repo, normalizer, usecase.HistoryServiceConfig{
		EnableDebugLogging: debug,
	})
	session := usecase.NewSessionService(sessionCache, normalizer, usecase.SessionServiceConfig{
		TTL: cfg.Session.TTL,
	})
	classifier := usecase.NewClassifierService(history, session, scoringClient, normalizer, usecase.ClassifierServiceConfig{
		MatchThreshold:     cfg.Thresholds.SiteMatch,
		EnableDebugLogging: debug,
	})
	ranking := usecase.NewRankingService(scoringClient, usecase.RankingServiceConfig{
		ScoreFloor:         cfg.Thresholds.RankingFilter,
		EnableDebugLogging: debug,
	})

	engine := extract.NewEngine(nil, extract.Config{
		CacheTTL:           cfg.Analyzer.CacheTTL,
		EnableDebugLogging: debug,
	})
	analyzer := usecase.NewAnalyzerService(classifier, session, ranking, engine, usecase.AnalyzerServiceConfig{
		SettleDelay:        cfg.Analyzer.SettleDelay,
		ScanDeadline:       cfg.Analyzer.ScanDeadline,
		EnableDebugLogging: debug,
	})

	log.Printf("Thresholds: site match=%d, ranking floor=%d", cfg.Thresholds.SiteMatch, cfg.Thresholds.RankingFilter)

	// Prune entries that expired while the server was down
	history.Cleanup(ctx)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(session, history, classifier, ranking, analyzer)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
