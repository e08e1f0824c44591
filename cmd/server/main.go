package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wordcards/internal/audio"
	"wordcards/internal/catalog"
	"wordcards/internal/config"
	"wordcards/internal/database"
	"wordcards/internal/handlers"
	"wordcards/internal/repository"
	"wordcards/internal/scheduler"
	"wordcards/internal/security"
	"wordcards/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	var tts *audio.TTSService
	if cfg.AudioDir != "" {
		if tts, err = audio.NewTTSService(cfg.AudioDir); err != nil {
			log.Fatalf("Failed to initialize audio: %v", err)
		}
		var wordIDs []int64
		for _, c := range cat.ListCategories() {
			wordIDs = append(wordIDs, c.WordIDs()...)
		}
		if removed, err := tts.RemoveOrphans(wordIDs); err != nil {
			log.Printf("Warning: Failed to cleanup orphaned audio files: %v", err)
		} else if removed > 0 {
			log.Printf("Removed %d orphaned audio files", removed)
		}
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Printf("Warning: email service unavailable: %v", err)
		emailService = nil
	}

	// Initialize services
	tokens := security.NewTokenSigner(cfg.JWTSecret, "wordcards")
	authService := service.NewAuthService(accountRepo, tokens, emailService, cfg.SessionDuration)
	progressService := service.NewProgressService(progressRepo, cat, cfg.Location(), cfg.StoreTimeout)
	quizService := service.NewQuizService(cat)

	oauthProviders := map[string]*handlers.OAuthProvider{}
	if googleProvider := handlers.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret); googleProvider != nil {
		oauthProviders[googleProvider.Name] = googleProvider
	}
	oidcProvider, err := handlers.NewOIDCProvider(ctx, cfg.OIDCIssuerURL, cfg.OIDCClientID, cfg.OIDCClientSecret)
	if err != nil {
		log.Printf("Warning: OIDC sign-in disabled: %v", err)
	} else if oidcProvider != nil {
		oauthProviders[oidcProvider.Name] = oidcProvider
	}

	// Background jobs
	jobs := scheduler.New(progressService, authService, cfg.ReconcileInterval, time.Hour)
	if err := jobs.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer jobs.Stop()

	limiter := security.NewRateLimiter(10, time.Minute)
	go limiter.Run(ctx, 5*time.Minute)

	csrf := security.NewCSRFGenerator(cfg.JWTSecret)
	router := &handlers.Router{
		Middleware: handlers.NewMiddleware(authService, csrf, limiter),
		Auth:       handlers.NewAuthHandler(authService, csrf, oauthProviders, cfg.OAuthRedirectBaseURL),
		Catalog:    handlers.NewCatalogHandler(cat, tts),
		Progress:   handlers.NewProgressHandler(progressService),
		Quiz:       handlers.NewQuizHandler(quizService, progressService),
		DB:         db,
	}

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
