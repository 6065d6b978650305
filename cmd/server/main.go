package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexconquest/internal/auth"
	"github.com/freeeve/hexconquest/internal/config"
	"github.com/freeeve/hexconquest/internal/handler"
	"github.com/freeeve/hexconquest/internal/logger"
	"github.com/freeeve/hexconquest/internal/middleware"
	"github.com/freeeve/hexconquest/internal/repository/postgres"
	redisrepo "github.com/freeeve/hexconquest/internal/repository/redis"
	"github.com/freeeve/hexconquest/internal/repository/sqlite"
	"github.com/freeeve/hexconquest/internal/service"
	"github.com/freeeve/hexconquest/pkg/hexgame"
)

const limiterIdle = 10 * time.Minute

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("port", cfg.Port).Bool("devMode", cfg.DevMode).Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Repos
	userRepo := postgres.NewUserRepo(db)
	gameRepo := postgres.NewGameRepo(db)
	stateRepo := postgres.NewStateRepo(db)
	notificationRepo := postgres.NewNotificationRepo(db)

	// Services
	notificationSvc := service.NewNotificationService(notificationRepo)
	gameSvc := service.NewGameService(gameRepo, stateRepo, userRepo, redisClient, notificationSvc)
	turnSvc := service.NewTurnService(gameRepo, stateRepo, redisClient, notificationSvc, cfg.SessionTTL)
	gameSvc.SetSessionCloser(turnSvc)

	size, err := hexgame.ParseMapSize(cfg.DefaultMapSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid DEFAULT_MAP_SIZE")
	}
	gameSvc.SetDefaultMapSize(size)

	// Local archive (optional)
	if cfg.LocalArchivePath != "" {
		archive, err := sqlite.Open(cfg.LocalArchivePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.LocalArchivePath).Msg("Archive open failed")
		}
		defer archive.Close()
		gameSvc.SetArchive(archive)
		turnSvc.SetArchive(archive)
		log.Info().Str("path", cfg.LocalArchivePath).Msg("Local state archive enabled")
	}

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	googleOAuth := auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
	if !googleOAuth.Configured() {
		log.Warn().Msg("Google sign-in disabled: no client credentials")
	}

	// Handlers
	authHandler := handler.NewAuthHandler(googleOAuth, jwtMgr, userRepo, cfg.DevMode)
	api := handler.APIRoutes(
		handler.NewUserHandler(userRepo),
		handler.NewGameHandler(gameSvc),
		handler.NewTurnHandler(turnSvc),
		handler.NewNotificationHandler(notificationSvc),
	)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	root := middleware.Chain(mux,
		middleware.Logger,
		middleware.CORS(cfg.FrontendURL),
		limiter.Middleware,
		middleware.JSON,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go service.NewSessionJanitor(turnSvc, cfg.SessionTTL).Start(ctx)
	go func() {
		ticker := time.NewTicker(limiterIdle)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := limiter.Cleanup(limiterIdle); n > 0 {
					log.Debug().Int("removed", n).Msg("Rate limiter visitors pruned")
				}
			}
		}
	}()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	// Hand live turns back to their durable state before the leases go.
	cancel()
	if n := turnSvc.EvictIdle(shutdownCtx, 0); n > 0 {
		log.Info().Int("sessions", n).Msg("Released turn sessions")
	}
	log.Info().Msg("Server stopped")
}
