package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"yamdb/internal/auth"
	"yamdb/internal/config"
	"yamdb/internal/db"
	"yamdb/internal/logging"
	"yamdb/internal/router"
	"yamdb/internal/services"
	"yamdb/internal/store"
	"yamdb/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, reading settings from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	gin.SetMode(cfg.Server.GinMode)

	if err := validation.Register(cfg.Limits); err != nil {
		log.Fatal().Err(err).Msg("register validators")
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token manager")
	}
	mailer := services.NewMailService(cfg)

	engine := router.New(router.Services{
		Store:  st,
		Tokens: tokens,
		Flow:   auth.NewFlow(st, tokens, mailer),
		Limits: cfg.Limits,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Database.Driver).Msg("YaMDb API starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn().Msg("using the in-memory store, data is lost on exit")
		return store.NewMemoryStore(), nil
	}
	if err := db.Init(cfg.Database.URL, cfg.Database.Debug); err != nil {
		return nil, err
	}
	return store.NewGormStore(db.DB), nil
}
