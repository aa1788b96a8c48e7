package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/evergrid/contracts-service/internal/auth"
	"github.com/evergrid/contracts-service/internal/config"
	"github.com/evergrid/contracts-service/internal/db"
	httphandler "github.com/evergrid/contracts-service/internal/http"
	"github.com/evergrid/contracts-service/internal/http/middleware"
	"github.com/evergrid/contracts-service/internal/logger"
	"github.com/evergrid/contracts-service/internal/pdf"
	"github.com/evergrid/contracts-service/internal/repository"
	"github.com/evergrid/contracts-service/internal/service"
	"github.com/evergrid/contracts-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	signedURLTTL, err := time.ParseDuration(cfg.Storage.SignedURLTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid GCS_SIGNED_URL_TTL")
	}
	blobs, err := storage.NewGCSStore(context.Background(), cfg.Storage.Bucket, cfg.Storage.PublicObjects, signedURLTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init blob storage")
	}

	contractRepo := repository.NewContractRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	userRepo := repository.NewUserRepository(database)

	contractService := service.NewContractService(contractRepo, blobs, pdf.NewGenerator())
	profileService := service.NewProfileService(profileRepo)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(contractService, profileService, log)
	authMiddleware := middleware.Auth(tokenParser, userRepo)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting contracts service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
