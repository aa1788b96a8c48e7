package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/evergrid/contracts-service/internal/config"
	"github.com/evergrid/contracts-service/internal/db"
	"github.com/evergrid/contracts-service/internal/logger"
	"github.com/evergrid/contracts-service/internal/repository"
	"github.com/evergrid/contracts-service/internal/xlsx"
)

// profile-import replaces the agency and zip-profile lookup tables
// from the two seed workbooks. Both tables are swapped in one
// transaction, so lookups never observe a half-imported state.
func main() {
	agenciesPath := flag.String("agencies", "agencies.xlsx", "path to the agencies workbook")
	contractorsPath := flag.String("contractors", "zip_contractors.xlsx", "path to the zip contractors workbook")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	agencies, err := xlsx.ParseAgencies(*agenciesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *agenciesPath).Msg("failed to parse agencies workbook")
	}
	profiles, err := xlsx.ParseZipProfiles(*contractorsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *contractorsPath).Msg("failed to parse contractors workbook")
	}

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	profileRepo := repository.NewProfileRepository(database)
	if err := profileRepo.ReplaceAll(context.Background(), agencies, profiles); err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}

	log.Info().
		Int("agencies", len(agencies)).
		Int("zip_profiles", len(profiles)).
		Msg("lookup tables replaced")
}
