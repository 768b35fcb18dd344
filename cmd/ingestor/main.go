package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_search/internal/adapters/observability"
	"hotel_search/internal/app"
	"hotel_search/internal/shared"
	"hotel_search/internal/storage/csvfile"
	mysqlrepo "hotel_search/internal/storage/mysql"
)

// ingestor copies the CSV reference data of DATA_DIR into MySQL.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("dir", cfg.DataDir).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	imp := app.NewImportService(csvfile.New(cfg.DataDir), mysqlrepo.New(db), cfg.Workers)
	st, err := imp.Import(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("ingestion failed")
	}
	log.Info().
		Int("cities", st.Cities).
		Int("advertisers", st.Advertisers).
		Int("hotels", st.Hotels).
		Int("links", st.Links).
		Msg("ingestion completed")
}
