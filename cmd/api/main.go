package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_search/internal/adapters/advertiser"
	server "hotel_search/internal/adapters/http_server"
	"hotel_search/internal/adapters/memcache"
	"hotel_search/internal/adapters/observability"
	"hotel_search/internal/adapters/offercache"
	redisad "hotel_search/internal/adapters/redis"
	"hotel_search/internal/app"
	"hotel_search/internal/domain"
	"hotel_search/internal/shared"
	"hotel_search/internal/storage/csvfile"
	mysqlrepo "hotel_search/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve(cfg.MetricsAddr)

	// reference data: built once, read-only afterwards
	store, err := app.LoadCatalog(ctx, rowSource(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("catalog initialization failed")
	}

	// offers
	client, err := advertiser.New(cfg.OffersBase, cfg.OffersKey, cfg.OffersRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize advertiser client")
	}
	offers := offerSource(ctx, cfg, client)

	search := app.NewSearchService(store,
		app.WithParallelism(cfg.SearchParallelism),
		app.WithTimeout(cfg.SearchTimeout),
	)

	// http
	srv := server.New(cfg.AllowedOrigins)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Search: search, Store: store, Offers: offers})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func rowSource(cfg shared.Config) domain.RowSource {
	if cfg.DataSource != "mysql" {
		log.Info().Str("dir", cfg.DataDir).Msg("loading reference data from csv")
		return csvfile.New(cfg.DataDir)
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("loading reference data from mysql")
	return mysqlrepo.New(db)
}

// offerSource wraps the client in the configured cache, if any. An
// unreachable Redis degrades to the in-process cache.
func offerSource(ctx context.Context, cfg shared.Config, client *advertiser.Client) domain.OfferSource {
	switch cfg.OfferCache {
	case "off":
		return client
	case "redis":
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, using in-memory offer cache")
			break
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("offer cache: redis")
		return offercache.New(client, rc, cfg.CacheTTL)
	}
	mem, err := memcache.New(cfg.OfferCacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("memcache.New failed")
	}
	log.Info().Int("size", cfg.OfferCacheSize).Msg("offer cache: memory")
	return offercache.New(client, mem, cfg.CacheTTL)
}
