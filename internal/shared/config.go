package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv      string `yaml:"appEnv"`
	HTTPAddr    string `yaml:"httpAddr"`
	MetricsAddr string `yaml:"metricsAddr"`

	DataSource string `yaml:"dataSource"` // csv|mysql
	DataDir    string `yaml:"dataDir"`
	MySQLDSN   string `yaml:"mysqlDSN"`

	RedisAddr string `yaml:"redisAddr"`
	RedisDB   int    `yaml:"redisDB"`
	RedisPass string `yaml:"redisPassword"`

	OffersBase string `yaml:"offersBaseURL"`
	OffersKey  string `yaml:"offersAPIKey"`
	OffersRPS  int    `yaml:"offersRPS"`

	OfferCache     string        `yaml:"offerCache"` // redis|memory|off
	OfferCacheSize int           `yaml:"offerCacheSize"`
	CacheTTL       time.Duration `yaml:"-"` // file: cacheTTLSeconds

	SearchParallelism int           `yaml:"searchParallelism"`
	SearchTimeout     time.Duration `yaml:"-"` // file: searchTimeoutMs

	Workers        int    `yaml:"ingestWorkers"`
	AllowedOrigins string `yaml:"allowedOrigins"`
}

// fileConfig carries the durations as integers, in the same units as
// CACHE_TTL_SECONDS and SEARCH_TIMEOUT_MS.
type fileConfig struct {
	Config          `yaml:",inline"`
	CacheTTLSeconds *int `yaml:"cacheTTLSeconds"`
	SearchTimeoutMs *int `yaml:"searchTimeoutMs"`
}

func defaults() Config {
	return Config{
		AppEnv:            "prod",
		HTTPAddr:          ":8080",
		DataSource:        "csv",
		DataDir:           "data",
		MySQLDSN:          "root:root@tcp(localhost:3306)/hotels?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		RedisAddr:         "localhost:6379",
		OffersBase:        "http://localhost:9090",
		OffersRPS:         20,
		OfferCache:        "memory",
		OfferCacheSize:    10_000,
		CacheTTL:          60 * time.Second,
		SearchParallelism: 1,
		SearchTimeout:     10 * time.Second,
		Workers:           8,
		AllowedOrigins:    "*",
	}
}

// Load builds the config from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() Config {
	c := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &c); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("config file ignored")
		}
	}
	overrideFromEnv(&c)
	if c.OffersKey == "" {
		log.Warn().Msg("OFFERS_API_KEY is empty")
	}
	return c
}

func loadFile(path string, c *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	next := fileConfig{Config: *c}
	if err := yaml.Unmarshal(b, &next); err != nil {
		return err
	}
	if next.CacheTTLSeconds != nil {
		next.Config.CacheTTL = time.Duration(*next.CacheTTLSeconds) * time.Second
	}
	if next.SearchTimeoutMs != nil {
		next.Config.SearchTimeout = time.Duration(*next.SearchTimeoutMs) * time.Millisecond
	}
	*c = next.Config
	return nil
}

func overrideFromEnv(c *Config) {
	c.AppEnv = env("APP_ENV", c.AppEnv)
	c.HTTPAddr = env("HTTP_ADDR", c.HTTPAddr)
	c.MetricsAddr = env("METRICS_ADDR", c.MetricsAddr)
	c.DataSource = env("DATA_SOURCE", c.DataSource)
	c.DataDir = env("DATA_DIR", c.DataDir)
	c.MySQLDSN = env("MYSQL_DSN", c.MySQLDSN)
	c.RedisAddr = env("REDIS_ADDR", c.RedisAddr)
	c.RedisPass = env("REDIS_PASSWORD", c.RedisPass)
	c.RedisDB = atoi("REDIS_DB", c.RedisDB)
	c.OffersBase = env("OFFERS_BASE_URL", c.OffersBase)
	c.OffersKey = env("OFFERS_API_KEY", c.OffersKey)
	c.OffersRPS = atoi("OFFERS_RPS", c.OffersRPS)
	c.OfferCache = env("OFFER_CACHE", c.OfferCache)
	c.OfferCacheSize = atoi("OFFER_CACHE_SIZE", c.OfferCacheSize)
	if v, ok := lookupInt("CACHE_TTL_SECONDS"); ok {
		c.CacheTTL = time.Duration(v) * time.Second
	}
	c.SearchParallelism = atoi("SEARCH_PARALLELISM", c.SearchParallelism)
	if v, ok := lookupInt("SEARCH_TIMEOUT_MS"); ok {
		c.SearchTimeout = time.Duration(v) * time.Millisecond
	}
	c.Workers = atoi("INGEST_WORKERS", c.Workers)
	c.AllowedOrigins = env("ALLOWED_ORIGINS", c.AllowedOrigins)
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if n, ok := lookupInt(k); ok {
		return n
	}
	return def
}

// lookupInt reports false for unset or non-numeric values.
func lookupInt(k string) (int, bool) {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}
