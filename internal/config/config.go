package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrMissingValue indicates a required key was not supplied.
type ErrMissingValue struct {
	Key string
}

func (e ErrMissingValue) Error() string {
	return fmt.Sprintf("%s environment variable is not set", e.Key)
}

// ErrInvalidValue indicates a key holds a value that cannot be used.
type ErrInvalidValue struct {
	Key   string
	Value string
}

func (e ErrInvalidValue) Error() string {
	return fmt.Sprintf("invalid value %q for %s", e.Value, e.Key)
}

// Config holds the service configuration.
type Config struct {
	Port string

	StoreDriver string
	MongoURL    string
	DBName      string
	DatabaseURL string
	SQLitePath  string

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	AMQPURL string

	MetricsUser string
	MetricsPass string

	LogLevel  string
	LogFormat string
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads a .env file if one exists and builds the Config from the process
// environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults for unset keys.
func FromLookup(lookup LookupFunc) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Port:        get("PORT", "8002"),
		StoreDriver: strings.ToLower(get("STORE_DRIVER", DriverMongo)),
		MongoURL:    get("MONGO_URL", ""),
		DBName:      get("DB_NAME", "seaweed_swimmer_2"),
		DatabaseURL: get("DATABASE_URL", ""),
		SQLitePath:  get("SQLITE_PATH", "file:seaweed.db"),
		AMQPURL:     get("AMQP_URL", ""),
		MetricsUser: get("METRICS_USER", ""),
		MetricsPass: get("METRICS_PASS", ""),
		LogLevel:    get("LOG_LEVEL", "info"),
		LogFormat:   get("LOG_FORMAT", "text"),
	}

	for _, origin := range strings.Split(get("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	rps := get("RATE_LIMIT_RPS", "5")
	var err error
	cfg.RateLimitRPS, err = strconv.ParseFloat(rps, 64)
	if err != nil || cfg.RateLimitRPS <= 0 {
		return Config{}, ErrInvalidValue{Key: "RATE_LIMIT_RPS", Value: rps}
	}

	burst := get("RATE_LIMIT_BURST", "30")
	cfg.RateLimitBurst, err = strconv.Atoi(burst)
	if err != nil || cfg.RateLimitBurst <= 0 {
		return Config{}, ErrInvalidValue{Key: "RATE_LIMIT_BURST", Value: burst}
	}

	switch cfg.StoreDriver {
	case DriverMongo:
		if cfg.MongoURL == "" {
			return Config{}, ErrMissingValue{Key: "MONGO_URL"}
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, ErrMissingValue{Key: "DATABASE_URL"}
		}
	case DriverSQLite:
	default:
		return Config{}, ErrInvalidValue{Key: "STORE_DRIVER", Value: cfg.StoreDriver}
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// MetricsAuthEnabled reports whether /metrics should require basic auth.
func (c Config) MetricsAuthEnabled() bool {
	return c.MetricsUser != ""
}
