// Package config loads the service configuration from a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

const defaultAPIToken = "dev-token"

// Config holds all configuration for the application
type Config struct {
	// Storage
	Store         string
	DBConnStr     string
	RunMigrations bool

	// Transport
	HTTPPort       string
	GRPCPort       string
	APIToken       string
	RateLimitRPS   float64
	RateLimitBurst int

	// Behaviour
	LogLevel          string
	AssetNameCacheTTL time.Duration
	StrictWeights     bool
	SignatureMsg      string

	// Optional startup load, mostly useful with the memory store
	Seed SeedConfig
}

// SeedConfig describes a CSV load run at startup.
// It is enabled when PricesCSV is set.
type SeedConfig struct {
	PricesCSV       string
	WeightsCSV      string
	PortfolioName   string
	InceptionDate   string
	InitialValueUSD string
}

// Enabled reports whether a startup load was requested
func (s SeedConfig) Enabled() bool {
	return s.PricesCSV != ""
}

// Load reads an optional .env file (current or parent directory) and then the environment.
// Variables already set in the environment take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: error loading .env file: %v. Relying on OS environment variables.", err)
		}
	}

	cfg := &Config{
		Store:             strings.ToLower(getEnv("STORE", StorePostgres)),
		DBConnStr:         dbConnString(),
		RunMigrations:     getEnvAsBool("RUN_MIGRATIONS", true),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		GRPCPort:          getEnv("GRPC_PORT", "9090"),
		APIToken:          getEnv("API_TOKEN", defaultAPIToken),
		RateLimitRPS:      getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 30),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AssetNameCacheTTL: getEnvAsDuration("ASSET_NAME_CACHE_TTL", 5*time.Minute),
		StrictWeights:     getEnvAsBool("STRICT_WEIGHTS", true),
		SignatureMsg:      getEnv("EASTER_EGG_MSG", ""),
		Seed: SeedConfig{
			PricesCSV:       getEnv("SEED_PRICES_CSV", ""),
			WeightsCSV:      getEnv("SEED_WEIGHTS_CSV", ""),
			PortfolioName:   getEnv("SEED_PORTFOLIO", "Portafolio 1"),
			InceptionDate:   getEnv("SEED_T0", "2022-02-15"),
			InitialValueUSD: getEnv("SEED_V0", "1000000000"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combination of settings
func (c *Config) Validate() error {
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if c.Store == StorePostgres && c.DBConnStr == "" {
		return errors.New("database connection string is required for the postgres store")
	}
	// RATE_LIMIT_RPS=0 turns the limiter off
	if c.RateLimitRPS < 0 {
		return errors.New("RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_BURST must be positive when rate limiting is on")
	}
	if c.Seed.Enabled() && c.Seed.WeightsCSV == "" {
		return errors.New("SEED_WEIGHTS_CSV is required when SEED_PRICES_CSV is set")
	}
	return nil
}

// UsesDefaultToken reports whether API_TOKEN was left at its development default
func (c *Config) UsesDefaultToken() bool {
	return c.APIToken == defaultAPIToken
}

// dbConnString returns DB_CONN_STR or builds one from the individual DB_* variables
func dbConnString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	dbname := getEnv("DB_NAME", "portfolio_metrics")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("WARNING: Invalid integer for %s: %q. Using default %d.", key, valueStr, fallback)
		return fallback
	}
	return value
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("WARNING: Invalid number for %s: %q. Using default %v.", key, valueStr, fallback)
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("WARNING: Invalid boolean for %s: %q. Using default %t.", key, valueStr, fallback)
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("WARNING: Invalid duration for %s: %q. Using default %s.", key, valueStr, fallback)
		return fallback
	}
	return value
}
