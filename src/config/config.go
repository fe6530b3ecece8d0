package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env             string
	Port            string
	AppHost         string
	JWTSecret       string
	JWTSecretARN    string
	MaintenanceMode bool
	LogDir          string

	StoreDriver string
	DSN         string

	RedisURL string
	CacheTTL time.Duration

	AssetsBucket       string
	DefaultUserPicture string
	DefaultTeamPicture string
	PresignTTL         time.Duration
	AWSRoleARN         string

	TeamEventsTopicARN string

	ReconcileInterval time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// Load reads configuration from the environment. In local mode a .env file in
// the working directory is loaded first.
func Load() (*Config, error) {
	if os.Getenv("API_ENV") == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	var problems []string
	cfg := &Config{
		Env:                getEnv("API_ENV", "production"),
		Port:               getEnv("PORT", "8080"),
		AppHost:            os.Getenv("APP_HOST"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTSecretARN:       os.Getenv("JWT_SECRET_ARN"),
		LogDir:             getEnv("LOG_DIR", "logs"),
		StoreDriver:        getEnv("STORE_DRIVER", StoreDriverPostgres),
		RedisURL:           os.Getenv("REDIS_HOST"),
		AssetsBucket:       os.Getenv("S3_ASSETS_BUCKET"),
		DefaultUserPicture: getEnv("DEFAULT_USER_PICTURE", "defaults/user.png"),
		DefaultTeamPicture: getEnv("DEFAULT_TEAM_PICTURE", "defaults/team.png"),
		AWSRoleARN:         os.Getenv("AWS_IAM_ROLE_ARN"),
		TeamEventsTopicARN: os.Getenv("SNS_TEAM_EVENTS_TOPIC_ARN"),
	}

	cfg.MaintenanceMode = parseBool("MAINTENANCE_MODE", false, &problems)
	cfg.CacheTTL = parseDuration("CACHE_TTL", 5*time.Minute, &problems)
	cfg.PresignTTL = parseDuration("PRESIGN_TTL", 15*time.Minute, &problems)
	cfg.ReconcileInterval = parseDuration("RECONCILE_INTERVAL", 15*time.Minute, &problems)
	cfg.RateLimitRPS = parseFloat("RATE_LIMIT_RPS", 10, &problems)
	cfg.RateLimitBurst = parseInt("RATE_LIMIT_BURST", 20, &problems)

	if cfg.JWTSecret == "" && cfg.JWTSecretARN == "" {
		problems = append(problems, "JWT_SECRET or JWT_SECRET_ARN is required")
	}
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if os.Getenv("DATABASE_HOST") == "" {
			problems = append(problems, "DATABASE_HOST is required for the postgres store")
		}
		cfg.DSN = GetDSN()
	case StoreDriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("STORE_DRIVER %q is not supported", cfg.StoreDriver))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := getEnv("DATABASE_PORT", "5432")
	DATABASE_SSLMODE := getEnv("DATABASE_SSLMODE", "disable")
	DATABASE_TIMEZONE := getEnv("DATABASE_TIMEZONE", "UTC")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func parseBool(key string, fallback bool, problems *[]string) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %s", key, err.Error()))
		return fallback
	}
	return b
}

func parseDuration(key string, fallback time.Duration, problems *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %s", key, err.Error()))
		return fallback
	}
	return d
}

func parseFloat(key string, fallback float64, problems *[]string) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %s", key, err.Error()))
		return fallback
	}
	return f
}

func parseInt(key string, fallback int, problems *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %s", key, err.Error()))
		return fallback
	}
	return i
}
