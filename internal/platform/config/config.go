package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"lc_accountability/internal/common"
)

type Config struct {
	LeetCodeGraphQLURL string
	FetchLimit         int
	MinGap             time.Duration
	LookbackDays       int

	CostPerQuestion        decimal.Decimal
	CurrencyCode           string
	SplitwiseAPIURL        string
	SplitwiseAPIKey        string
	SplitwiseCategoryID    int
	DryRun                 bool
	CountUnknownDifficulty bool

	UsersFile   string
	Concurrency int

	HTTPTimeout    time.Duration
	HTTPMaxRetries int

	DatabaseURL string

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	DifficultyCacheTTL time.Duration

	APIPort           string
	JWTKey            []byte
	JWTExp            time.Duration
	ReportRefresh     time.Duration
	ReportLockKey     string
	ReportLockTTL     time.Duration
	ReportSnapshotKey string

	LogLevel string
}

// Load reads .env (if present) and the environment into a Config. The result is
// passed explicitly to every component that needs it.
func Load() (*Config, error) {
	// A missing .env is fine; the environment is authoritative.
	_ = godotenv.Load()

	cost, err := decimal.NewFromString(getEnv("COST_PER_QUESTION", "10"))
	if err != nil {
		return nil, fmt.Errorf("COST_PER_QUESTION: %v: %w", err, common.ErrValidation)
	}

	cfg := &Config{
		LeetCodeGraphQLURL: getEnv("LEETCODE_GRAPHQL_URL", "https://leetcode.com/graphql"),
		FetchLimit:         getEnvAsInt("FETCH_LIMIT", 20),
		MinGap:             time.Duration(getEnvAsInt("MIN_HOURS_BETWEEN_SUBMISSIONS", 24)) * time.Hour,
		LookbackDays:       getEnvAsInt("LOOKBACK_DAYS", 7),

		CostPerQuestion:        cost,
		CurrencyCode:           getEnv("CURRENCY_CODE", "GBP"),
		SplitwiseAPIURL:        getEnv("SPLITWISE_API_URL", "https://secure.splitwise.com/api/v3.0"),
		SplitwiseAPIKey:        getEnv("SPLITWISE_API_KEY", ""),
		SplitwiseCategoryID:    getEnvAsInt("SPLITWISE_CATEGORY_ID", 2),
		DryRun:                 getEnvAsBool("DRY_RUN", false),
		CountUnknownDifficulty: getEnvAsBool("COUNT_UNKNOWN_DIFFICULTY", true),

		UsersFile:   getEnv("USERS_FILE", "users_data.json"),
		Concurrency: getEnvAsInt("CONCURRENCY", 4),

		HTTPTimeout:    time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		HTTPMaxRetries: getEnvAsInt("HTTP_MAX_RETRIES", 3),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		DifficultyCacheTTL: time.Duration(getEnvAsInt("DIFFICULTY_CACHE_TTL_HOURS", 720)) * time.Hour,

		APIPort:           getEnv("API_PORT", "8080"),
		JWTKey:            []byte(getEnv("JWT_SECRET", "")),
		JWTExp:            time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		ReportRefresh:     time.Duration(getEnvAsInt("REPORT_REFRESH_MINUTES", 30)) * time.Minute,
		ReportLockKey:     getEnv("REPORT_LOCK_KEY", "report_refresh_lock"),
		ReportLockTTL:     time.Duration(getEnvAsInt("REPORT_LOCK_TTL_SECONDS", 300)) * time.Second,
		ReportSnapshotKey: getEnv("REPORT_SNAPSHOT_KEY", "report:latest"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the services rely on.
func (c *Config) Validate() error {
	var problems []string
	if c.FetchLimit <= 0 {
		problems = append(problems, "FETCH_LIMIT must be positive")
	}
	if c.MinGap < 0 {
		problems = append(problems, "MIN_HOURS_BETWEEN_SUBMISSIONS must not be negative")
	}
	if c.LookbackDays <= 0 {
		problems = append(problems, "LOOKBACK_DAYS must be positive")
	}
	if c.CostPerQuestion.IsNegative() {
		problems = append(problems, "COST_PER_QUESTION must not be negative")
	}
	if c.Concurrency <= 0 {
		problems = append(problems, "CONCURRENCY must be positive")
	}
	if c.HTTPMaxRetries < 0 {
		problems = append(problems, "HTTP_MAX_RETRIES must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s: %w", strings.Join(problems, "; "), common.ErrValidation)
	}
	return nil
}

// minJWTKeyLen is the shortest HS256 secret the API accepts.
const minJWTKeyLen = 32

// ValidateAPI checks the settings needed to issue or verify API tokens. Only
// the serve and token commands call it.
func (c *Config) ValidateAPI() error {
	if len(c.JWTKey) < minJWTKeyLen {
		return fmt.Errorf("invalid configuration: JWT_SECRET must be set to at least %d bytes: %w", minJWTKeyLen, common.ErrValidation)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
