package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DBConnStr string

	GRPCAddr string
	HTTPAddr string
	APIToken string
	LogMode  string

	Store            string
	CatalogFixture   string
	StatementTimeout time.Duration

	RedisAddr     string
	ProbeCacheTTL time.Duration

	WeightsFile        string
	TruthCheckSchedule string

	OverrideRoles           []string
	ExcludedClassifications []string
	ExcludeUnpriced         bool

	AssetsView    string
	UnrankedFn    string
	RankedFn      string
	DisclosureFn  string
	OverrideTable string
}

// Load reads the .env file (if any) and returns a populated Config struct.
// loaded reports whether a .env file was found.
func Load() (cfg *Config, loaded bool) {
	loaded = godotenv.Load() == nil

	cfg = &Config{
		DBConnStr: getEnv("DB_CONN_STR", ""),

		GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		HTTPAddr: getEnv("HTTP_ADDR", ":9090"),
		APIToken: getEnv("API_TOKEN", "dev-token"),
		LogMode:  getEnv("LOG_MODE", "development"),

		Store:            strings.ToLower(getEnv("STORE", StorePostgres)),
		CatalogFixture:   getEnv("CATALOG_FIXTURE", ""),
		StatementTimeout: getEnvDuration("STATEMENT_TIMEOUT", 5*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		ProbeCacheTTL: getEnvDuration("PROBE_CACHE_TTL", 5*time.Minute),

		WeightsFile:        getEnv("WEIGHTS_FILE", ""),
		TruthCheckSchedule: getEnvRaw("TRUTH_CHECK_SCHEDULE", "@every 5m"),

		OverrideRoles:           getEnvList("OVERRIDE_ROLES", []string{"advisor", "admin"}),
		ExcludedClassifications: getEnvList("EXCLUDED_CLASSIFICATIONS", nil),
		ExcludeUnpriced:         getEnvBool("EXCLUDE_UNPRICED", true),

		AssetsView:    getEnv("ASSETS_VIEW", "inventory_assets"),
		UnrankedFn:    getEnv("UNRANKED_FN", "inventory_for_profile"),
		RankedFn:      getEnv("RANKED_FN", "ranked_inventory_for_profile"),
		DisclosureFn:  getEnv("DISCLOSURE_FN", "override_disclosure"),
		OverrideTable: getEnv("OVERRIDE_TABLE", "override_audit_log"),
	}

	if cfg.DBConnStr == "" {
		// If explicit string is missing, build it from individual vars (Docker friendly)
		cfg.DBConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "entrestate"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	return cfg, loaded
}

// Validate checks the settings that have no safe fallback
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
	case StoreMemory:
		if c.CatalogFixture == "" {
			return fmt.Errorf("CATALOG_FIXTURE is required when STORE=%s", StoreMemory)
		}
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	if c.StatementTimeout < 0 {
		return fmt.Errorf("STATEMENT_TIMEOUT cannot be negative")
	}
	if len(c.OverrideRoles) == 0 {
		return fmt.Errorf("OVERRIDE_ROLES cannot be empty")
	}
	return nil
}

// LoadWeights returns the default score weights, overridden by the YAML file at path when set.
// Keys missing from the file keep their default value.
func LoadWeights(path string) (domain.ScoreWeights, error) {
	weights := domain.DefaultScoreWeights()
	if path == "" {
		return weights, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ScoreWeights{}, fmt.Errorf("failed to read weights file: %w", err)
	}
	if err := yaml.Unmarshal(data, &weights); err != nil {
		return domain.ScoreWeights{}, fmt.Errorf("failed to parse weights file: %w", err)
	}
	if err := weights.Validate(); err != nil {
		return domain.ScoreWeights{}, err
	}
	return weights, nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// getEnvRaw distinguishes an unset variable from one set to empty
func getEnvRaw(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := cast.ToBoolE(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := cast.ToDurationE(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
