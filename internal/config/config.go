package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the zokey API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Database   DatabaseConfig   `yaml:"database"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Auth       AuthConfig       `yaml:"auth"`
	Quota      QuotaConfig      `yaml:"quota"`
	AppStore   AppStoreConfig   `yaml:"appstore"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// CacheConfig holds the Redis store settings backing the search cache and user records.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // redis
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLMinutes       int      `yaml:"ttl_minutes"`
}

// DatabaseConfig holds Postgres settings. An empty DSN disables history and
// analytics and keeps users in the cache store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// CatalogConfig holds product catalog (PA-API) settings.
type CatalogConfig struct {
	AccessKey   string            `yaml:"access_key"`
	SecretKey   string            `yaml:"secret_key"`
	PartnerTags map[string]string `yaml:"partner_tags"` // region -> associate tag
	TimeoutSec  int               `yaml:"timeout_sec"`
	MockMode    bool              `yaml:"mock_mode"`
}

// RankingConfig holds the OpenAI-compatible ranking provider settings.
type RankingConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	MockMode    bool    `yaml:"mock_mode"`

	// Token budgets for model calls. 0 = unlimited.
	DailyTokenBudget   int64  `yaml:"daily_token_budget"`
	MonthlyTokenBudget int64  `yaml:"monthly_token_budget"`
	BudgetAction       string `yaml:"budget_action"` // warn, reject (default: reject)
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// QuotaConfig holds free tier and rate limit settings.
type QuotaConfig struct {
	FreeSearchLimit int  `yaml:"free_search_limit"`
	SearchRateLimit int  `yaml:"search_rate_limit_per_minute"`
	AllowReset      bool `yaml:"allow_reset"`
}

// AppStoreConfig holds receipt validation settings.
type AppStoreConfig struct {
	SharedSecret string `yaml:"shared_secret"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	MockMode     bool   `yaml:"mock_mode"`
}

// ResilienceConfig tunes retries and circuit breakers around provider calls.
type ResilienceConfig struct {
	RetryMaxAttempts      int     `yaml:"retry_max_attempts"`
	RetryInitialBackoffMS int     `yaml:"retry_initial_backoff_ms"`
	RetryMaxBackoffMS     int     `yaml:"retry_max_backoff_ms"`
	BreakerDisabled       bool    `yaml:"breaker_disabled"`
	BreakerMinRequests    uint32  `yaml:"breaker_min_requests"`
	BreakerFailureRatio   float64 `yaml:"breaker_failure_ratio"`
	BreakerOpenTimeoutSec int     `yaml:"breaker_open_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it and applies defaults and validation.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "redis"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "zokey:"
	}
	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = 60
	}
	if c.Catalog.TimeoutSec <= 0 {
		c.Catalog.TimeoutSec = 10
	}
	if c.Ranking.Model == "" {
		c.Ranking.Model = "gpt-4-turbo-preview"
	}
	if c.Ranking.Temperature <= 0 {
		c.Ranking.Temperature = 0.3
	}
	if c.Ranking.MaxTokens <= 0 {
		c.Ranking.MaxTokens = 2000
	}
	if c.Ranking.TimeoutSec <= 0 {
		c.Ranking.TimeoutSec = 30
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 30 * 24
	}
	if c.Quota.FreeSearchLimit <= 0 {
		c.Quota.FreeSearchLimit = 3
	}
	if c.Quota.SearchRateLimit <= 0 {
		c.Quota.SearchRateLimit = 60
	}
	if c.AppStore.TimeoutSec <= 0 {
		c.AppStore.TimeoutSec = 15
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Cache.Driver != "redis" {
		return fmt.Errorf("cache.driver must be \"redis\", got %q", c.Cache.Driver)
	}
	if len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Ranking.Temperature > 2 {
		return fmt.Errorf("ranking.temperature must be between 0 and 2, got %v", c.Ranking.Temperature)
	}
	switch c.Ranking.BudgetAction {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("ranking.budget_action must be \"warn\" or \"reject\", got %q", c.Ranking.BudgetAction)
	}
	if c.Ranking.DailyTokenBudget < 0 || c.Ranking.MonthlyTokenBudget < 0 {
		return fmt.Errorf("ranking token budgets must not be negative")
	}
	if c.Resilience.BreakerFailureRatio < 0 || c.Resilience.BreakerFailureRatio > 1 {
		return fmt.Errorf("resilience.breaker_failure_ratio must be between 0 and 1, got %v",
			c.Resilience.BreakerFailureRatio)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
