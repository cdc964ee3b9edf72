// Package config loads the service configuration from config/{env}.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/matchmaker/internal/domain/match"
)

// Database drivers.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Embedding providers.
const (
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

// Config holds the matchmaker API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Matching  MatchingConfig  `yaml:"matching"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds storage connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (default), postgres
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DSN              string   `yaml:"dsn"`
	MaxOpenConns     int      `yaml:"max_open_conns"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// BreakerConfig holds embedding circuit breaker settings.
type BreakerConfig struct {
	MaxFailures    uint32 `yaml:"max_failures"`
	OpenTimeoutSec int    `yaml:"open_timeout_sec"`
}

// EmbeddingConfig holds text embedding settings.
type EmbeddingConfig struct {
	Provider          string        `yaml:"provider"` // openai, hashing (default)
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	Dimensions        int           `yaml:"dimensions"`
	Instruction       string        `yaml:"instruction"` // prefix for instruction-tuned models, e.g. "query: "
	TimeoutSec        int           `yaml:"timeout_sec"`
	CacheSize         int           `yaml:"cache_size"`
	ChunkRunes        int           `yaml:"chunk_runes"`
	SharedCacheTTLSec int           `yaml:"shared_cache_ttl_sec"` // 0 disables the shared cache
	Breaker           BreakerConfig `yaml:"breaker"`
	Warmup            bool          `yaml:"warmup"`
}

// MatchingConfig holds ranking settings.
type MatchingConfig struct {
	DefaultLimit       int                         `yaml:"default_limit"`
	MaxLimit           int                         `yaml:"max_limit"`
	Concurrency        int                         `yaml:"concurrency"`
	RequestTimeoutMs   int                         `yaml:"request_timeout_ms"`
	CandidateTimeoutMs int                         `yaml:"candidate_timeout_ms"`
	Strict             bool                        `yaml:"strict"`
	Weights            map[match.Dimension]float64 `yaml:"weights"`
	Thresholds         *match.Thresholds           `yaml:"thresholds"`
}

// ScoreConfig returns the aggregation config: defaults overridden by the
// configured weights and thresholds.
func (m MatchingConfig) ScoreConfig() match.Config {
	cfg := match.DefaultConfig()
	if len(m.Weights) > 0 {
		cfg.Weights = m.Weights
	}
	if m.Thresholds != nil {
		cfg.Thresholds = *m.Thresholds
	}
	return cfg
}

// RequestTimeout returns the per-request ranking deadline.
func (m MatchingConfig) RequestTimeout() time.Duration {
	return time.Duration(m.RequestTimeoutMs) * time.Millisecond
}

// CandidateTimeout returns the per-candidate scoring deadline.
func (m MatchingConfig) CandidateTimeout() time.Duration {
	return time.Duration(m.CandidateTimeoutMs) * time.Millisecond
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

// Parse decodes YAML with env expansion, applies defaults and validates.
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderHashing
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 256
	}
	if c.Embedding.CacheSize <= 0 {
		c.Embedding.CacheSize = 10_000
	}
	if c.Embedding.ChunkRunes <= 0 {
		c.Embedding.ChunkRunes = 2000
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 20
	}
	if c.Embedding.Breaker.MaxFailures == 0 {
		c.Embedding.Breaker.MaxFailures = 5
	}
	if c.Embedding.Breaker.OpenTimeoutSec <= 0 {
		c.Embedding.Breaker.OpenTimeoutSec = 30
	}
	if c.Matching.DefaultLimit <= 0 {
		c.Matching.DefaultLimit = 10
	}
	if c.Matching.MaxLimit <= 0 {
		c.Matching.MaxLimit = 100
	}
	if c.Matching.Concurrency <= 0 {
		c.Matching.Concurrency = 16
	}
	if c.Matching.RequestTimeoutMs <= 0 {
		c.Matching.RequestTimeoutMs = 5000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", DriverRedis)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", DriverPostgres)
		}
		if c.Embedding.SharedCacheTTLSec > 0 {
			return fmt.Errorf("embedding.shared_cache_ttl_sec requires driver %q", DriverRedis)
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q",
			DriverRedis, DriverPostgres, c.Database.Driver)
	}
	switch c.Embedding.Provider {
	case ProviderHashing:
	case ProviderOpenAI:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderOpenAI, ProviderHashing, c.Embedding.Provider)
	}
	if c.Matching.DefaultLimit > c.Matching.MaxLimit {
		return fmt.Errorf("matching.default_limit %d exceeds max_limit %d",
			c.Matching.DefaultLimit, c.Matching.MaxLimit)
	}
	if slices.Contains(c.Auth.APIKeys, "") {
		return fmt.Errorf("auth.api_keys must not contain empty keys")
	}
	if err := c.Matching.ScoreConfig().Validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
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
