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

// Model store drivers.
const (
	DriverMemory = "memory"
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// Config holds the topicdex API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Models   ModelsConfig   `yaml:"models"`
	Labeling LabelingConfig `yaml:"labeling"`
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
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`

	// CORSOrigins lists allowed browser origins; "*" allows any (default).
	CORSOrigins []string `yaml:"cors_origins"`
}

// AnalysisConfig tunes the clustering pipeline.
type AnalysisConfig struct {
	MaxDocuments        int     `yaml:"max_documents"` // 0 = unlimited
	ReduceComponents    int     `yaml:"reduce_components"`
	NormalizeEmbeddings *bool   `yaml:"normalize_embeddings"`
	MinSamples          int     `yaml:"min_samples"` // 0 = min_topic_size
	TopNWords           int     `yaml:"top_n_words"`
	AutoMergeThreshold  float64 `yaml:"auto_merge_threshold"`
}

// ModelsConfig holds fitted model snapshot storage settings.
type ModelsConfig struct {
	Driver           string   `yaml:"driver"` // memory (default), valkey, redis, none
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	MaxEntries       int      `yaml:"max_entries"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LabelingConfig holds LLM topic labeling settings.
type LabelingConfig struct {
	Enabled         bool   `yaml:"enabled"`
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	MaxConcurrency  int    `yaml:"max_concurrency"`
	SampleDocuments int    `yaml:"sample_documents"`
	TimeoutSec      int    `yaml:"timeout_sec"`
}

// Normalize reports whether embeddings are L2-normalised before reduction.
func (a AnalysisConfig) Normalize() bool {
	return a.NormalizeEmbeddings == nil || *a.NormalizeEmbeddings
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

// Parse decodes YAML configuration, expanding env variables, then applies
// defaults and validates the result.
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
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 64 << 20
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	if c.Analysis.ReduceComponents <= 0 {
		c.Analysis.ReduceComponents = 5
	}
	if c.Analysis.TopNWords <= 0 {
		c.Analysis.TopNWords = 30
	}
	if c.Analysis.AutoMergeThreshold <= 0 {
		c.Analysis.AutoMergeThreshold = 0.915
	}
	if c.Models.Driver == "" {
		c.Models.Driver = DriverMemory
	}
	if c.Models.TTLSec <= 0 {
		c.Models.TTLSec = 24 * 3600
	}
	if c.Models.MaxEntries <= 0 {
		c.Models.MaxEntries = 256
	}
	if c.Models.KeyPrefix == "" {
		c.Models.KeyPrefix = "topicdex:"
	}
	if c.Models.ReadinessTimeout <= 0 {
		c.Models.ReadinessTimeout = 10
	}
	if c.Labeling.Model == "" {
		c.Labeling.Model = "gpt-4o-mini"
	}
	if c.Labeling.MaxConcurrency <= 0 {
		c.Labeling.MaxConcurrency = 4
	}
	if c.Labeling.SampleDocuments <= 0 {
		c.Labeling.SampleDocuments = 4
	}
	if c.Labeling.TimeoutSec <= 0 {
		c.Labeling.TimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Analysis.MaxDocuments < 0 {
		return fmt.Errorf("analysis.max_documents must be >= 0, got %d", c.Analysis.MaxDocuments)
	}
	if c.Analysis.MinSamples < 0 {
		return fmt.Errorf("analysis.min_samples must be >= 0, got %d", c.Analysis.MinSamples)
	}
	if c.Analysis.AutoMergeThreshold > 1 {
		return fmt.Errorf("analysis.auto_merge_threshold must be in (0, 1], got %g", c.Analysis.AutoMergeThreshold)
	}
	switch c.Models.Driver {
	case DriverMemory, DriverNone:
	case DriverValkey, DriverRedis:
		if len(c.Models.Addrs) == 0 {
			return fmt.Errorf("models.addrs is required for driver %q", c.Models.Driver)
		}
	default:
		return fmt.Errorf("models.driver must be one of memory, valkey, redis, none, got %q", c.Models.Driver)
	}
	if c.Labeling.Enabled && c.Labeling.APIKey == "" {
		return fmt.Errorf("labeling.api_key is required when labeling is enabled")
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
