// Package config loads the per-environment YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds the chatsearch configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Auth         AuthConfig         `yaml:"auth"`
	Database     DatabaseConfig     `yaml:"database"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Catalog      CatalogConfig      `yaml:"catalog"`
	Search       SearchConfig       `yaml:"search"`
	Conversation ConversationConfig `yaml:"conversation"`
	Logging      LoggingConfig      `yaml:"logging"`
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

// DatabaseConfig selects the KV/vector store.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	CacheSize        int      `yaml:"cache_size"` // memory driver entries
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	CacheTTL            string `yaml:"cache_ttl"`
}

// CatalogConfig points at the SQLite catalog and chat history.
type CatalogConfig struct {
	Path         string `yaml:"path"`
	ScanLimit    int    `yaml:"scan_limit"`
	HistoryLimit int    `yaml:"history_limit"`
}

// SearchConfig tunes the search pipeline.
type SearchConfig struct {
	TopResults               int     `yaml:"top_results"`
	Collection               string  `yaml:"collection"`
	NeighborMultiplier       int     `yaml:"neighbor_multiplier"`
	StockFilterConfidence    int     `yaml:"stock_filter_confidence"`
	CategoryFilterConfidence int     `yaml:"category_filter_confidence"`
	MinDirectoryScore        float64 `yaml:"min_directory_score"`
	NumericTolerance         float64 `yaml:"numeric_tolerance"`
	HNSWM                    int     `yaml:"hnsw_m"`
	HNSWEFConstruct          int     `yaml:"hnsw_ef_construction"`
	IndexBatchSize           int     `yaml:"index_batch_size"`
}

// ConversationConfig tunes state retention and follow-up detection.
type ConversationConfig struct {
	IdleTTL         string `yaml:"idle_ttl"`
	SweepInterval   string `yaml:"sweep_interval"`
	FollowUpWindow  string `yaml:"follow_up_window"`
	ProductCacheTTL string `yaml:"product_cache_ttl"`
	ContextCacheTTL string `yaml:"context_cache_ttl"`
	HistoryWindow   int    `yaml:"history_window"`
}

// durations lists the duration fields checked by Validate.
func (c ConversationConfig) durations() map[string]string {
	return map[string]string{
		"idle_ttl":          c.IdleTTL,
		"sweep_interval":    c.SweepInterval,
		"follow_up_window":  c.FollowUpWindow,
		"product_cache_ttl": c.ProductCacheTTL,
		"context_cache_ttl": c.ContextCacheTTL,
	}
}

// Duration parses a validated duration field; invalid input yields zero.
func Duration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
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

// Parse expands env variables in data, decodes it, applies defaults and validates.
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.CacheSize <= 0 {
		c.Database.CacheSize = 10000
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.CacheTTL == "" {
		c.Embedding.CacheTTL = "168h"
	}

	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/catalog.db"
	}
	if c.Catalog.ScanLimit <= 0 {
		c.Catalog.ScanLimit = 150
	}
	if c.Catalog.HistoryLimit <= 0 {
		c.Catalog.HistoryLimit = 50
	}

	s := &c.Search
	if s.TopResults <= 0 {
		s.TopResults = 5
	}
	if s.Collection == "" {
		s.Collection = "products"
	}
	if s.NeighborMultiplier <= 0 {
		s.NeighborMultiplier = 5
	}
	if s.StockFilterConfidence <= 0 {
		s.StockFilterConfidence = 70
	}
	if s.CategoryFilterConfidence <= 0 {
		s.CategoryFilterConfidence = 80
	}
	if s.MinDirectoryScore <= 0 {
		s.MinDirectoryScore = 0.1
	}
	if s.NumericTolerance <= 0 {
		s.NumericTolerance = 0.10
	}
	if s.HNSWM <= 0 {
		s.HNSWM = 16
	}
	if s.HNSWEFConstruct <= 0 {
		s.HNSWEFConstruct = 200
	}
	if s.IndexBatchSize <= 0 {
		s.IndexBatchSize = 64
	}

	conv := &c.Conversation
	if conv.IdleTTL == "" {
		conv.IdleTTL = "30m"
	}
	if conv.SweepInterval == "" {
		conv.SweepInterval = "1h"
	}
	if conv.FollowUpWindow == "" {
		conv.FollowUpWindow = "5m"
	}
	if conv.ProductCacheTTL == "" {
		conv.ProductCacheTTL = "10m"
	}
	if conv.ContextCacheTTL == "" {
		conv.ContextCacheTTL = "30m"
	}
	if conv.HistoryWindow <= 0 {
		conv.HistoryWindow = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", DriverRedis)
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Database.Driver)
	}

	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if d, err := time.ParseDuration(c.Embedding.CacheTTL); err != nil || d <= 0 {
		return fmt.Errorf("embedding.cache_ttl must be a positive duration, got %q", c.Embedding.CacheTTL)
	}

	if c.Search.StockFilterConfidence > 100 || c.Search.CategoryFilterConfidence > 100 {
		return fmt.Errorf("search filter confidences must be within 0..100")
	}
	if c.Search.NumericTolerance >= 1 {
		return fmt.Errorf("search.numeric_tolerance must be below 1, got %g", c.Search.NumericTolerance)
	}

	for name, v := range c.Conversation.durations() {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("conversation.%s must be a positive duration, got %q", name, v)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
