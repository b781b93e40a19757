// Package config loads nornicexpr configuration from a YAML file and
// environment variables.
//
// Settings are resolved in three layers, later layers winning:
//  1. Built-in defaults (DefaultConfig)
//  2. A YAML file (LoadFile)
//  3. NORNICEXPR_* environment variables (LoadFromEnv, Load)
//
// Example Usage:
//
//	cfg, err := config.Load("nornicexpr.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//	closer, err := cfg.Logging.Apply()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer closer.Close()
//
// Environment Variables:
//   - NORNICEXPR_CACHE_SIZE=1024
//   - NORNICEXPR_CACHE_TTL=5m
//   - NORNICEXPR_CACHE_ENABLED=true
//   - NORNICEXPR_FUNCTIONS_CONFIG="./functions.yaml"
//   - NORNICEXPR_FUNCTIONS_DISABLED="regex,hash"
//   - NORNICEXPR_STORAGE_ENGINE="memory" or "badger"
//   - NORNICEXPR_STORAGE_DATA_DIR="./data"
//   - NORNICEXPR_STORAGE_IN_MEMORY=false
//   - NORNICEXPR_STORAGE_SYNC_WRITES=false
//   - NORNICEXPR_STORAGE_LOW_MEMORY=false
//   - NORNICEXPR_LOG_LEVEL="info"
//   - NORNICEXPR_LOG_FORMAT="text" or "json"
//   - NORNICEXPR_LOG_OUTPUT="stderr", "stdout" or a file path
//   - NORNICEXPR_MEMORY_LIMIT="2GB"
//   - NORNICEXPR_GC_PERCENT=100
//   - NORNICEXPR_POOLING=true
//
// The per-category NORNICEXPR_FUNCTIONS_<CATEGORY>_ENABLED switches are read
// by the functions package itself.
package config

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/nornicexpr/pkg/cache"
	"github.com/orneryd/nornicexpr/pkg/functions"
	"github.com/orneryd/nornicexpr/pkg/pool"
)

// Storage engine names.
const (
	EngineMemory = "memory"
	EngineBadger = "badger"
)

// Config holds all nornicexpr configuration.
//
// Sections:
//   - Cache: the regex and temporal literal cache shared by contexts
//   - Functions: which built-ins are callable
//   - Storage: where graph data for evaluation lives
//   - Logging: logrus level, format and output
//   - Runtime: Go runtime memory settings
type Config struct {
	Cache     CacheConfig     `yaml:"cache"`
	Functions FunctionsConfig `yaml:"functions"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
}

// CacheConfig sizes the literal cache.
type CacheConfig struct {
	// Enabled turns caching on. A disabled cache recompiles every literal.
	Enabled bool `yaml:"enabled"`
	// Size is the maximum number of cached literals.
	Size int `yaml:"size"`
	// TTL expires entries; zero keeps them until evicted.
	TTL time.Duration `yaml:"ttl"`
}

// FunctionsConfig selects the built-in function set.
type FunctionsConfig struct {
	// ConfigFile is an optional function enablement YAML document.
	ConfigFile string `yaml:"config_file"`
	// Disabled lists categories switched off on top of ConfigFile.
	Disabled []string `yaml:"disabled"`
}

// StorageConfig selects and configures the graph engine.
type StorageConfig struct {
	// Engine is "memory" or "badger".
	Engine string `yaml:"engine"`
	// DataDir is the Badger data directory.
	DataDir string `yaml:"data_dir"`
	// InMemory runs Badger without touching disk.
	InMemory bool `yaml:"in_memory"`
	// SyncWrites fsyncs every Badger write.
	SyncWrites bool `yaml:"sync_writes"`
	// LowMemory shrinks Badger's memtables and caches.
	LowMemory bool `yaml:"low_memory"`
}

// RuntimeConfig holds Go runtime memory settings.
type RuntimeConfig struct {
	// MemoryLimit is a soft heap limit such as "2GB"; "0" or "unlimited"
	// leaves the runtime default.
	MemoryLimit string `yaml:"memory_limit"`
	// GCPercent is passed to debug.SetGCPercent when it differs from 100.
	GCPercent int `yaml:"gc_percent"`
	// Pooling reuses value encoding buffers.
	Pooling bool `yaml:"pooling"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{Enabled: true, Size: 1024},
		Storage: StorageConfig{
			Engine:  EngineMemory,
			DataDir: "./data",
		},
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "stderr"},
		Runtime: RuntimeConfig{MemoryLimit: "0", GCPercent: 100, Pooling: true},
	}
}

// LoadFromEnv returns the defaults overridden by environment variables.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML configuration file on top of the defaults.
// Environment variables are not consulted.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Load reads path (when non-empty) and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Cache.Enabled = getEnvBool("NORNICEXPR_CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.Size = getEnvInt("NORNICEXPR_CACHE_SIZE", c.Cache.Size)
	c.Cache.TTL = getEnvDuration("NORNICEXPR_CACHE_TTL", c.Cache.TTL)

	c.Functions.ConfigFile = getEnv("NORNICEXPR_FUNCTIONS_CONFIG", c.Functions.ConfigFile)
	c.Functions.Disabled = getEnvStringSlice("NORNICEXPR_FUNCTIONS_DISABLED", c.Functions.Disabled)

	c.Storage.Engine = getEnv("NORNICEXPR_STORAGE_ENGINE", c.Storage.Engine)
	c.Storage.DataDir = getEnv("NORNICEXPR_STORAGE_DATA_DIR", c.Storage.DataDir)
	c.Storage.InMemory = getEnvBool("NORNICEXPR_STORAGE_IN_MEMORY", c.Storage.InMemory)
	c.Storage.SyncWrites = getEnvBool("NORNICEXPR_STORAGE_SYNC_WRITES", c.Storage.SyncWrites)
	c.Storage.LowMemory = getEnvBool("NORNICEXPR_STORAGE_LOW_MEMORY", c.Storage.LowMemory)

	c.Logging.Level = getEnv("NORNICEXPR_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("NORNICEXPR_LOG_FORMAT", c.Logging.Format)
	c.Logging.Output = getEnv("NORNICEXPR_LOG_OUTPUT", c.Logging.Output)

	c.Runtime.MemoryLimit = getEnv("NORNICEXPR_MEMORY_LIMIT", c.Runtime.MemoryLimit)
	c.Runtime.GCPercent = getEnvInt("NORNICEXPR_GC_PERCENT", c.Runtime.GCPercent)
	c.Runtime.Pooling = getEnvBool("NORNICEXPR_POOLING", c.Runtime.Pooling)
}

// Validate checks the configuration for errors.
//
// Returns nil if configuration is valid, or an error describing the first
// problem found.
func (c *Config) Validate() error {
	if c.Cache.Size <= 0 {
		return fmt.Errorf("invalid cache size: %d", c.Cache.Size)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("invalid cache ttl: %s", c.Cache.TTL)
	}

	known := make(map[string]bool, len(functions.AllCategories))
	for _, cat := range functions.AllCategories {
		known[string(cat)] = true
	}
	for _, cat := range c.Functions.Disabled {
		if !known[strings.ToLower(cat)] {
			return fmt.Errorf("unknown function category: %q", cat)
		}
	}

	switch c.Storage.Engine {
	case EngineMemory:
	case EngineBadger:
		if c.Storage.DataDir == "" && !c.Storage.InMemory {
			return fmt.Errorf("badger engine needs a data dir or in_memory")
		}
	default:
		return fmt.Errorf("unknown storage engine: %q", c.Storage.Engine)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Logging.Format)
	}

	if _, err := parseMemorySize(c.Runtime.MemoryLimit); err != nil {
		return err
	}
	return nil
}

// String returns a one-line summary suitable for logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Cache: %v/%d/%s, Storage: %s:%s, Disabled: %v, Log: %s/%s}",
		c.Cache.Enabled, c.Cache.Size, c.Cache.TTL,
		c.Storage.Engine, c.Storage.DataDir,
		c.Functions.Disabled,
		c.Logging.Level, c.Logging.Format,
	)
}

// FunctionConfig builds the function enablement configuration: the
// ConfigFile (or defaults), NORNICEXPR_FUNCTIONS_* switches, then Disabled.
func (c *Config) FunctionConfig() *functions.Config {
	fc := functions.LoadFromEnvOrFile(c.Functions.ConfigFile)
	for _, cat := range c.Functions.Disabled {
		fc.Categories[strings.ToLower(cat)] = false
	}
	return fc
}

// NewCache builds the literal cache described by c.
func (c CacheConfig) NewCache() *cache.LiteralCache {
	lc := cache.NewLiteralCache(c.Size, c.TTL)
	lc.SetEnabled(c.Enabled)
	return lc
}

// ApplyRuntime applies the runtime memory settings to the Go runtime and
// the buffer pool. Should be called early in main() before heavy
// allocations.
func (r RuntimeConfig) ApplyRuntime() error {
	limit, err := parseMemorySize(r.MemoryLimit)
	if err != nil {
		return err
	}
	pc := pool.DefaultConfig()
	pc.Enabled = r.Pooling
	pool.Configure(pc)
	if limit > 0 {
		debug.SetMemoryLimit(limit)
	}
	if r.GCPercent != 100 && r.GCPercent != 0 {
		debug.SetGCPercent(r.GCPercent)
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		// Try parsing as seconds
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}

func getEnvStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultVal
}

// parseMemorySize parses a human-readable memory size string.
// Supports: "1024", "1KB", "1MB", "1GB", "1TB", "0", "unlimited"
func parseMemorySize(s string) (int64, error) {
	orig := s
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" || s == "0" || s == "UNLIMITED" {
		return 0, nil
	}

	s = strings.TrimSuffix(s, "B")

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1 << 10
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1 << 20
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1 << 30
		s = strings.TrimSuffix(s, "G")
	case strings.HasSuffix(s, "T"):
		multiplier = 1 << 40
		s = strings.TrimSuffix(s, "T")
	}

	val, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid memory size: %q", orig)
	}
	return val * multiplier, nil
}

// FormatMemorySize formats bytes as human-readable string.
func FormatMemorySize(bytes int64) string {
	const (
		KB = 1 << 10
		MB = 1 << 20
		GB = 1 << 30
		TB = 1 << 40
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
