package functions

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config controls which built-in functions are callable.
//
// Configuration can be loaded from:
//   - Environment variables (recommended for Docker/K8s)
//   - YAML configuration file
//   - Programmatic defaults
//
// Environment Variables:
//
//	NORNICEXPR_FUNCTIONS_MATH_ENABLED        - Enable math functions (default: true)
//	NORNICEXPR_FUNCTIONS_STRING_ENABLED      - Enable string functions (default: true)
//	NORNICEXPR_FUNCTIONS_REGEX_ENABLED       - Enable regex functions (default: true)
//	NORNICEXPR_FUNCTIONS_DATETIME_ENABLED    - Enable date/time functions (default: true)
//	NORNICEXPR_FUNCTIONS_GRAPH_ENABLED       - Enable graph accessors (default: true)
//	NORNICEXPR_FUNCTIONS_CONVERSION_ENABLED  - Enable to_* conversions (default: true)
//	NORNICEXPR_FUNCTIONS_CONTAINER_ENABLED   - Enable list/map helpers (default: true)
//	NORNICEXPR_FUNCTIONS_HASH_ENABLED        - Enable hash/uuid functions (default: true)
//	NORNICEXPR_FUNCTIONS_MAX_COLLECTION_SIZE - Largest list range() may build (default: 100000)
//
// Example:
//
//	cfg := functions.LoadFromEnv()
//	cfg.Functions["rand"] = false // keep evaluation deterministic
//	reg := functions.NewRegistry(cfg)
type Config struct {
	// Categories controls entire function categories.
	// Keys: math, string, regex, datetime, graph, conversion, container, hash
	Categories map[string]bool `yaml:"categories"`

	// Functions controls specific functions (overrides category settings).
	// Supports trailing wildcards: "regex_*": false
	Functions map[string]bool `yaml:"functions"`

	// Limits bounds what a single call may allocate.
	Limits LimitsConfig `yaml:"limits"`
}

// LimitsConfig contains allocation limits for built-ins.
type LimitsConfig struct {
	// MaxCollectionSize caps the length of lists built by range() and split().
	MaxCollectionSize int `yaml:"max_collection_size"`
}

// DefaultMaxCollectionSize is the default LimitsConfig.MaxCollectionSize.
const DefaultMaxCollectionSize = 100000

// DefaultConfig returns a configuration with all functions enabled.
func DefaultConfig() *Config {
	cats := make(map[string]bool, len(AllCategories))
	for _, c := range AllCategories {
		cats[string(c)] = true
	}
	return &Config{
		Categories: cats,
		Functions:  make(map[string]bool),
		Limits:     LimitsConfig{MaxCollectionSize: DefaultMaxCollectionSize},
	}
}

// LoadFromEnv loads function configuration from environment variables.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	applyEnv(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	for _, cat := range AllCategories {
		envKey := "NORNICEXPR_FUNCTIONS_" + strings.ToUpper(string(cat)) + "_ENABLED"
		if val := os.Getenv(envKey); val != "" {
			cfg.Categories[string(cat)] = parseBool(val, cfg.IsCategoryEnabled(cat))
		}
	}
	if val := os.Getenv("NORNICEXPR_FUNCTIONS_MAX_COLLECTION_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			cfg.Limits.MaxCollectionSize = size
		}
	}
}

// parseBool parses a boolean from string with a default value.
func parseBool(s string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultVal
	}
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML enablement document. Categories missing from
// the document stay enabled.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse function config: %w", err)
	}
	if cfg.Categories == nil {
		cfg.Categories = make(map[string]bool)
	}
	if cfg.Functions == nil {
		cfg.Functions = make(map[string]bool)
	}
	for name, enabled := range cfg.Functions {
		lower := strings.ToLower(name)
		if lower != name {
			delete(cfg.Functions, name)
			cfg.Functions[lower] = enabled
		}
	}
	if cfg.Limits.MaxCollectionSize <= 0 {
		cfg.Limits.MaxCollectionSize = DefaultMaxCollectionSize
	}
	return cfg, nil
}

// LoadConfigOrDefault loads config from file, or returns default if the
// file cannot be read.
func LoadConfigOrDefault(path string) *Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// LoadFromEnvOrFile loads the file (or defaults) and then applies
// environment overrides. Environment variables take precedence.
func LoadFromEnvOrFile(filePath string) *Config {
	cfg := DefaultConfig()
	if filePath != "" {
		cfg = LoadConfigOrDefault(filePath)
	}
	applyEnv(cfg)
	return cfg
}

// IsEnabled reports whether the named function in category may be called.
//
// Resolution order: exact function override, the longest matching wildcard
// pattern, the category switch, then enabled.
func (c *Config) IsEnabled(name string, category Category) bool {
	if c == nil {
		return true
	}
	name = strings.ToLower(name)
	if enabled, ok := c.Functions[name]; ok {
		return enabled
	}

	patterns := make([]string, 0, len(c.Functions))
	for pattern := range c.Functions {
		if strings.HasSuffix(pattern, "*") {
			patterns = append(patterns, pattern)
		}
	}
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}
		return patterns[i] < patterns[j]
	})
	for _, pattern := range patterns {
		if matchesPattern(name, pattern) {
			return c.Functions[pattern]
		}
	}

	return c.IsCategoryEnabled(category)
}

// IsCategoryEnabled checks if a category is enabled.
func (c *Config) IsCategoryEnabled(category Category) bool {
	if c == nil {
		return true
	}
	if enabled, ok := c.Categories[string(category)]; ok {
		return enabled
	}
	return true
}

// MaxCollectionSize returns the configured limit or the default.
func (c *Config) MaxCollectionSize() int {
	if c == nil || c.Limits.MaxCollectionSize <= 0 {
		return DefaultMaxCollectionSize
	}
	return c.Limits.MaxCollectionSize
}

// matchesPattern checks if a function name matches a wildcard pattern.
// Example: "regex_match" matches "regex_*"
func matchesPattern(name, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return name == pattern
	}
	return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
}

// ExampleConfigYAML is a documented enablement file.
const ExampleConfigYAML = `# Function configuration for nornicexpr
# Controls which built-in functions expressions may call

# Enable/disable entire categories
categories:
  math: true        # abs, round, sqrt, pow, trig ...
  string: true      # lower, upper, substring, split ...
  regex: true       # regex_match, regex_replace, regex_find
  datetime: true    # date, time, datetime, duration, now ...
  graph: true       # id, tags, properties, src, dst ...
  conversion: true  # to_int, to_string, toset ...
  container: true   # size, head, last, range, coalesce ...
  hash: false       # hash, sha3_256, blake2b_256, uuid

# Enable/disable specific functions (overrides category settings)
functions:
  # Non-deterministic functions
  rand: false
  now: false

  # Re-enable one hash function inside the disabled category
  hash: true

# Allocation limits
limits:
  max_collection_size: 10000
`
