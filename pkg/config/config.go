package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Storage configuration
	Storage StorageConfig

	// Concurrency configuration
	Concurrency ConcurrencyConfig

	// Audit configuration
	Audit AuditConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// StorageConfig locates the RBAC data files
type StorageConfig struct {
	Dir             string
	ItemsFile       string
	AssignmentsFile string
	RulesFile       string
}

// ConcurrencyConfig controls cross-process consistency handling
type ConcurrencyConfig struct {
	// Enabled arms the reload guard on the item and assignment stores
	Enabled bool

	// Watch starts a filesystem watcher that logs external writes
	Watch bool

	// ClosureCacheSize bounds the per-store traversal cache; zero
	// disables it
	ClosureCacheSize int
	ClosureCacheTTL  time.Duration
}

// AuditConfig controls the mutation trail
type AuditConfig struct {
	Enabled  bool
	Dir      string
	Rotate   bool
	MaxSize  int64
	MaxFiles int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Storage:       loadStorageConfig(),
		Concurrency:   loadConcurrencyConfig(),
		Audit:         loadAuditConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Dir:             getEnv("ROLEVAULT_DIR", "./rbac"),
		ItemsFile:       getEnv("ROLEVAULT_ITEMS_FILE", "items.yml"),
		AssignmentsFile: getEnv("ROLEVAULT_ASSIGNMENTS_FILE", "assignments.yml"),
		RulesFile:       getEnv("ROLEVAULT_RULES_FILE", "rules.yml"),
	}
}

// loadConcurrencyConfig loads concurrency configuration from environment
func loadConcurrencyConfig() ConcurrencyConfig {
	return ConcurrencyConfig{
		Enabled:          getEnvBool("ROLEVAULT_CONCURRENT", false),
		Watch:            getEnvBool("ROLEVAULT_WATCH", false),
		ClosureCacheSize: getEnvInt("ROLEVAULT_CLOSURE_CACHE_SIZE", 128),
		ClosureCacheTTL:  getEnvDuration("ROLEVAULT_CLOSURE_CACHE_TTL", 30*time.Second),
	}
}

// loadAuditConfig loads audit configuration from environment
func loadAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:  getEnvBool("ROLEVAULT_AUDIT_ENABLED", false),
		Dir:      getEnv("ROLEVAULT_AUDIT_DIR", "./rbac/audit"),
		Rotate:   getEnvBool("ROLEVAULT_AUDIT_ROTATE", true),
		MaxSize:  getEnvInt64("ROLEVAULT_AUDIT_MAX_SIZE", 10*1024*1024),
		MaxFiles: getEnvInt("ROLEVAULT_AUDIT_MAX_FILES", 5),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       getEnv("ROLEVAULT_LOG_LEVEL", "info"),
		MetricsEnabled: getEnvBool("ROLEVAULT_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Storage.Dir == "" {
		return fmt.Errorf("storage directory is required")
	}
	if c.Storage.ItemsFile == "" || c.Storage.AssignmentsFile == "" || c.Storage.RulesFile == "" {
		return fmt.Errorf("storage file names must not be empty")
	}

	names := map[string]bool{}
	for _, name := range []string{c.Storage.ItemsFile, c.Storage.AssignmentsFile, c.Storage.RulesFile} {
		if names[name] {
			return fmt.Errorf("storage file names must be distinct, %q repeats", name)
		}
		names[name] = true
	}

	if c.Concurrency.ClosureCacheSize < 0 {
		return fmt.Errorf("closure cache size must not be negative")
	}
	if c.Audit.Enabled && c.Audit.Dir == "" {
		return fmt.Errorf("audit directory is required when audit is enabled")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
