package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Scoring    ScoringConfig
	Storage    StorageConfig
	Session    SessionConfig
	Analyzer   AnalyzerConfig
	Thresholds ThresholdConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ScoringConfig holds scoring collaborator configuration. The base URL can
// be overridden at runtime through the persisted api_base_url setting.
type ScoringConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// StorageConfig holds durable store configuration
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // "memory" or "sqlite"
	Path   string `mapstructure:"path"`   // database file, sqlite only
}

// SessionConfig holds session context configuration
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// AnalyzerConfig holds page analyzer timing configuration
type AnalyzerConfig struct {
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	ScanDeadline time.Duration `mapstructure:"scan_deadline"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"` // scrape cache lifetime
}

// ThresholdConfig holds the two 0-100 score cutoffs. They default to the
// same value so the client and the scoring service agree on "relevant".
type ThresholdConfig struct {
	SiteMatch     int `mapstructure:"site_match"`
	RankingFilter int `mapstructure:"ranking_filter"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Pick up a local .env first so its values are visible below
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shoplens/")

	// Environment variable settings
	v.SetEnvPrefix("SHOPLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// Scoring defaults
	v.SetDefault("scoring.base_url", "http://localhost:8090")
	v.SetDefault("scoring.timeout", "30s")
	v.SetDefault("scoring.requests_per_second", 2.0)

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "shoplens.db")

	// Session defaults
	v.SetDefault("session.ttl", "24h")

	// Analyzer defaults
	v.SetDefault("analyzer.settle_delay", "1s")
	v.SetDefault("analyzer.scan_deadline", "3s")
	v.SetDefault("analyzer.cache_ttl", "2s")

	// Threshold defaults, kept equal end-to-end
	v.SetDefault("thresholds.site_match", 50)
	v.SetDefault("thresholds.ranking_filter", 50)
}

// loadEnvFile loads KEY=VALUE pairs from a .env file in the working
// directory into the process environment. Variables already set win; a
// missing file is not an error.
func loadEnvFile() error {
	data, err := os.ReadFile(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		os.Setenv(key, strings.TrimSpace(value))
	}

	return nil
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Scoring.BaseURL == "" {
		return fmt.Errorf("scoring base URL is required (set SHOPLENS_SCORING_BASE_URL)")
	}

	if config.Storage.Driver != "memory" && config.Storage.Driver != "sqlite" {
		return fmt.Errorf("storage driver must be 'memory' or 'sqlite', got: %s", config.Storage.Driver)
	}

	if config.Storage.Driver == "sqlite" && config.Storage.Path == "" {
		return fmt.Errorf("storage path is required when storage driver is 'sqlite'")
	}

	if config.Thresholds.SiteMatch < 1 || config.Thresholds.SiteMatch > 100 {
		return fmt.Errorf("site match threshold must be between 1 and 100, got: %d", config.Thresholds.SiteMatch)
	}

	if config.Thresholds.RankingFilter < 1 || config.Thresholds.RankingFilter > 100 {
		return fmt.Errorf("ranking filter threshold must be between 1 and 100, got: %d", config.Thresholds.RankingFilter)
	}

	return nil
}
