package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("SHOPLENS_SERVER_PORT")
		os.Unsetenv("SHOPLENS_SERVER_ENVIRONMENT")
		os.Unsetenv("SHOPLENS_SERVER_ALLOWED_ORIGINS")
		os.Unsetenv("SHOPLENS_SCORING_BASE_URL")
		os.Unsetenv("SHOPLENS_SCORING_API_KEY")
		os.Unsetenv("SHOPLENS_SCORING_TIMEOUT")
		os.Unsetenv("SHOPLENS_STORAGE_DRIVER")
		os.Unsetenv("SHOPLENS_STORAGE_PATH")
		os.Unsetenv("SHOPLENS_SESSION_TTL")
		os.Unsetenv("SHOPLENS_ANALYZER_SETTLE_DELAY")
		os.Unsetenv("SHOPLENS_ANALYZER_SCAN_DEADLINE")
		os.Unsetenv("SHOPLENS_ANALYZER_CACHE_TTL")
		os.Unsetenv("SHOPLENS_THRESHOLDS_SITE_MATCH")
		os.Unsetenv("SHOPLENS_THRESHOLDS_RANKING_FILTER")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "chrome-extension://*" {
			t.Errorf("Server.AllowedOrigins = %v, want [chrome-extension://*]", cfg.Server.AllowedOrigins)
		}
		if cfg.Scoring.BaseURL != "http://localhost:8090" {
			t.Errorf("Scoring.BaseURL = %s, want http://localhost:8090", cfg.Scoring.BaseURL)
		}
		if cfg.Scoring.Timeout != 30*time.Second {
			t.Errorf("Scoring.Timeout = %v, want 30s", cfg.Scoring.Timeout)
		}
		if cfg.Storage.Driver != "sqlite" {
			t.Errorf("Storage.Driver = %s, want sqlite", cfg.Storage.Driver)
		}
		if cfg.Session.TTL != 24*time.Hour {
			t.Errorf("Session.TTL = %v, want 24h", cfg.Session.TTL)
		}
		if cfg.Analyzer.SettleDelay != time.Second {
			t.Errorf("Analyzer.SettleDelay = %v, want 1s", cfg.Analyzer.SettleDelay)
		}
		if cfg.Analyzer.ScanDeadline != 3*time.Second {
			t.Errorf("Analyzer.ScanDeadline = %v, want 3s", cfg.Analyzer.ScanDeadline)
		}
		if cfg.Analyzer.CacheTTL != 2*time.Second {
			t.Errorf("Analyzer.CacheTTL = %v, want 2s", cfg.Analyzer.CacheTTL)
		}
		if cfg.Thresholds.SiteMatch != 50 {
			t.Errorf("Thresholds.SiteMatch = %d, want 50", cfg.Thresholds.SiteMatch)
		}
		if cfg.Thresholds.RankingFilter != 50 {
			t.Errorf("Thresholds.RankingFilter = %d, want 50", cfg.Thresholds.RankingFilter)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHOPLENS_SERVER_PORT", "9090")
		os.Setenv("SHOPLENS_SERVER_ENVIRONMENT", "production")
		os.Setenv("SHOPLENS_SCORING_BASE_URL", "https://scoring.example.com")
		os.Setenv("SHOPLENS_SCORING_API_KEY", "custom-api-key")
		os.Setenv("SHOPLENS_SCORING_TIMEOUT", "10s")
		os.Setenv("SHOPLENS_STORAGE_DRIVER", "memory")
		os.Setenv("SHOPLENS_SESSION_TTL", "12h")
		os.Setenv("SHOPLENS_ANALYZER_SCAN_DEADLINE", "5s")
		os.Setenv("SHOPLENS_THRESHOLDS_SITE_MATCH", "60")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Scoring.BaseURL != "https://scoring.example.com" {
			t.Errorf("Scoring.BaseURL = %s, want https://scoring.example.com", cfg.Scoring.BaseURL)
		}
		if cfg.Scoring.APIKey != "custom-api-key" {
			t.Errorf("Scoring.APIKey = %s, want custom-api-key", cfg.Scoring.APIKey)
		}
		if cfg.Scoring.Timeout != 10*time.Second {
			t.Errorf("Scoring.Timeout = %v, want 10s", cfg.Scoring.Timeout)
		}
		if cfg.Storage.Driver != "memory" {
			t.Errorf("Storage.Driver = %s, want memory", cfg.Storage.Driver)
		}
		if cfg.Session.TTL != 12*time.Hour {
			t.Errorf("Session.TTL = %v, want 12h", cfg.Session.TTL)
		}
		if cfg.Analyzer.ScanDeadline != 5*time.Second {
			t.Errorf("Analyzer.ScanDeadline = %v, want 5s", cfg.Analyzer.ScanDeadline)
		}
		if cfg.Thresholds.SiteMatch != 60 {
			t.Errorf("Thresholds.SiteMatch = %d, want 60", cfg.Thresholds.SiteMatch)
		}
	})

	t.Run("fails validation for invalid storage driver", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHOPLENS_STORAGE_DRIVER", "postgres")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid storage driver")
		}
	})

	t.Run("fails validation for out-of-range threshold", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHOPLENS_THRESHOLDS_SITE_MATCH", "150")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for threshold above 100")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_VAR_3") != "value3" {
			t.Errorf("TEST_VAR_3 = %s, want value3", os.Getenv("TEST_VAR_3"))
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
	})

	t.Run("skips empty lines and comments", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		envContent := `
# This is a comment
   # This is also a comment

TEST_SKIP_1=value1

TEST_SKIP_2=value2
# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_SKIP_1")
		os.Unsetenv("TEST_SKIP_2")
		os.Unsetenv("TEST_COMMENTED")

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_SKIP_1") != "value1" {
			t.Errorf("TEST_SKIP_1 not loaded correctly")
		}
		if os.Getenv("TEST_SKIP_2") != "value2" {
			t.Errorf("TEST_SKIP_2 not loaded correctly")
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}

		os.Unsetenv("TEST_SKIP_1")
		os.Unsetenv("TEST_SKIP_2")
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		os.Setenv("TEST_OVERRIDE", "existing-value")

		envContent := "TEST_OVERRIDE=new-value"
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}

		os.Unsetenv("TEST_OVERRIDE")
	})
}

func TestValidate(t *testing.T) {
	validConfig := func() *Config {
		return &Config{
			Scoring: ScoringConfig{
				BaseURL: "http://localhost:8090",
			},
			Storage: StorageConfig{
				Driver: "sqlite",
				Path:   "shoplens.db",
			},
			Thresholds: ThresholdConfig{
				SiteMatch:     50,
				RankingFilter: 50,
			},
		}
	}

	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(validConfig()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails when scoring base URL is empty", func(t *testing.T) {
		cfg := validConfig()
		cfg.Scoring.BaseURL = ""

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for empty scoring base URL")
		}
	})

	t.Run("fails for invalid storage driver", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Driver = "redis"

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for invalid storage driver")
		}
	})

	t.Run("validates memory driver without a path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Driver = "memory"
		cfg.Storage.Path = ""

		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for memory driver", err)
		}
	})

	t.Run("fails for sqlite driver without a path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.Path = ""

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for sqlite without path")
		}
	})

	t.Run("fails for threshold outside 1-100", func(t *testing.T) {
		for _, value := range []int{0, -5, 101, 150} {
			cfg := validConfig()
			cfg.Thresholds.RankingFilter = value

			if err := validate(cfg); err == nil {
				t.Errorf("validate() error = nil, want error for threshold %d", value)
			}
		}
	})
}
