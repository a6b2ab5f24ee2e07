// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like PROVIDER_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations so binaries and tests can run
// from any directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in yaml values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Provider.APIKey == "" {
		if val := os.Getenv("PROVIDER_API_KEY"); val != "" {
			cfg.Provider.APIKey = val
		}
	}
	if cfg.Provider.BaseURL == "" {
		if val := os.Getenv("PROVIDER_BASE_URL"); val != "" {
			cfg.Provider.BaseURL = val
		}
	}
	if cfg.Provider.DatafileID == "" {
		if val := os.Getenv("PROVIDER_DATAFILE_ID"); val != "" {
			cfg.Provider.DatafileID = val
		}
	}

	if cfg.Database.SQLite.Path == "" {
		if val := os.Getenv("SQLITE_PATH"); val != "" {
			cfg.Database.SQLite.Path = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "citypulse"
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	// Database defaults
	if cfg.Database.SQLite.QueryTimeout == 0 {
		cfg.Database.SQLite.QueryTimeout = 15000
	}
	if cfg.Database.SQLite.MaxOpenConns == 0 {
		cfg.Database.SQLite.MaxOpenConns = 4
	}

	// Provider defaults
	if cfg.Provider.Mode == "" {
		cfg.Provider.Mode = ModePlayground
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 60000
	}

	// Pipeline defaults
	if cfg.Pipeline.MaxRows == 0 {
		cfg.Pipeline.MaxRows = 500
	}
	if cfg.Pipeline.MaxMarkers == 0 {
		cfg.Pipeline.MaxMarkers = 50
	}
	if cfg.Pipeline.TopN == 0 {
		cfg.Pipeline.TopN = 5
	}
	if cfg.Pipeline.RawRowCap == 0 {
		cfg.Pipeline.RawRowCap = 20
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// Provider modes accepted by validateConfig and the switch-mode endpoint.
const (
	ModePlayground = "playground"
	ModeDirect     = "direct"
)

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.SQLite.Path == "" {
		return fmt.Errorf("database.sqlite.path is required")
	}

	if cfg.Provider.Mode != ModePlayground && cfg.Provider.Mode != ModeDirect {
		return fmt.Errorf("provider.mode must be %q or %q, got %q", ModePlayground, ModeDirect, cfg.Provider.Mode)
	}

	if cfg.Provider.Mode == ModeDirect && cfg.Provider.BaseURL != "" && cfg.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required when provider.mode is %q", ModeDirect)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
