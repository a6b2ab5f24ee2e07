// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Provider ProviderConfig `mapstructure:"provider"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

type SQLiteConfig struct {
	Path         string `mapstructure:"path"`
	QueryTimeout int    `mapstructure:"query_timeout"` // milliseconds
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// GetDSN returns the SQLite connection string. The service only ever reads,
// so the database opens in read-only mode.
func (s SQLiteConfig) GetDSN() string {
	return fmt.Sprintf("file:%s?mode=ro", s.Path)
}

// ProviderConfig holds settings for the external NL-to-SQL provider.
type ProviderConfig struct {
	Mode       string `mapstructure:"mode"` // "playground" or "direct"
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	DatafileID string `mapstructure:"datafile_id"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
}

// Enabled reports whether a remote provider is configured at all. Without a
// base URL the pipeline goes straight to local SQL templates.
func (p ProviderConfig) Enabled() bool {
	return p.BaseURL != ""
}

// PipelineConfig holds tuning knobs for the analysis pipeline stages.
type PipelineConfig struct {
	MaxRows    int `mapstructure:"max_rows"`
	MaxMarkers int `mapstructure:"max_markers"`
	TopN       int `mapstructure:"top_n"`
	RawRowCap  int `mapstructure:"raw_row_cap"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
