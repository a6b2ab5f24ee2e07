// internal/stages/generate-sql/config.go
package generatesql

import "time"

type Config struct {
	Mode       string
	BaseURL    string
	APIKey     string
	DatafileID string
	Timeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Mode:    "playground",
		Timeout: 60 * time.Second,
	}
}
