// internal/stages/execute-query/config.go
package executequery

import "time"

type Config struct {
	MaxRows      int
	QueryTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxRows:      500,
		QueryTimeout: 15 * time.Second,
	}
}
