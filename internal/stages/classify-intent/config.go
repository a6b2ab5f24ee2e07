// internal/stages/classify-intent/config.go
package classifyintent

type Config struct {
}

func LoadConfig() *Config {
	return &Config{}
}
