// internal/stages/compute-metrics/config.go
package computemetrics

type Config struct {
}

func LoadConfig() *Config {
	return &Config{}
}
