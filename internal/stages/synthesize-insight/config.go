// internal/stages/synthesize-insight/config.go
package synthesizeinsight

type Config struct {
}

func LoadConfig() *Config {
	return &Config{}
}
