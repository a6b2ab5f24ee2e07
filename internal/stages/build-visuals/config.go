// internal/stages/build-visuals/config.go
package buildvisuals

type Config struct {
	MaxMarkers int
	TopN       int
}

func LoadConfig() *Config {
	return &Config{
		MaxMarkers: 50,
		TopN:       5,
	}
}
