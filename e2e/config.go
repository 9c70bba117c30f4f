package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SERVER_ADDR points at a running core, e.g. http://localhost:8080.
	// Leaving it empty skips the suite.
	ServerAddr string `envconfig:"SERVER_ADDR"`
	JWTSecret  string `envconfig:"JWT_SECRET" default:"secret"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
