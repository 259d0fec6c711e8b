// Package config loads the eventuate-server's own settings, layered on
// top of the shared eventuate.Config.
package config

import (
	"github.com/caarlos0/env/v11"
)

// Config holds eventuate-server's HTTP-layer settings.
type Config struct {
	HTTPAddr string `env:"EVENTUATE_HTTP_ADDR" envDefault:":8080"`
}

// Load reads Config from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
