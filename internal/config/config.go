// Package config loads argsweep's environment-variable configuration.
// Values here are defaults; command-line flags override them.
package config

import (
	"github.com/caarlos0/env/v10"
)

type Config struct {
	// Shell interprets substituted command strings.
	Shell string `env:"ARGSWEEP_SHELL" envDefault:"/bin/sh"`

	// Workers is the default worker-pool size. Zero means sequential
	// execution.
	Workers int `env:"ARGSWEEP_WORKERS" envDefault:"0"`

	Logging struct {
		Level  string `env:"ARGSWEEP_LOG_LEVEL" envDefault:"warn"`
		Format string `env:"ARGSWEEP_LOG_FORMAT" envDefault:"console"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
