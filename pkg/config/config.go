// Package config loads the relay configuration from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries every knob the relay recognizes. It is an explicit value
// handed to constructors; nothing in the codebase reads the environment
// directly after Load.
type Config struct {
	// Provider credentials. ClientSecret must never be echoed to any
	// response or log line.
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`

	// OAuth flow parameters.
	RedirectURI       string `env:"REDIRECT_URI"`
	Scope             string `env:"SCOPE"`
	AuthorizeEndpoint string `env:"AUTHORIZE_ENDPOINT"`
	TokenEndpoint     string `env:"TOKEN_ENDPOINT"`

	// PluginURI is the CORS allow-origin value handed to the plugin.
	PluginURI string `env:"PLUGIN_URI"`

	// Server knobs.
	Addr     string `env:"ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL"`

	// Store selection.
	StoreType     string `env:"STORE_TYPE" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load parses the environment into a Config and validates the fields the
// relay cannot run without.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing required field.
func (c Config) Validate() error {
	switch {
	case c.ClientID == "":
		return errors.New("CLIENT_ID is required")
	case c.ClientSecret == "":
		return errors.New("CLIENT_SECRET is required")
	case c.RedirectURI == "":
		return errors.New("REDIRECT_URI is required")
	case c.AuthorizeEndpoint == "":
		return errors.New("AUTHORIZE_ENDPOINT is required")
	case c.TokenEndpoint == "":
		return errors.New("TOKEN_ENDPOINT is required")
	case c.PluginURI == "":
		return errors.New("PLUGIN_URI is required")
	}
	return nil
}
