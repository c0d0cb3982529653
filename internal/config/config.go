// Package config resolves the client configuration once at startup: an
// optional YAML file layered under BIDFOUNDRY_-prefixed environment
// variables.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Service   ServiceConfig   `koanf:"service"`
	Registry  RegistryConfig  `koanf:"registry"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServiceConfig struct {
	// BaseURL is the generation service address, resolved once at startup.
	BaseURL string `koanf:"base_url"`
	// APIKey is the ambient credential sent with every request.
	APIKey string `koanf:"api_key"`
}

type RegistryConfig struct {
	// Fallback selects the local fallback store instead of the remote
	// service.
	Fallback bool `koanf:"fallback"`
	// StorePath is the storage area location for fallback mode.
	StorePath string `koanf:"store_path"`
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Load reads the configuration. path names an optional YAML file; "" skips
// the file layer. Environment variables win over file values:
// BIDFOUNDRY_SERVICE__BASE_URL maps to service.base_url.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("BIDFOUNDRY_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "BIDFOUNDRY_")), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Defaults
	if !k.Exists("service.base_url") {
		k.Set("service.base_url", "http://localhost:8000")
	}
	if !k.Exists("registry.store_path") {
		k.Set("registry.store_path", "bidfoundry.db")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
