package config

import (
	"fmt"

	"github.com/yndnr/ispstatus-go/internal/infra/confloader"
)

// EnvAliases maps the unprefixed variables understood by earlier deployments
// to configuration keys. List values are JSON arrays.
var EnvAliases = map[string]string{
	"PORT":             "server.http.port",
	"API_KEYS":         "security.api_keys",
	"PROTECTED_ROUTES": "security.protected_routes",
}

// DotEnvFile is read from the working directory, when present, between the
// YAML file and the process environment.
const DotEnvFile = ".env"

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file and the environment, then verifies it.
func Load(path string) (*ServerConfig, error) {
	cfg := Default()

	opts := []confloader.Option{
		confloader.WithEnvAliases(EnvAliases),
		confloader.WithDotEnvFile(DotEnvFile),
	}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
