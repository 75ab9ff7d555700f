package config

import "github.com/yndnr/ispstatus-go/internal/telemetry/logger"

// Sanitize returns a copy of the config with API keys masked, for logging.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if len(cfg.Security.APIKeys) > 0 {
		keys := make([]string, len(cfg.Security.APIKeys))
		for i, k := range cfg.Security.APIKeys {
			keys[i] = logger.Mask(k)
		}
		sanitized.Security.APIKeys = keys
	}

	return &sanitized
}
