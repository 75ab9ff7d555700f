package config

import "time"

// Default configuration values.
const (
	DefaultHTTPHost          = "0.0.0.0"
	DefaultHTTPPort          = 3000
	DefaultPrefix            = "/isp-status"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
// No keys and no protected routes: every route is open.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Host:              DefaultHTTPHost,
				Port:              DefaultHTTPPort,
				Prefix:            DefaultPrefix,
				ReadHeaderTimeout: DefaultReadHeaderTimeout,
				ShutdownTimeout:   DefaultShutdownTimeout,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
