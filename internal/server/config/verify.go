package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/ispstatus-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyHTTP(&cfg.Server.HTTP),
		verifySecurity(&cfg.Security),
		verifyLog(&cfg.Log),
	)
}

func verifyHTTP(cfg *HTTPConfig) error {
	var errs []error

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.http.port %d out of range 1-65535", cfg.Port))
	}

	if !strings.HasPrefix(cfg.Prefix, "/") {
		errs = append(errs, fmt.Errorf("server.http.prefix %q must start with /", cfg.Prefix))
	} else if cfg.Prefix != "/" && strings.HasSuffix(cfg.Prefix, "/") {
		errs = append(errs, fmt.Errorf("server.http.prefix %q must not end with /", cfg.Prefix))
	}
	if strings.ContainsAny(cfg.Prefix, "{}? ") {
		errs = append(errs, fmt.Errorf("server.http.prefix %q contains invalid characters", cfg.Prefix))
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}

	if cfg.ReadHeaderTimeout < 0 {
		errs = append(errs, errors.New("server.http.read_header_timeout must not be negative"))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.http.shutdown_timeout must be positive"))
	}

	return errors.Join(errs...)
}

func verifySecurity(cfg *SecuritySection) error {
	var errs []error

	for i, key := range cfg.APIKeys {
		if key == "" {
			errs = append(errs, fmt.Errorf("security.api_keys[%d] is empty", i))
		}
	}
	for i, route := range cfg.ProtectedRoutes {
		if !strings.HasPrefix(route, "/") {
			errs = append(errs, fmt.Errorf("security.protected_routes[%d] %q must start with /", i, route))
		}
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("security.rate_limit must not be negative"))
	}
	if _, err := cfg.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	if !logger.ValidLevel(cfg.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", cfg.Format))
	}
	return errors.Join(errs...)
}
