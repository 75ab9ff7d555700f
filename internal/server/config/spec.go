package config

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"
)

// ServerConfig is the root configuration for ispstatus-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Security SecuritySection `koanf:"security"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Prefix is the path under which the registry endpoints are mounted.
	Prefix string `koanf:"prefix"`

	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TLSEnabled reports whether a certificate pair is configured.
func (c HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// SecuritySection configures the API key gate and rate limiting.
type SecuritySection struct {
	// APIKeys are the accepted x-api-key values.
	APIKeys []string `koanf:"api_keys"`

	// ProtectedRoutes are path prefixes checked in order; the first match
	// requires a valid key.
	ProtectedRoutes []string `koanf:"protected_routes"`

	// RateLimit is the number of requests per second allowed per client IP.
	// Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// TrustedProxies lists the CIDRs or addresses of reverse proxies whose
	// X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is treated as a
// single-host prefix.
func (s SecuritySection) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for i, raw := range s.TrustedProxies {
		if p, err := netip.ParsePrefix(raw); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("security.trusted_proxies[%d] %q is not an address or CIDR", i, raw)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
