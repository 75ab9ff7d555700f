package httpserver

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/yndnr/ispstatus-go/internal/core/service"
	"github.com/yndnr/ispstatus-go/internal/server/httpserver/handler"
	"github.com/yndnr/ispstatus-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Status serves the registry operations.
	Status *service.StatusService

	// Gate enforces API keys. Nil leaves every route open.
	Gate *Gate

	// Metrics, if set, is served on /metrics and receives request metrics.
	Metrics *metric.Registry

	// Prefix is the mount path of the registry root.
	Prefix string

	// RateLimit is the per-client request rate; 0 disables limiting.
	RateLimit float64

	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP
	// headers identify the client.
	TrustedProxies []netip.Prefix

	// Logger for access and panic logging.
	Logger *slog.Logger
}

// NewRouter builds the handler tree with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(cfg.Status, cfg.Prefix)

	middlewares := []Middleware{RequestID(), Recover(log)}

	if cfg.Metrics != nil {
		h.Mount("GET /metrics", cfg.Metrics.Handler())
		middlewares = append(middlewares, Instrument(cfg.Metrics, h.Route))
	}

	ips := NewClientIPResolver(cfg.TrustedProxies)
	middlewares = append(middlewares, Audit(log, ips))

	if cfg.RateLimit > 0 {
		var onLimit func(*http.Request)
		if cfg.Metrics != nil {
			onLimit = func(*http.Request) { cfg.Metrics.RateLimited.Inc() }
		}
		middlewares = append(middlewares, NewRateLimiter(cfg.RateLimit, ips, onLimit).Middleware())
	}

	if cfg.Gate != nil {
		middlewares = append(middlewares, cfg.Gate.Middleware())
	}

	return Chain(h, middlewares...)
}
