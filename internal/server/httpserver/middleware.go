package httpserver

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/ispstatus-go/internal/core/domain"
	"github.com/yndnr/ispstatus-go/internal/server/httpserver/handler"
	"github.com/yndnr/ispstatus-go/internal/telemetry/logger"
	"github.com/yndnr/ispstatus-go/pkg/cmap"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID assigns each request an ID, reusing a client-supplied
// X-Request-ID, and stores it in the context for logging.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = "req-" + ulid.Make().String()
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recover recovers from panics and returns a 500 error.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", err,
						"path", r.URL.Path,
					)
					handler.WriteError(w, r, domain.ErrInternalServer.WithCause(fmt.Errorf("panic: %v", err)))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RequestObserver records completed requests, typically as metrics.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Instrument reports every request to obs. route maps a request to a
// low-cardinality label such as its mux pattern.
func Instrument(obs RequestObserver, route func(*http.Request) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			label := route(r)
			if label == "" {
				label = "unmatched"
			}
			obs.ObserveRequest(r.Method, label, wrapped.statusCode, time.Since(start))
		})
	}
}

// Audit logs one line per request. ips resolves the logged client address;
// nil logs the direct peer.
func Audit(log *slog.Logger, ips *ClientIPResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			attrs := []any{
				"request_id", logger.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", ips.ClientIP(r),
			}

			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// limiterIdleTTL is how long an unused per-client limiter is kept.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	clients *cmap.Map[*clientLimiter]
	ips     *ClientIPResolver
	onLimit func(r *http.Request)

	lastSweep atomic.Int64
	now       func() time.Time
}

// NewRateLimiter allows requestsPerSecond per client with an equal burst
// (at least 1). Clients are identified by ips; nil keys on the direct peer.
// onLimit, if not nil, is called for every rejected request.
func NewRateLimiter(requestsPerSecond float64, ips *ClientIPResolver, onLimit func(r *http.Request)) *RateLimiter {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		clients: cmap.New[*clientLimiter](),
		ips:     ips,
		onLimit: onLimit,
		now:     time.Now,
	}
	rl.lastSweep.Store(rl.now().UnixNano())
	return rl
}

// Allow consumes a token for ip.
func (rl *RateLimiter) Allow(ip string) bool {
	now := rl.now()
	rl.maybeSweep(now)

	c := rl.clients.GetOrCompute(ip, func() *clientLimiter {
		return &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
	})
	c.lastSeen.Store(now.UnixNano())
	return c.limiter.AllowN(now, 1)
}

// maybeSweep drops idle limiters at most once per limiterIdleTTL.
func (rl *RateLimiter) maybeSweep(now time.Time) {
	last := rl.lastSweep.Load()
	if now.UnixNano()-last < int64(limiterIdleTTL) {
		return
	}
	if !rl.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-limiterIdleTTL).UnixNano()
	rl.clients.DeleteFunc(func(_ string, c *clientLimiter) bool {
		return c.lastSeen.Load() < cutoff
	})
}

// Middleware returns the limiter as HTTP middleware.
func (rl *RateLimiter) Middleware() Middleware {
	retryAfter := strconv.Itoa(max(1, int(1/float64(rl.limit))))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(rl.ips.ClientIP(r)) {
				if rl.onLimit != nil {
					rl.onLimit(r)
				}
				w.Header().Set("Retry-After", retryAfter)
				handler.WriteError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// ClientIPResolver derives the client address of a request. Forwarding
// headers are honoured only when the direct peer is a trusted proxy, so a
// client cannot pick its own rate limit bucket.
type ClientIPResolver struct {
	trusted []netip.Prefix
}

// NewClientIPResolver trusts X-Forwarded-For and X-Real-IP from peers inside
// the given prefixes. With no prefixes only the peer address is used.
func NewClientIPResolver(trusted []netip.Prefix) *ClientIPResolver {
	return &ClientIPResolver{trusted: trusted}
}

// ClientIP returns the address used to identify the client. A nil resolver
// returns the peer address.
func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if c == nil || !c.isTrusted(peer) {
		return peer
	}

	// Walk X-Forwarded-For from the right, skipping our own proxies; the first
	// untrusted hop is the client.
	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			addr, err := netip.ParseAddr(hop)
			if err != nil {
				break
			}
			if i == 0 || !c.isTrusted(addr.Unmap().String()) {
				return addr.Unmap().String()
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.Unmap().String()
		}
	}

	return peer
}

func (c *ClientIPResolver) isTrusted(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range c.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	// SplitHostPort handles IPv6 addresses like [::1]:8080
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
