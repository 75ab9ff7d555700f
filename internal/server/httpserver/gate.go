package httpserver

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"

	"github.com/yndnr/ispstatus-go/internal/core/domain"
	"github.com/yndnr/ispstatus-go/internal/server/httpserver/handler"
)

// APIKeyHeader carries the pre-shared key checked by the Gate.
const APIKeyHeader = "X-API-Key"

// gatePolicy is an immutable snapshot of the gate configuration.
type gatePolicy struct {
	digests  [][blake2b.Size256]byte
	prefixes []string
}

func newGatePolicy(keys, protectedRoutes []string) *gatePolicy {
	p := &gatePolicy{
		digests:  make([][blake2b.Size256]byte, 0, len(keys)),
		prefixes: append([]string(nil), protectedRoutes...),
	}
	for _, k := range keys {
		p.digests = append(p.digests, blake2b.Sum256([]byte(k)))
	}
	return p
}

// validKey compares the digest of key against every configured digest
// without short-circuiting.
func (p *gatePolicy) validKey(key string) bool {
	sum := blake2b.Sum256([]byte(key))
	match := 0
	for i := range p.digests {
		match |= subtle.ConstantTimeCompare(sum[:], p.digests[i][:])
	}
	return match == 1
}

// Gate restricts access to protected path prefixes with a static key list.
// The policy can be replaced at runtime with Update.
type Gate struct {
	policy atomic.Pointer[gatePolicy]
	onDeny func(r *http.Request)
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithDenyHook registers a function called for every rejected request.
func WithDenyHook(fn func(r *http.Request)) GateOption {
	return func(g *Gate) {
		g.onDeny = fn
	}
}

// NewGate creates a Gate. Only digests of keys are retained.
func NewGate(keys, protectedRoutes []string, opts ...GateOption) *Gate {
	g := &Gate{}
	g.policy.Store(newGatePolicy(keys, protectedRoutes))
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Update atomically replaces the keys and protected routes.
func (g *Gate) Update(keys, protectedRoutes []string) {
	g.policy.Store(newGatePolicy(keys, protectedRoutes))
}

// Allow reports whether a request for path carrying key may proceed.
// Prefixes are scanned in order and only the first one that matches path is
// considered; a path matching no prefix is always allowed.
func (g *Gate) Allow(path, key string) bool {
	p := g.policy.Load()
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(path, prefix) {
			return key != "" && p.validKey(key)
		}
	}
	return true
}

// Middleware returns the gate as HTTP middleware. Rejected requests get a
// 401 and never reach next.
func (g *Gate) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.Allow(r.URL.Path, r.Header.Get(APIKeyHeader)) {
				if g.onDeny != nil {
					g.onDeny(r)
				}
				handler.WriteError(w, r, domain.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
