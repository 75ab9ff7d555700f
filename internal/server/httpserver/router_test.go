package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/ispstatus-go/internal/core/domain"
	"github.com/yndnr/ispstatus-go/internal/core/service"
	"github.com/yndnr/ispstatus-go/internal/storage/memory"
	"github.com/yndnr/ispstatus-go/internal/telemetry/metric"
)

type testServer struct {
	handler http.Handler
	metrics *metric.Registry
	gate    *Gate
}

func newTestServer(t *testing.T, keys, routes []string, rateLimit float64) *testServer {
	t.Helper()
	reg := memory.NewRegistry()
	metrics := metric.NewRegistry()
	gate := NewGate(keys, routes, WithDenyHook(func(*http.Request) { metrics.GateDenials.Inc() }))

	h := NewRouter(&RouterConfig{
		Status:    service.NewStatusService(reg, metrics),
		Gate:      gate,
		Metrics:   metrics,
		Prefix:    "/isp-status",
		RateLimit: rateLimit,
		Logger:    discardLogger(),
	})
	return &testServer{handler: h, metrics: metrics, gate: gate}
}

func (s *testServer) do(method, target, body, key string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_ProtectedScenario(t *testing.T) {
	s := newTestServer(t, []string{"secret1"}, []string{"/isp-status"}, 0)
	before := time.Now().Unix()

	rec := s.do(http.MethodPost, "/isp-status", `{"node":"n1","isp":"ispA","status":1}`, "secret1")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("POST = %d %q, want 200 OK", rec.Code, rec.Body.String())
	}

	body := s.do(http.MethodGet, "/isp-status", "", "secret1").Body.String()
	if !strings.Contains(body, `isp_status{node="n1",isp="ispA"} 1`+"\n") {
		t.Errorf("export missing status line:\n%s", body)
	}
	var lastUpdate int64 = -1
	for line := range strings.Lines(body) {
		sample, err := domain.ParseLine(strings.TrimSuffix(line, "\n"))
		if err == nil && sample.Metric == domain.MetricLastUpdate {
			lastUpdate = sample.Value
		}
	}
	if lastUpdate < before {
		t.Errorf("lastupdate = %d, want >= %d", lastUpdate, before)
	}

	rec = s.do(http.MethodPatch, "/isp-status", `[{"node":"n1","isp":"ispA","lastupdate":100}]`, "secret1")
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH = %d", rec.Code)
	}
	after := s.do(http.MethodGet, "/isp-status", "", "secret1").Body.String()
	if after != body {
		t.Errorf("backfill changed an existing entry:\nbefore %s\nafter %s", body, after)
	}
	if strings.Contains(after, "} 100\n") {
		t.Error("backfill value should not be applied")
	}

	rec = s.do(http.MethodDelete, "/isp-status?node=n1&isp=ispA", "", "secret1")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("DELETE = %d %q", rec.Code, rec.Body.String())
	}
	if got := s.do(http.MethodGet, "/isp-status", "", "secret1").Body.String(); got != "\n" {
		t.Errorf("export after delete = %q, want newline", got)
	}

	rec = s.do(http.MethodPost, "/isp-status", `{"node":"n1","isp":"ispA","status":1}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST without key = %d, want 401", rec.Code)
	}
	if rec.Body.String() != `{"error":"Unauthorized: Invalid API Key"}` {
		t.Errorf("401 body = %s", rec.Body.String())
	}
	if got := s.do(http.MethodGet, "/isp-status", "", "secret1").Body.String(); got != "\n" {
		t.Errorf("rejected request mutated registry: %q", got)
	}
}

func TestRouter_GateRejectionLeavesExportUnchanged(t *testing.T) {
	s := newTestServer(t, []string{"k"}, []string{"/isp-status"}, 0)
	s.do(http.MethodPost, "/isp-status", `{"node":"n","isp":"i","status":3}`, "k")
	before := s.do(http.MethodGet, "/isp-status", "", "k").Body.String()

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodPost, "/isp-status", `{"node":"x","isp":"y","status":1}`},
		{http.MethodPatch, "/isp-status", `[{"node":"x","isp":"y","lastupdate":5}]`},
		{http.MethodDelete, "/isp-status?node=n&isp=i", ""},
	} {
		if rec := s.do(tc.method, tc.target, tc.body, "wrong"); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s with wrong key = %d, want 401", tc.method, rec.Code)
		}
	}

	if after := s.do(http.MethodGet, "/isp-status", "", "k").Body.String(); after != before {
		t.Errorf("export changed:\nbefore %q\nafter %q", before, after)
	}
	if got := testutil.ToFloat64(s.metrics.GateDenials); got != 3 {
		t.Errorf("gate denials = %v, want 3", got)
	}
}

func TestRouter_OpenByDefault(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)

	if rec := s.do(http.MethodPost, "/isp-status", `{"node":"n","isp":"i","status":1}`, ""); rec.Code != http.StatusOK {
		t.Errorf("POST = %d, want 200", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
}

func TestRouter_GateAppliesToServiceEndpoints(t *testing.T) {
	s := newTestServer(t, []string{"k"}, []string{"/metrics", "/health"}, 0)

	if rec := s.do(http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /metrics without key = %d, want 401", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /health without key = %d, want 401", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/ready", "", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /ready = %d, want 200", rec.Code)
	}
}

func TestRouter_GateUpdate(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)

	s.gate.Update([]string{"fresh"}, []string{"/isp-status"})

	if rec := s.do(http.MethodGet, "/isp-status", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("GET without key after update = %d, want 401", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/isp-status", "", "fresh"); rec.Code != http.StatusOK {
		t.Errorf("GET with new key = %d, want 200", rec.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	s := newTestServer(t, nil, nil, 0)
	s.do(http.MethodPost, "/isp-status", `{"node":"n","isp":"i","status":1}`, "")
	s.do(http.MethodPatch, "/isp-status", `[{"node":"n","isp":"i","lastupdate":1},{"node":"m","isp":"i","lastupdate":1}]`, "")
	s.do(http.MethodGet, "/isp-status", "", "")

	rec := s.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{
		`ispstatus_registry_operations_total{operation="report",outcome="applied"} 1`,
		`ispstatus_registry_operations_total{operation="backfill",outcome="applied"} 1`,
		`ispstatus_registry_operations_total{operation="backfill",outcome="skipped"} 1`,
		`ispstatus_http_requests_total{code="200",method="POST",route="POST /isp-status"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRouter_RateLimit(t *testing.T) {
	s := newTestServer(t, nil, nil, 1)

	if rec := s.do(http.MethodGet, "/isp-status", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("first request = %d", rec.Code)
	}
	rec := s.do(http.MethodGet, "/isp-status", "", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", rec.Code)
	}
	if rec.Header().Get("X-Error-Code") != "IS-SYS-4290" {
		t.Errorf("X-Error-Code = %q", rec.Header().Get("X-Error-Code"))
	}
	if got := testutil.ToFloat64(s.metrics.RateLimited); got != 1 {
		t.Errorf("rate limited counter = %v, want 1", got)
	}
}

func TestRouter_RequestIDOnErrors(t *testing.T) {
	s := newTestServer(t, []string{"k"}, []string{"/"}, 0)

	rec := s.do(http.MethodGet, "/isp-status", "", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("rejected responses should still carry X-Request-ID")
	}
}
