package command

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ispstatus-go/internal/core/service"
	"github.com/yndnr/ispstatus-go/internal/server/httpserver"
	"github.com/yndnr/ispstatus-go/internal/storage/memory"
)

// fixedNow is 2023-11-14T22:13:20Z.
const fixedNow = 1700000000

// newTestServer starts the real router over an in-memory registry. When
// keys are given, /isp-status is protected by them.
func newTestServer(t *testing.T, keys ...string) *httptest.Server {
	t.Helper()

	reg := memory.NewRegistry(memory.WithClock(func() time.Time { return time.Unix(fixedNow, 0) }))

	var gate *httpserver.Gate
	if len(keys) > 0 {
		gate = httpserver.NewGate(keys, []string{"/isp-status"})
	}

	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Status: service.NewStatusService(reg, nil),
		Gate:   gate,
		Prefix: "/isp-status",
		Logger: slog.New(slog.DiscardHandler),
	}))
	t.Cleanup(srv.Close)
	return srv
}

// runCLI runs the app with an isolated config file and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return runCLIWithConfig(t, filepath.Join(t.TempDir(), "cli.yaml"), stdin, args...)
}

func runCLIWithConfig(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()

	app := App()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	argv := append([]string{"ispstatus-cli", "--config", configPath}, args...)
	err := app.Run(argv)
	return out.String(), err
}

// mustRun fails the test when the command errors.
func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, stdin, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}
