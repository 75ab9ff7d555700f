package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"

	"github.com/yndnr/ispstatus-go/internal/core/service"
	"github.com/yndnr/ispstatus-go/internal/infra/buildinfo"
	"github.com/yndnr/ispstatus-go/internal/infra/confloader"
	"github.com/yndnr/ispstatus-go/internal/infra/shutdown"
	"github.com/yndnr/ispstatus-go/internal/infra/tlsroots"
	"github.com/yndnr/ispstatus-go/internal/server/config"
	"github.com/yndnr/ispstatus-go/internal/server/httpserver"
	"github.com/yndnr/ispstatus-go/internal/storage/memory"
	"github.com/yndnr/ispstatus-go/internal/telemetry/logger"
	"github.com/yndnr/ispstatus-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ispstatus-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting ispstatus-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
		"settings", config.Sanitize(cfg))

	// Capture signals before anything starts so none is missed.
	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)

	metrics := metric.NewRegistry()
	metrics.SetBuildInfo(info.Version, info.Commit, info.GoVersion)

	registry := memory.NewRegistry()
	metrics.MustRegister(metric.NewRegistryCollector(registry))

	gate := httpserver.NewGate(cfg.Security.APIKeys, cfg.Security.ProtectedRoutes,
		httpserver.WithDenyHook(func(*http.Request) { metrics.GateDenials.Inc() }))

	// Verify has already parsed the list.
	trusted, _ := cfg.Security.TrustedProxyPrefixes()

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Status:         service.NewStatusService(registry, metrics),
		Gate:           gate,
		Metrics:        metrics,
		Prefix:         cfg.Server.HTTP.Prefix,
		RateLimit:      cfg.Security.RateLimit,
		TrustedProxies: trusted,
		Logger:         log,
	})

	var tlsConfig *tls.Config
	if cfg.Server.HTTP.TLSEnabled() {
		reloader, err := tlsroots.NewCertReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(log),
			tlsroots.WithReloadHook(func(err error) { metrics.ObserveReload(metric.ReloadCertificate, err) }))
		if err != nil {
			return fmt.Errorf("load TLS certificate: %w", err)
		}
		reloader.StartAsync()
		defer reloader.Stop()
		tlsConfig = reloader.ServerTLSConfig()
	}

	srv := httpserver.New(httpserver.Config{
		Addr:              cfg.Server.HTTP.Addr(),
		TLS:               tlsConfig,
		ReadHeaderTimeout: cfg.Server.HTTP.ReadHeaderTimeout,
	}, router)

	// Bind before reporting readiness so a busy port fails the process.
	if err := srv.Listen(); err != nil {
		return err
	}

	// Hooks run in reverse registration order.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return srv.Shutdown(ctx)
	})

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, cfg, gate, metrics, log)
		if err != nil {
			log.Warn("configuration hot reload disabled", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	go func() {
		shutdownHandler.Fail(srv.Serve())
	}()

	log.Info("HTTP server listening",
		"addr", srv.Addr(),
		"prefix", cfg.Server.HTTP.Prefix,
		"tls", cfg.Server.HTTP.TLSEnabled())

	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// watchConfig reloads the config file on change and applies the settings
// that can change at runtime. Listener settings need a restart.
func watchConfig(path string, current *config.ServerConfig, gate *httpserver.Gate, metrics *metric.Registry, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}

	listener := current.Server.HTTP
	watcher.OnChange(func(string) {
		next, err := config.Load(path)
		metrics.ObserveReload(metric.ReloadConfig, err)
		if err != nil {
			log.Error("configuration reload rejected, keeping previous settings", "error", err)
			return
		}

		gate.Update(next.Security.APIKeys, next.Security.ProtectedRoutes)
		logger.SetLevel(next.Log.Level)

		if next.Server.HTTP != listener || next.Security.RateLimit != current.Security.RateLimit ||
			!slices.Equal(next.Security.TrustedProxies, current.Security.TrustedProxies) {
			log.Warn("listener, prefix, rate limit or trusted proxy changes take effect after restart")
		}
		log.Info("configuration reloaded",
			"api_keys", len(next.Security.APIKeys),
			"protected_routes", next.Security.ProtectedRoutes,
			"log_level", next.Log.Level)
	})

	watcher.StartAsync()
	return watcher, nil
}
