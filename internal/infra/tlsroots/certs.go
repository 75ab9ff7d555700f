package tlsroots

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// atomicDataDir is the symlink a Kubernetes secret or configmap volume swaps
// to publish a new version of every file at once.
const atomicDataDir = "..data"

// DefaultDebounce coalesces the burst of events a certificate rotation
// produces (cert and key are usually written back to back).
const DefaultDebounce = 500 * time.Millisecond

// CertReloader holds the serving certificate and reloads it when the cert
// or key file changes. A failed reload keeps the previous certificate.
type CertReloader struct {
	certFile string
	keyFile  string
	cert     atomic.Pointer[tls.Certificate]

	dirs     []string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	onReload func(error)

	mu       sync.Mutex
	timer    *time.Timer
	done     chan struct{}
	stopOnce sync.Once
}

// ReloaderOption configures a CertReloader.
type ReloaderOption func(*CertReloader)

// WithLogger sets the logger for the reloader.
func WithLogger(logger *slog.Logger) ReloaderOption {
	return func(r *CertReloader) {
		r.logger = logger
	}
}

// WithDebounce sets the debounce duration.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *CertReloader) {
		r.debounce = d
	}
}

// WithReloadHook registers fn to receive the result of every reload
// triggered by a file change.
func WithReloadHook(fn func(error)) ReloaderOption {
	return func(r *CertReloader) {
		r.onReload = fn
	}
}

// NewCertReloader loads the key pair and prepares to watch both files.
func NewCertReloader(certFile, keyFile string, opts ...ReloaderOption) (*CertReloader, error) {
	r := &CertReloader{
		certFile: filepath.Clean(certFile),
		keyFile:  filepath.Clean(keyFile),
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("tlsroots: create watcher: %w", err)
	}

	// Directories, not files: editors replace files by rename, which drops a
	// file-level watch, and secret volumes swap the ..data link instead of
	// touching the files we were given.
	r.dirs = uniqueDirs(r.certFile, r.keyFile)
	for _, dir := range r.dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}
	r.watcher = watcher

	return r, nil
}

func uniqueDirs(paths ...string) []string {
	var dirs []string
	seen := make(map[string]bool)
	for _, p := range paths {
		dir := filepath.Dir(p)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Reload reads the key pair from disk and swaps it in.
func (r *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	r.cert.Store(&cert)
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

// ServerTLSConfig returns a server config backed by the reloader.
func (r *CertReloader) ServerTLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// Start processes file events until Stop is called.
func (r *CertReloader) Start() {
	r.logger.Info("certificate watcher started",
		"cert_file", r.certFile,
		"key_file", r.keyFile,
	)

	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Clean(event.Name)
			if !r.affects(name) {
				continue
			}
			r.logger.Debug("certificate file changed",
				"file", name,
				"op", event.Op.String(),
			)
			r.schedule()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("certificate watcher error", "error", err)
		case <-r.done:
			return
		}
	}
}

// affects reports whether a change to name can alter the key pair.
func (r *CertReloader) affects(name string) bool {
	if name == r.certFile || name == r.keyFile {
		return true
	}
	if filepath.Base(name) != atomicDataDir {
		return false
	}
	return slices.Contains(r.dirs, filepath.Dir(name))
}

// StartAsync starts watching in a goroutine.
func (r *CertReloader) StartAsync() {
	go r.Start()
}

// Stop stops watching. It is safe to call more than once.
func (r *CertReloader) Stop() error {
	var err error
	r.stopOnce.Do(func() {
		close(r.done)

		r.mu.Lock()
		if r.timer != nil {
			r.timer.Stop()
		}
		r.mu.Unlock()

		err = r.watcher.Close()
	})
	return err
}

func (r *CertReloader) schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.reloadFromEvent)
}

func (r *CertReloader) reloadFromEvent() {
	select {
	case <-r.done:
		return
	default:
	}

	err := r.Reload()
	if err != nil {
		r.logger.Error("certificate reload failed, keeping previous certificate",
			"error", err,
			"cert_file", r.certFile,
		)
	} else {
		r.logger.Info("certificate reloaded", "cert_file", r.certFile)
	}

	if r.onReload != nil {
		r.onReload(err)
	}
}
