package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/ispstatus-go/internal/infra/tlsroots/tlstest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func servingSerial(t *testing.T, r *CertReloader) string {
	t.Helper()
	cert, err := r.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	return leaf.SerialNumber.String()
}

func TestNewCertReloader(t *testing.T) {
	kp := tlstest.WriteKeyPair(t, t.TempDir())

	r, err := NewCertReloader(kp.CertFile, kp.KeyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewCertReloader() error = %v", err)
	}
	defer r.Stop()

	if got := servingSerial(t, r); got != kp.Serial.String() {
		t.Errorf("serial = %s, want %s", got, kp.Serial)
	}
}

func TestNewCertReloader_InvalidFiles(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	os.WriteFile(certFile, []byte("invalid"), 0o644)
	os.WriteFile(keyFile, []byte("invalid"), 0o600)

	if _, err := NewCertReloader(certFile, keyFile); err == nil {
		t.Error("NewCertReloader() expected error for invalid pair")
	}
	if _, err := NewCertReloader("/nonexistent/cert.pem", "/nonexistent/key.pem"); err == nil {
		t.Error("NewCertReloader() expected error for missing files")
	}
}

func TestCertReloader_ServerTLSConfig(t *testing.T) {
	kp := tlstest.WriteKeyPair(t, t.TempDir())

	r, err := NewCertReloader(kp.CertFile, kp.KeyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	cfg := r.ServerTLSConfig()
	if cfg.GetCertificate == nil {
		t.Fatal("ServerTLSConfig() has no GetCertificate")
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
}

func TestCertReloader_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	first := tlstest.WriteKeyPair(t, dir)

	results := make(chan error, 8)
	r, err := NewCertReloader(first.CertFile, first.KeyFile,
		WithLogger(quietLogger()),
		WithDebounce(20*time.Millisecond),
		WithReloadHook(func(err error) { results <- err }),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Stop()
	r.StartAsync()

	second := tlstest.WriteKeyPair(t, dir)

	// The cert and key land as separate events, so an intermediate reload
	// may see a mismatched pair. Wait for the one that succeeds.
	deadline := time.After(5 * time.Second)
	for servingSerial(t, r) != second.Serial.String() {
		select {
		case <-results:
		case <-deadline:
			t.Fatalf("serial = %s, want %s", servingSerial(t, r), second.Serial)
		}
	}
}

// writeVersion writes a key pair into a new versioned directory of a
// projected secret volume and returns it.
func writeVersion(t *testing.T, mount, version string) tlstest.KeyPair {
	t.Helper()
	dir := filepath.Join(mount, version)
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return tlstest.WriteKeyPair(t, dir)
}

// publish points mount/..data at version the way the kubelet does: a new
// link is created beside it and renamed over the old one.
func publish(t *testing.T, mount, version string) {
	t.Helper()
	tmp := filepath.Join(mount, "..data_tmp")
	if err := os.Symlink(version, tmp); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(mount, "..data")); err != nil {
		t.Fatal(err)
	}
}

func TestCertReloader_SecretVolumeSwap(t *testing.T) {
	mount := t.TempDir()
	first := writeVersion(t, mount, "..v1")
	publish(t, mount, "..v1")
	for _, name := range []string{"server.crt", "server.key"} {
		if err := os.Symlink(filepath.Join("..data", name), filepath.Join(mount, name)); err != nil {
			t.Fatal(err)
		}
	}

	results := make(chan error, 8)
	r, err := NewCertReloader(filepath.Join(mount, "server.crt"), filepath.Join(mount, "server.key"),
		WithLogger(quietLogger()),
		WithDebounce(20*time.Millisecond),
		WithReloadHook(func(err error) { results <- err }),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Stop()
	if got := servingSerial(t, r); got != first.Serial.String() {
		t.Fatalf("serial = %s, want %s", got, first.Serial)
	}
	r.StartAsync()

	second := writeVersion(t, mount, "..v2")
	publish(t, mount, "..v2")

	deadline := time.After(5 * time.Second)
	for servingSerial(t, r) != second.Serial.String() {
		select {
		case <-results:
		case <-deadline:
			t.Fatalf("serial = %s, want %s", servingSerial(t, r), second.Serial)
		}
	}
}

func TestCertReloader_FailedReloadKeepsCertificate(t *testing.T) {
	dir := t.TempDir()
	kp := tlstest.WriteKeyPair(t, dir)

	results := make(chan error, 8)
	r, err := NewCertReloader(kp.CertFile, kp.KeyFile,
		WithLogger(quietLogger()),
		WithDebounce(20*time.Millisecond),
		WithReloadHook(func(err error) { results <- err }),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Stop()
	r.StartAsync()

	if err := os.WriteFile(kp.KeyFile, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-results:
		if err == nil {
			t.Fatal("reload of a corrupt key succeeded")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if got := servingSerial(t, r); got != kp.Serial.String() {
		t.Errorf("serial = %s, want previous %s", got, kp.Serial)
	}
}

func TestCertReloader_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	kp := tlstest.WriteKeyPair(t, dir)

	results := make(chan error, 8)
	r, err := NewCertReloader(kp.CertFile, kp.KeyFile,
		WithLogger(quietLogger()),
		WithDebounce(10*time.Millisecond),
		WithReloadHook(func(err error) { results <- err }),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Stop()
	r.StartAsync()

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-results:
		t.Fatalf("unexpected reload (err = %v)", err)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCertReloader_StopIdempotent(t *testing.T) {
	kp := tlstest.WriteKeyPair(t, t.TempDir())

	r, err := NewCertReloader(kp.CertFile, kp.KeyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	r.StartAsync()

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}
