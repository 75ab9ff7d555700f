// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT/SIGTERM or an internal failure reported through
// Fail, then runs the registered hooks in reverse order under a deadline.
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	go func() { h.Fail(srv.Serve()) }()
//	err := h.Wait()
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	sigCh   chan os.Signal

	mu    sync.Mutex
	hooks []func(context.Context) error

	trigger   chan struct{}
	triggered sync.Once
	cause     error

	done chan struct{}
}

// NewHandler creates a shutdown handler whose hooks share a deadline of timeout.
// SIGINT and SIGTERM are captured from this point on, so a signal that
// arrives before Wait still runs the hooks.
func NewHandler(timeout time.Duration) *Handler {
	h := &Handler{
		timeout: timeout,
		sigCh:   make(chan os.Signal, 1),
		hooks:   make([]func(context.Context) error, 0),
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
	}
	signal.Notify(h.sigCh, syscall.SIGINT, syscall.SIGTERM)
	return h
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Trigger starts shutdown without an error.
func (h *Handler) Trigger() {
	h.fire(nil)
}

// Fail starts shutdown because a component stopped unexpectedly.
// A nil err is ignored so that Fail can wrap calls which return nil on a
// clean stop.
func (h *Handler) Fail(err error) {
	if err == nil {
		return
	}
	h.fire(err)
}

func (h *Handler) fire(err error) {
	h.triggered.Do(func() {
		h.cause = err
		close(h.trigger)
	})
}

// Wait blocks until a signal arrives or shutdown is triggered, then runs
// the hooks. The returned error joins the failure cause, if any, with every
// hook error.
func (h *Handler) Wait() error {
	defer signal.Stop(h.sigCh)

	select {
	case <-h.sigCh:
	case <-h.trigger:
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]func(context.Context) error, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	errs := []error{h.failure()}
	for i := len(hooks) - 1; i >= 0; i-- {
		errs = append(errs, hooks[i](ctx))
	}

	close(h.done)
	return errors.Join(errs...)
}

func (h *Handler) failure() error {
	select {
	case <-h.trigger:
		return h.cause
	default:
		return nil
	}
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
