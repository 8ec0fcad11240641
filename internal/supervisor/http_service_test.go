// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// fakeServer blocks in ListenAndServe until Shutdown is called or serveErr
// is delivered, mimicking *http.Server lifecycle semantics.
type fakeServer struct {
	serveErr    chan error
	shutdownErr error

	shutdownCalled chan struct{}
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		serveErr:       make(chan error, 1),
		shutdownCalled: make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	return <-f.serveErr
}

func (f *fakeServer) Shutdown(_ context.Context) error {
	close(f.shutdownCalled)
	f.serveErr <- http.ErrServerClosed
	return f.shutdownErr
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	cancel()

	select {
	case <-srv.shutdownCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown was not called after context cancellation")
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}
}

func TestHTTPServiceListenFailure(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPService(srv, time.Second)

	listenErr := errors.New("listen tcp :8780: address already in use")
	srv.serveErr <- listenErr

	err := svc.Serve(context.Background())
	if !errors.Is(err, listenErr) {
		t.Errorf("Serve returned %v, want wrapped %v", err, listenErr)
	}
}

func TestHTTPServiceShutdownFailure(t *testing.T) {
	srv := newFakeServer()
	srv.shutdownErr = errors.New("connections still active")
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if err == nil || errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want shutdown failure", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}
}

func TestHTTPServiceCleanExit(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPService(srv, time.Second)

	srv.serveErr <- http.ErrServerClosed

	if err := svc.Serve(context.Background()); err != nil {
		t.Errorf("Serve returned %v, want nil for ErrServerClosed", err)
	}
}

func TestHTTPServiceDefaultTimeout(t *testing.T) {
	svc := NewHTTPService(newFakeServer(), 0)
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout = %v, want 10s default", svc.shutdownTimeout)
	}
}

func TestHTTPServiceString(t *testing.T) {
	svc := NewHTTPService(newFakeServer(), time.Second)
	if got := svc.String(); got != "http-server" {
		t.Errorf("String() = %q, want %q", got, "http-server")
	}
}
