// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api serves the published session to local collaborators over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	v1 "github.com/tmtsoftware/csw-aas-go/pkg/api/v1"
	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
	"github.com/tmtsoftware/csw-aas-go/pkg/networking"
	"github.com/tmtsoftware/csw-aas-go/pkg/telemetry"
)

const (
	middlewareTimeout = 10 * time.Minute
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// ErrNonLoopbackAddress is returned when asked to listen beyond the local host.
var ErrNonLoopbackAddress = errors.New("session API must listen on a loopback address")

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// TracerProvider receives request spans. Nil uses the global provider.
	TracerProvider trace.TracerProvider
}

// NewRouter builds the API handler for manager.
func NewRouter(manager v1.SessionManager, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		// Interactive logins wait for the user.
		middleware.Timeout(middlewareTimeout),
		telemetry.NewHTTPMiddleware(opts.TracerProvider).Handler,
		requestBodySizeLimitMiddleware(maxRequestBodySize),
	)

	r.Mount("/health", v1.HealthcheckRouter())
	r.Mount("/version", v1.VersionRouter())
	r.Mount("/gates", v1.GatesRouter(manager))
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Mount("/", v1.SessionRouter(manager))
	return r
}

// Serve listens on address, which must be a loopback address, and serves
// handler until ctx is cancelled.
func Serve(ctx context.Context, address string, handler http.Handler) error {
	if !networking.IsLocalhost(address) {
		return fmt.Errorf("%w: %s", ErrNonLoopbackAddress, address)
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return ServeListener(ctx, listener, handler)
}

// ServeListener serves handler on listener until ctx is cancelled, then
// shuts the server down gracefully.
func ServeListener(ctx context.Context, listener net.Listener, handler http.Handler) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Infow("starting session API", "address", listener.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logger.Infow("session API stopped", "address", listener.Addr().String())
		return nil
	})
	return g.Wait()
}
