// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package location resolves the auth service's address through the CSW
// location service.
//
// Resolution failure is an expected outcome, not an error: Resolve reports it
// with ok == false and the caller falls back to a static URL.
package location

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
	"github.com/tmtsoftware/csw-aas-go/pkg/networking"
	"github.com/tmtsoftware/csw-aas-go/pkg/telemetry"
)

const (
	// DefaultWithin is the lookup window sent to the location service.
	DefaultWithin = 5 * time.Second

	// requestGrace is added to the lookup window for the local timeout, so
	// the location service gets to answer before the client gives up.
	requestGrace = time.Second
)

//go:generate mockgen -destination=mocks/mock_resolver.go -package=mocks -source=resolver.go EndpointResolver

// EndpointResolver resolves a registered service name to a URI.
type EndpointResolver interface {
	Resolve(ctx context.Context, serviceName string, within time.Duration) (string, bool)
}

type resolveResponse struct {
	URI string `json:"uri"`
}

// Resolver queries GET {base}/location/resolve/{name}?within={duration}.
type Resolver struct {
	baseURL string
	client  networking.HTTPClient
	metrics *Metrics
	tracer  trace.Tracer
	log     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client networking.HTTPClient) Option {
	return func(r *Resolver) {
		r.client = client
	}
}

// WithRegisterer registers the resolver's metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Resolver) {
		r.metrics = NewMetrics(reg)
	}
}

// WithTracerProvider sets the provider spans are emitted on.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Resolver) {
		r.tracer = telemetry.Tracer(tp)
	}
}

// NewResolver creates a resolver for the location service at baseURL.
func NewResolver(baseURL string, opts ...Option) (*Resolver, error) {
	if !networking.IsURL(baseURL) {
		return nil, fmt.Errorf("location service URL %q is not an absolute http(s) URL", baseURL)
	}
	r := &Resolver{
		baseURL: baseURL,
		tracer:  telemetry.Tracer(nil),
		log:     logger.For("location"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		client, err := networking.NewHTTPClientBuilder().Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build HTTP client: %w", err)
		}
		r.client = client
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	return r, nil
}

// Resolve makes a single lookup. It returns the registered URI and true on an
// HTTP 200 carrying a non-empty "uri"; any other outcome, including a timeout,
// returns "", false. A non-positive within selects DefaultWithin.
func (r *Resolver) Resolve(ctx context.Context, serviceName string, within time.Duration) (string, bool) {
	if within <= 0 {
		within = DefaultWithin
	}

	ctx, done := telemetry.Start(ctx, r.tracer, "location.Resolve", telemetry.AttrServiceName.String(serviceName))
	var err error
	defer func() { done(&err) }()

	ctx, cancel := context.WithTimeout(ctx, within+requestGrace)
	defer cancel()

	endpoint := r.resolveURL(serviceName, within)
	result, err := networking.FetchJSON[resolveResponse](ctx, r.client, endpoint,
		networking.WithoutContentTypeValidation())
	if err != nil {
		r.log.Debug("location lookup failed", "service", serviceName, "error", err)
		r.metrics.observe(false)
		return "", false
	}
	if result.Data.URI == "" {
		r.log.Debug("location lookup returned no uri", "service", serviceName)
		r.metrics.observe(false)
		return "", false
	}

	r.log.Debug("resolved service", "service", serviceName, "uri", result.Data.URI)
	r.metrics.observe(true)
	return result.Data.URI, true
}

// ResolveOrFallback returns the resolved URI, or fallback when the service
// could not be resolved.
func ResolveOrFallback(
	ctx context.Context, resolver EndpointResolver, serviceName string, within time.Duration, fallback string,
) string {
	if uri, ok := resolver.Resolve(ctx, serviceName, within); ok {
		return uri
	}
	logger.Debugw("falling back to static auth service URL", "service", serviceName, "url", fallback)
	return fallback
}

func (r *Resolver) resolveURL(serviceName string, within time.Duration) string {
	return fmt.Sprintf("%s/location/resolve/%s?within=%s",
		strings.TrimRight(r.baseURL, "/"), url.PathEscape(serviceName), url.QueryEscape(FormatWithin(within)))
}

// FormatWithin renders d the way the location service parses durations:
// whole seconds as "5seconds", anything finer as milliseconds.
func FormatWithin(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%dseconds", d/time.Second)
	}
	return fmt.Sprintf("%dmillis", d.Milliseconds())
}
