// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides the OpenTelemetry tracing helpers shared by the
// resolver, identity adapter, session store and session API.
//
// No exporter is configured here. Spans go to the global tracer provider,
// which is a no-op unless the host application installs one.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans emitted by this module.
const InstrumentationName = "github.com/tmtsoftware/csw-aas-go"

// Attribute keys used across packages.
var (
	AttrServiceName = attribute.Key("aas.discovery.service_name")
	AttrResolved    = attribute.Key("aas.discovery.resolved")
	AttrMode        = attribute.Key("aas.identity.mode")
	AttrRealm       = attribute.Key("aas.identity.realm")
	AttrClientID    = attribute.Key("aas.identity.client_id")
	AttrState       = attribute.Key("aas.session.state")
	AttrErrorType   = attribute.Key("error.type")
)

// Tracer returns a tracer from provider, or from the global provider when
// provider is nil.
func Tracer(provider trace.TracerProvider) trace.Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return provider.Tracer(InstrumentationName)
}

// Start opens an internal span and returns a func that ends it. Passing a
// pointer to the caller's named error return lets the span record the
// failure:
//
//	ctx, done := telemetry.Start(ctx, tracer, "identity.Initialize")
//	defer done(&retErr)
func Start(
	ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue,
) (context.Context, func(*error)) {
	ctx, span := tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err *error) {
		if err != nil && *err != nil {
			span.RecordError(*err)
			span.SetStatus(codes.Error, (*err).Error())
		}
		span.End()
	}
}
