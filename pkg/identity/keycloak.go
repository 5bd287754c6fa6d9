// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/otel/trace"

	"github.com/tmtsoftware/csw-aas-go/pkg/config"
	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
	"github.com/tmtsoftware/csw-aas-go/pkg/networking"
	"github.com/tmtsoftware/csw-aas-go/pkg/telemetry"
)

const (
	// DefaultDiscoveryTries bounds OpenID discovery attempts.
	DefaultDiscoveryTries uint = 3

	defaultCallbackPath    = "/callback"
	defaultCallbackTimeout = 5 * time.Minute
)

type ssoEntry struct {
	refreshToken string
	subject      string
}

// Keycloak is the Adapter for Keycloak realms.
type Keycloak struct {
	httpClient     *http.Client
	launcher       Launcher
	callback       CallbackOptions
	discoveryTries uint
	tracer         trace.Tracer
	log            *slog.Logger

	mu  sync.Mutex
	sso map[string]ssoEntry
}

var _ Adapter = (*Keycloak)(nil)

// Option configures a Keycloak adapter.
type Option func(*Keycloak)

// WithHTTPClient sets the client used for discovery, token and account requests.
func WithHTTPClient(client *http.Client) Option {
	return func(k *Keycloak) {
		k.httpClient = client
	}
}

// WithLauncher replaces the browser launcher.
func WithLauncher(launcher Launcher) Option {
	return func(k *Keycloak) {
		k.launcher = launcher
	}
}

// WithCallback configures the loopback callback server.
func WithCallback(opts CallbackOptions) Option {
	return func(k *Keycloak) {
		k.callback = opts
	}
}

// WithDiscoveryTries bounds the number of discovery attempts.
func WithDiscoveryTries(tries uint) Option {
	return func(k *Keycloak) {
		k.discoveryTries = tries
	}
}

// WithTracerProvider sets the tracer provider for adapter spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(k *Keycloak) {
		k.tracer = telemetry.Tracer(tp)
	}
}

// NewKeycloak creates a Keycloak adapter.
func NewKeycloak(opts ...Option) (*Keycloak, error) {
	k := &Keycloak{
		launcher:       BrowserLauncher,
		discoveryTries: DefaultDiscoveryTries,
		tracer:         telemetry.Tracer(nil),
		log:            logger.For("identity"),
		sso:            make(map[string]ssoEntry),
	}
	for _, opt := range opts {
		opt(k)
	}

	if k.httpClient == nil {
		client, err := networking.NewHTTPClientBuilder().Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build HTTP client: %w", err)
		}
		k.httpClient = client
	}
	if k.callback.Address == "" {
		k.callback.Address = "127.0.0.1:0"
	}
	if k.callback.Path == "" {
		k.callback.Path = defaultCallbackPath
	}
	if k.callback.Timeout <= 0 {
		k.callback.Timeout = defaultCallbackTimeout
	}
	if k.discoveryTries == 0 {
		k.discoveryTries = 1
	}
	return k, nil
}

// Initialize implements Adapter.
func (k *Keycloak) Initialize(ctx context.Context, payload *config.InitPayload, mode Mode) (_ Handle, retErr error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}
	ctx, end := telemetry.Start(ctx, k.tracer, "identity.Initialize",
		telemetry.AttrMode.String(mode.String()),
		telemetry.AttrRealm.String(payload.Realm),
		telemetry.AttrClientID.String(payload.ClientID),
	)
	defer end(&retErr)

	if err := checkTransport(payload.SSLRequired, payload.URL); err != nil {
		return nil, err
	}

	issuer := issuerFor(payload.URL, payload.Realm)
	provider, err := k.discover(ctx, issuer)
	if err != nil {
		return nil, err
	}
	r, err := newRealm(provider, issuer, payload, k.httpClient)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}

	h := newHandle(r, k, k.log)
	if mode == Silent {
		k.restore(ctx, h)
		return h, nil
	}

	token, nonce, err := newLoginFlow(r, k.launcher, k.callback, k.log).run(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogin, err)
	}
	if err := h.apply(ctx, token, applyOptions{nonce: nonce, requireIDToken: true}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogin, err)
	}
	k.log.Info("login completed", "realm", payload.Realm, "client_id", payload.ClientID, "subject", h.Subject())
	return h, nil
}

// discover loads the realm's OpenID configuration, retrying transient failures.
func (k *Keycloak) discover(ctx context.Context, issuer string) (*oidc.Provider, error) {
	clientCtx := oidc.ClientContext(ctx, k.httpClient)
	provider, err := backoff.Retry(ctx, func() (*oidc.Provider, error) {
		return oidc.NewProvider(clientCtx, issuer)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(k.discoveryTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			k.log.Debug("discovery failed, retrying", "issuer", issuer, "error", err, "next", next)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDiscovery, issuer, err)
	}
	return provider, nil
}

// restore re-establishes a remembered SSO session. A failed refresh leaves the
// handle unauthenticated.
func (k *Keycloak) restore(ctx context.Context, h *keycloakHandle) {
	key := h.realm.ssoKey()
	k.mu.Lock()
	entry, ok := k.sso[key]
	k.mu.Unlock()
	if !ok {
		return
	}
	if err := h.refreshWith(ctx, entry.refreshToken, entry.subject); err != nil {
		k.log.Debug("SSO session could not be restored", "error", err)
		k.forget(key)
	}
}

func (k *Keycloak) remember(key, refreshToken, subject string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sso[key] = ssoEntry{refreshToken: refreshToken, subject: subject}
}

func (k *Keycloak) forget(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.sso, key)
}
