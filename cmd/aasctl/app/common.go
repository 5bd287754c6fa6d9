// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"

	"github.com/tmtsoftware/csw-aas-go/pkg/config"
	"github.com/tmtsoftware/csw-aas-go/pkg/identity"
	"github.com/tmtsoftware/csw-aas-go/pkg/location"
	"github.com/tmtsoftware/csw-aas-go/pkg/networking"
	"github.com/tmtsoftware/csw-aas-go/pkg/session"
)

// loadConfig loads the --config file, or the default path, and validates it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewYAMLLoader(viper.GetString("config"), nil).Load()
	if err != nil {
		return nil, fmt.Errorf("configuration loading failed: %w", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtime is the wired set of components a command works with.
type runtime struct {
	cfg      *config.Config
	registry *prometheus.Registry
	resolver *location.Resolver
	adapter  *identity.Keycloak
	store    *session.Store
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	resolver, err := location.NewResolver(cfg.Location.URL, location.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create location resolver: %w", err)
	}

	builder := networking.NewHTTPClientBuilder()
	if cfg.IdentityProvider.CABundle != "" {
		builder = builder.WithCABundle(cfg.IdentityProvider.CABundle)
	}
	client, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create identity provider client: %w", err)
	}

	adapter, err := identity.NewKeycloak(
		identity.WithHTTPClient(client),
		identity.WithCallback(identity.CallbackOptions{
			Address: cfg.Callback.Address,
			Path:    cfg.Callback.Path,
			Timeout: time.Duration(cfg.Callback.Timeout),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity adapter: %w", err)
	}

	store, err := session.New(cfg, adapter, resolver, session.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	return &runtime{cfg: cfg, registry: reg, resolver: resolver, adapter: adapter, store: store}, nil
}

func (r *runtime) Close() {
	r.store.Close()
}
