// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"dario.cat/mergo"
)

const (
	defaultSSLRequired             = SSLRequiredExternal
	defaultVerifyTokenAudience     = true
	defaultUseResourceRoleMappings = true

	// defaultDiscoveryServiceName is the connection name the auth service
	// registers with the location service.
	defaultDiscoveryServiceName = "AAS-service-http"

	// defaultDiscoveryTimeout matches the "within" window sent to the
	// location service.
	defaultDiscoveryTimeout = 5 * time.Second

	defaultStaticFallbackURL = "http://localhost:8081/auth"
	defaultFlow              = FlowHybrid
	defaultLocationURL       = "http://localhost:7654"
	defaultCallbackAddress   = "127.0.0.1:0"
	defaultCallbackPath      = "/callback"
	defaultCallbackTimeout   = 5 * time.Minute
	defaultRefreshMargin     = 30 * time.Second
	defaultAPIAddress        = "127.0.0.1:8089"
)

// DefaultConfig returns a Config populated with every default. Realm and
// ClientID have no default and stay empty.
func DefaultConfig() *Config {
	return &Config{
		IdentityProvider: IdentityProviderConfig{
			DiscoveryServiceName: defaultDiscoveryServiceName,
			DiscoveryTimeout:     Duration(defaultDiscoveryTimeout),
			StaticFallbackURL:    defaultStaticFallbackURL,
			Flow:                 defaultFlow,
		},
		Location: LocationConfig{
			URL: defaultLocationURL,
		},
		Callback: CallbackConfig{
			Address: defaultCallbackAddress,
			Path:    defaultCallbackPath,
			Timeout: Duration(defaultCallbackTimeout),
		},
		Session: SessionConfig{
			RefreshMargin: Duration(defaultRefreshMargin),
		},
		API: APIConfig{
			Address: defaultAPIAddress,
		},
	}
}

// EnsureDefaults fills zero-valued fields from DefaultConfig, preserving
// anything the user set. SSLRequired and the two boolean switches are left
// alone; they are defaulted when the init payload is built.
func (c *Config) EnsureDefaults() {
	if c == nil {
		return
	}
	_ = mergo.Merge(c, DefaultConfig())
}
