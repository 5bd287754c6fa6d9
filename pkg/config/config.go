// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config provides the configuration model for csw-aas-go: the
// identity-provider settings supplied once at startup, plus the location
// service, loopback callback, session and API settings the CLI needs.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// SSLRequired is the identity provider's transport requirement.
type SSLRequired string

const (
	// SSLRequiredAll requires HTTPS for every provider address.
	SSLRequiredAll SSLRequired = "all"
	// SSLRequiredExternal requires HTTPS unless the provider is local or on a private network.
	SSLRequiredExternal SSLRequired = "external"
	// SSLRequiredNone never requires HTTPS.
	SSLRequiredNone SSLRequired = "none"
)

// Flow is the OpenID Connect flow used for interactive login.
type Flow string

const (
	// FlowHybrid requests a code and an ID token from the authorization endpoint.
	FlowHybrid Flow = "hybrid"
	// FlowStandard is the plain authorization code flow.
	FlowStandard Flow = "standard"
)

// Duration is a time.Duration that reads and writes as a duration string.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Config is the root configuration.
type Config struct {
	IdentityProvider IdentityProviderConfig `yaml:"identityProvider"`
	Location         LocationConfig         `yaml:"location,omitempty"`
	Callback         CallbackConfig         `yaml:"callback,omitempty"`
	Session          SessionConfig          `yaml:"session,omitempty"`
	API              APIConfig              `yaml:"api,omitempty"`
}

// IdentityProviderConfig is the immutable identity-provider configuration.
type IdentityProviderConfig struct {
	// Realm is the provider realm holding the client.
	Realm string `yaml:"realm"`

	// ClientID is the public client this application authenticates as.
	// It is also the default resource for resource-role checks.
	ClientID string `yaml:"clientId"`

	// SSLRequired is left empty to take the built-in default ("external").
	SSLRequired SSLRequired `yaml:"sslRequired,omitempty"`

	// VerifyTokenAudience is nil to take the built-in default (true).
	VerifyTokenAudience *bool `yaml:"verifyTokenAudience,omitempty"`

	// UseResourceRoleMappings is nil to take the built-in default (true).
	UseResourceRoleMappings *bool `yaml:"useResourceRoleMappings,omitempty"`

	// DiscoveryServiceName is the name registered with the location service.
	DiscoveryServiceName string `yaml:"discoveryServiceName,omitempty"`

	// DiscoveryTimeout bounds the location lookup.
	DiscoveryTimeout Duration `yaml:"discoveryTimeout,omitempty"`

	// StaticFallbackURL is used when the location service cannot resolve the provider.
	StaticFallbackURL string `yaml:"staticFallbackUrl,omitempty"`

	// Flow selects the interactive login flow.
	Flow Flow `yaml:"flow,omitempty"`

	// Scopes are requested in addition to "openid".
	Scopes []string `yaml:"scopes,omitempty"`

	// CABundle is an optional PEM bundle for the provider's TLS certificate.
	CABundle string `yaml:"caBundle,omitempty"`
}

// LocationConfig points at the location service.
type LocationConfig struct {
	URL string `yaml:"url,omitempty"`
}

// CallbackConfig configures the loopback server receiving the login redirect.
type CallbackConfig struct {
	// Address is a loopback host:port. Port 0 picks a free port.
	Address string `yaml:"address,omitempty"`

	// Path is the redirect path.
	Path string `yaml:"path,omitempty"`

	// Timeout bounds how long interactive login waits for the browser.
	Timeout Duration `yaml:"timeout,omitempty"`
}

// SessionConfig configures the session store.
type SessionConfig struct {
	// RefreshMargin is how long before expiry the token is refreshed.
	RefreshMargin Duration `yaml:"refreshMargin,omitempty"`
}

// APIConfig configures the local session API.
type APIConfig struct {
	Address string `yaml:"address,omitempty"`
}

// VerifyTokenAudienceOrDefault returns the effective audience verification setting.
func (c IdentityProviderConfig) VerifyTokenAudienceOrDefault() bool {
	if c.VerifyTokenAudience == nil {
		return defaultVerifyTokenAudience
	}
	return *c.VerifyTokenAudience
}

// UseResourceRoleMappingsOrDefault returns the effective resource-role setting.
func (c IdentityProviderConfig) UseResourceRoleMappingsOrDefault() bool {
	if c.UseResourceRoleMappings == nil {
		return defaultUseResourceRoleMappings
	}
	return *c.UseResourceRoleMappings
}
