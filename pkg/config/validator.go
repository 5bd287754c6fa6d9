// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/tmtsoftware/csw-aas-go/pkg/networking"
)

// Validator validates a Config.
type Validator interface {
	Validate(cfg *Config) error
}

// DefaultValidator reports every problem in one error wrapping ErrInvalidConfig.
type DefaultValidator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *DefaultValidator {
	return &DefaultValidator{}
}

// Validate checks cfg after defaults have been applied.
func (v *DefaultValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", ErrInvalidConfig)
	}

	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	collect(v.validateIdentityProvider(&cfg.IdentityProvider))
	collect(v.validateLocation(&cfg.Location))
	collect(v.validateCallback(&cfg.Callback))
	collect(v.validateSession(&cfg.Session))
	collect(validateLoopbackAddress("api.address", cfg.API.Address))

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}

func (*DefaultValidator) validateIdentityProvider(idp *IdentityProviderConfig) error {
	var problems []string
	if idp.Realm == "" {
		problems = append(problems, "identityProvider.realm is required")
	}
	if idp.ClientID == "" {
		problems = append(problems, "identityProvider.clientId is required")
	}
	switch idp.SSLRequired {
	case "", SSLRequiredAll, SSLRequiredExternal, SSLRequiredNone:
	default:
		problems = append(problems, fmt.Sprintf(
			"identityProvider.sslRequired must be one of all, external, none (got %q)", idp.SSLRequired))
	}
	switch idp.Flow {
	case "", FlowHybrid, FlowStandard:
	default:
		problems = append(problems, fmt.Sprintf(
			"identityProvider.flow must be hybrid or standard (got %q)", idp.Flow))
	}
	if idp.DiscoveryServiceName == "" {
		problems = append(problems, "identityProvider.discoveryServiceName is required")
	}
	if idp.DiscoveryTimeout <= 0 {
		problems = append(problems, "identityProvider.discoveryTimeout must be positive")
	}
	if !networking.IsURL(idp.StaticFallbackURL) {
		problems = append(problems, fmt.Sprintf(
			"identityProvider.staticFallbackUrl must be an absolute http(s) URL (got %q)", idp.StaticFallbackURL))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func (*DefaultValidator) validateLocation(loc *LocationConfig) error {
	if !networking.IsURL(loc.URL) {
		return fmt.Errorf("location.url must be an absolute http(s) URL (got %q)", loc.URL)
	}
	return nil
}

func (*DefaultValidator) validateCallback(cb *CallbackConfig) error {
	if err := validateLoopbackAddress("callback.address", cb.Address); err != nil {
		return err
	}
	if !strings.HasPrefix(cb.Path, "/") {
		return fmt.Errorf("callback.path must start with / (got %q)", cb.Path)
	}
	if cb.Timeout <= 0 {
		return fmt.Errorf("callback.timeout must be positive")
	}
	return nil
}

func (*DefaultValidator) validateSession(s *SessionConfig) error {
	if s.RefreshMargin < 0 {
		return fmt.Errorf("session.refreshMargin must not be negative")
	}
	return nil
}

func validateLoopbackAddress(field, addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s must be host:port (got %q)", field, addr)
	}
	if !networking.IsLocalhost(host) {
		return fmt.Errorf("%s must be a loopback address (got %q)", field, addr)
	}
	return nil
}
