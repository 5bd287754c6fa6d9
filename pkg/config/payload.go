// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"dario.cat/mergo"
)

// Payload keys, named as the identity provider's adapter configuration names them.
const (
	KeyURL                     = "url"
	KeyRealm                   = "realm"
	KeyClientID                = "clientId"
	KeySSLRequired             = "sslRequired"
	KeyVerifyTokenAudience     = "verifyTokenAudience"
	KeyUseResourceRoleMappings = "useResourceRoleMappings"
	KeyFlow                    = "flow"
	KeyScopes                  = "scopes"
)

// InitPayload is the merged initialization payload handed to the identity
// adapter.
type InitPayload struct {
	URL                     string
	Realm                   string
	ClientID                string
	SSLRequired             SSLRequired
	VerifyTokenAudience     bool
	UseResourceRoleMappings bool
	Flow                    Flow
	Scopes                  []string
}

// builtinPayload is the lowest-precedence layer.
func builtinPayload() map[string]any {
	return map[string]any{
		KeySSLRequired:             string(defaultSSLRequired),
		KeyVerifyTokenAudience:     defaultVerifyTokenAudience,
		KeyUseResourceRoleMappings: defaultUseResourceRoleMappings,
		KeyFlow:                    string(defaultFlow),
	}
}

// applicationPayload holds only what the application actually set, so unset
// fields never mask a built-in default.
func applicationPayload(idp IdentityProviderConfig) map[string]any {
	layer := map[string]any{
		KeyRealm:    idp.Realm,
		KeyClientID: idp.ClientID,
	}
	if idp.SSLRequired != "" {
		layer[KeySSLRequired] = string(idp.SSLRequired)
	}
	if idp.VerifyTokenAudience != nil {
		layer[KeyVerifyTokenAudience] = *idp.VerifyTokenAudience
	}
	if idp.UseResourceRoleMappings != nil {
		layer[KeyUseResourceRoleMappings] = *idp.UseResourceRoleMappings
	}
	if idp.Flow != "" {
		layer[KeyFlow] = string(idp.Flow)
	}
	if len(idp.Scopes) > 0 {
		layer[KeyScopes] = append([]string(nil), idp.Scopes...)
	}
	return layer
}

// MergePayload merges layers left to right; a key in a later layer replaces
// the same key in an earlier one.
func MergePayload(layers ...map[string]any) (map[string]any, error) {
	merged := map[string]any{}
	for _, layer := range layers {
		if err := mergo.Merge(&merged, layer, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge init payload: %w", err)
		}
	}
	return merged, nil
}

// BuildInitPayload merges built-in defaults, the application's identity
// provider settings and the resolved provider URL, in that precedence.
func BuildInitPayload(idp IdentityProviderConfig, url string) (*InitPayload, error) {
	merged, err := MergePayload(
		builtinPayload(),
		applicationPayload(idp),
		map[string]any{KeyURL: url},
	)
	if err != nil {
		return nil, err
	}
	return payloadFromMap(merged)
}

func payloadFromMap(m map[string]any) (*InitPayload, error) {
	p := &InitPayload{}
	var err error
	if p.URL, err = stringKey(m, KeyURL); err != nil {
		return nil, err
	}
	if p.Realm, err = stringKey(m, KeyRealm); err != nil {
		return nil, err
	}
	if p.ClientID, err = stringKey(m, KeyClientID); err != nil {
		return nil, err
	}
	ssl, err := stringKey(m, KeySSLRequired)
	if err != nil {
		return nil, err
	}
	p.SSLRequired = SSLRequired(ssl)
	flow, err := stringKey(m, KeyFlow)
	if err != nil {
		return nil, err
	}
	p.Flow = Flow(flow)
	if p.VerifyTokenAudience, err = boolKey(m, KeyVerifyTokenAudience); err != nil {
		return nil, err
	}
	if p.UseResourceRoleMappings, err = boolKey(m, KeyUseResourceRoleMappings); err != nil {
		return nil, err
	}
	if raw, ok := m[KeyScopes]; ok {
		scopes, ok := raw.([]string)
		if !ok {
			return nil, fmt.Errorf("init payload key %q: expected []string, got %T", KeyScopes, raw)
		}
		p.Scopes = scopes
	}
	return p, nil
}

func stringKey(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("init payload key %q: expected string, got %T", key, raw)
	}
	return s, nil
}

func boolKey(m map[string]any, key string) (bool, error) {
	raw, ok := m[key]
	if !ok {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("init payload key %q: expected bool, got %T", key, raw)
	}
	return b, nil
}
