// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// parseAccessToken decodes the access token's claims without verifying the
// signature. The token came straight from the token endpoint over the
// provider connection.
func parseAccessToken(raw string) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to extract access token claims")
	}
	return claims, nil
}

// checkAudience requires clientID in "aud" or as "azp". Keycloak access
// tokens usually name the client only in azp.
func checkAudience(claims jwt.MapClaims, clientID string) error {
	if azp, _ := claims["azp"].(string); azp == clientID {
		return nil
	}
	aud, err := claims.GetAudience()
	if err == nil && slices.Contains(aud, clientID) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAudienceMismatch, clientID)
}

// claimsExpiry returns the exp claim, or the zero time.
func claimsExpiry(claims jwt.MapClaims) time.Time {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// realmRolesFrom reads realm_access.roles.
func realmRolesFrom(claims jwt.MapClaims) []string {
	access, _ := claims["realm_access"].(map[string]any)
	return stringList(access["roles"])
}

// resourceRolesFrom reads resource_access.<resource>.roles.
func resourceRolesFrom(claims jwt.MapClaims) map[string][]string {
	access, _ := claims["resource_access"].(map[string]any)
	roles := make(map[string][]string, len(access))
	for resource, raw := range access {
		entry, _ := raw.(map[string]any)
		roles[resource] = stringList(entry["roles"])
	}
	return roles
}

func stringList(raw any) []string {
	items, _ := raw.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func cloneClaims(claims jwt.MapClaims) map[string]any {
	if claims == nil {
		return map[string]any{}
	}
	return maps.Clone(map[string]any(claims))
}

func cloneRoleMap(roles map[string][]string) map[string][]string {
	out := make(map[string][]string, len(roles))
	for resource, list := range roles {
		out[resource] = slices.Clone(list)
	}
	return out
}
