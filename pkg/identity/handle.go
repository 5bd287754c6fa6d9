// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/tmtsoftware/csw-aas-go/pkg/networking"
)

// ssoMemory remembers refresh tokens of interactive sessions for Silent
// initialization later in the same process.
type ssoMemory interface {
	remember(key, refreshToken, subject string)
	forget(key string)
}

// applyOptions constrain the tokens accepted by apply.
type applyOptions struct {
	nonce          string
	subject        string
	requireIDToken bool
}

type keycloakHandle struct {
	realm *realm
	sso   ssoMemory
	log   *slog.Logger

	mu            sync.RWMutex
	token         *oauth2.Token
	claims        jwt.MapClaims
	realmRoles    []string
	resourceRoles map[string][]string
	subject       string
}

var _ Handle = (*keycloakHandle)(nil)

func newHandle(r *realm, sso ssoMemory, log *slog.Logger) *keycloakHandle {
	return &keycloakHandle{
		realm:         r,
		sso:           sso,
		log:           log,
		resourceRoles: map[string][]string{},
	}
}

// apply validates tok and replaces the handle's state with it.
func (h *keycloakHandle) apply(ctx context.Context, tok *oauth2.Token, opts applyOptions) error {
	if tok == nil || tok.AccessToken == "" {
		return errors.New("token response has no access token")
	}

	subject := opts.subject
	rawID, _ := tok.Extra("id_token").(string)
	switch {
	case rawID != "":
		idToken, err := h.realm.verifyIDToken(ctx, rawID, opts.nonce)
		if err != nil {
			return err
		}
		if opts.subject != "" && idToken.Subject != opts.subject {
			return ErrSubjectMismatch
		}
		subject = idToken.Subject
	case opts.requireIDToken:
		return errors.New("token response has no ID token")
	}

	claims, err := parseAccessToken(tok.AccessToken)
	if err != nil {
		return err
	}
	if h.realm.verifyAudience {
		if err := checkAudience(claims, h.realm.clientID); err != nil {
			return err
		}
	}
	if subject == "" {
		subject, _ = claims.GetSubject()
	} else if sub, _ := claims.GetSubject(); sub != "" && sub != subject {
		return ErrSubjectMismatch
	}

	if tok.Expiry.IsZero() {
		tok.Expiry = claimsExpiry(claims)
	}

	resourceRoles := map[string][]string{}
	if h.realm.useResourceRoles {
		resourceRoles = resourceRolesFrom(claims)
	}

	h.mu.Lock()
	h.token = tok
	h.claims = claims
	h.realmRoles = realmRolesFrom(claims)
	h.resourceRoles = resourceRoles
	h.subject = subject
	h.mu.Unlock()

	if tok.RefreshToken != "" {
		h.sso.remember(h.realm.ssoKey(), tok.RefreshToken, subject)
	}
	return nil
}

// Token implements Handle.
func (h *keycloakHandle) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == nil {
		return ""
	}
	return h.token.AccessToken
}

// TokenClaims implements Handle. The returned map is a copy.
func (h *keycloakHandle) TokenClaims() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cloneClaims(h.claims)
}

// RealmRoles implements Handle.
func (h *keycloakHandle) RealmRoles() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.realmRoles)
}

// ResourceRoles implements Handle.
func (h *keycloakHandle) ResourceRoles() map[string][]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cloneRoleMap(h.resourceRoles)
}

// HasRealmRole implements Handle.
func (h *keycloakHandle) HasRealmRole(role string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token != nil && slices.Contains(h.realmRoles, role)
}

// HasResourceRole implements Handle.
func (h *keycloakHandle) HasResourceRole(role, resource string) bool {
	if resource == "" {
		resource = h.realm.clientID
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token != nil && slices.Contains(h.resourceRoles[resource], role)
}

// IsAuthenticated implements Handle.
func (h *keycloakHandle) IsAuthenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token != nil && h.token.AccessToken != ""
}

// Subject implements Handle.
func (h *keycloakHandle) Subject() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subject
}

// ClientID implements Handle.
func (h *keycloakHandle) ClientID() string {
	return h.realm.clientID
}

// Expiry implements Handle.
func (h *keycloakHandle) Expiry() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == nil {
		return time.Time{}
	}
	return h.token.Expiry
}

func (h *keycloakHandle) refreshToken() (string, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == nil {
		return "", ""
	}
	return h.token.RefreshToken, h.subject
}

// Refresh implements Handle. The refresh grant is always sent, whatever the
// remaining validity of the current token.
func (h *keycloakHandle) Refresh(ctx context.Context) error {
	refreshToken, subject := h.refreshToken()
	if refreshToken == "" {
		return fmt.Errorf("%w: %w", ErrRefresh, ErrNotAuthenticated)
	}
	if err := h.refreshWith(ctx, refreshToken, subject); err != nil {
		return fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	h.log.Debug("token refreshed", "subject", subject, "expiry", h.Expiry().Format(time.RFC3339))
	return nil
}

func (h *keycloakHandle) refreshWith(ctx context.Context, refreshToken, subject string) error {
	src := h.realm.oauth2.TokenSource(h.realm.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return err
	}
	return h.apply(ctx, tok, applyOptions{subject: subject})
}

// Logout implements Handle. Local state and the remembered SSO session are
// dropped before the provider is contacted.
func (h *keycloakHandle) Logout(ctx context.Context) error {
	h.mu.Lock()
	tok := h.token
	h.token = nil
	h.claims = nil
	h.realmRoles = nil
	h.resourceRoles = map[string][]string{}
	h.mu.Unlock()
	h.sso.forget(h.realm.ssoKey())

	if tok == nil || tok.RefreshToken == "" {
		return nil
	}
	if h.realm.endSessionEndpoint == "" {
		return fmt.Errorf("%w: provider has no end_session_endpoint", ErrLogout)
	}

	form := url.Values{
		"client_id":     {h.realm.clientID},
		"refresh_token": {tok.RefreshToken},
	}
	if err := networking.PostForm(ctx, h.realm.httpClient, h.realm.endSessionEndpoint, form); err != nil {
		return fmt.Errorf("%w: %w", ErrLogout, err)
	}
	return nil
}

// LoadUserInfo implements Handle.
func (h *keycloakHandle) LoadUserInfo(ctx context.Context) (*UserInfo, error) {
	access := h.Token()
	if access == "" {
		return nil, ErrNotAuthenticated
	}
	info, err := h.realm.provider.UserInfo(h.realm.clientContext(ctx),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: access, TokenType: "Bearer"}))
	if err != nil {
		return nil, fmt.Errorf("failed to load user info: %w", err)
	}
	out := &UserInfo{
		Subject:       info.Subject,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Profile:       info.Profile,
	}
	if err := info.Claims(&out.Claims); err != nil {
		return nil, fmt.Errorf("failed to decode user info claims: %w", err)
	}
	return out, nil
}

// LoadUserProfile implements Handle.
func (h *keycloakHandle) LoadUserProfile(ctx context.Context) (*UserProfile, error) {
	access := h.Token()
	if access == "" {
		return nil, ErrNotAuthenticated
	}
	result, err := networking.FetchJSON[UserProfile](ctx, h.realm.httpClient, h.realm.issuer+"/account",
		networking.WithBearerToken(access))
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}
	return &result.Data, nil
}
