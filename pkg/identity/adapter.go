// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package identity is the boundary to the identity provider. An Adapter turns
// an init payload into a Handle; the Handle's accessors are the only surface
// the session store and gates depend on, so the provider SDK can be swapped
// without touching them.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/tmtsoftware/csw-aas-go/pkg/config"
)

// Mode selects how Initialize treats a user without an existing session.
type Mode int

const (
	// Silent only checks for an existing session and never opens a login page.
	// The only session it can find is one established by an earlier
	// Interactive login through the same Adapter in this process; the
	// provider's own SSO cookie is never probed, so after a restart Silent
	// always yields an unauthenticated Handle.
	Silent Mode = iota
	// Interactive sends the user to the provider's login page when needed.
	Interactive
)

// String returns the provider's onLoad value for the mode.
func (m Mode) String() string {
	if m == Interactive {
		return "login-required"
	}
	return "check-sso"
}

var (
	// ErrInvalidPayload is returned when the init payload is incomplete.
	ErrInvalidPayload = errors.New("invalid init payload")

	// ErrInsecureTransport is returned when the provider URL violates sslRequired.
	ErrInsecureTransport = errors.New("provider URL does not satisfy sslRequired")

	// ErrDiscovery is returned when the realm's OpenID configuration cannot be loaded.
	ErrDiscovery = errors.New("provider discovery failed")

	// ErrLogin is returned when interactive login does not produce a session.
	ErrLogin = errors.New("login failed")

	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefresh is returned when a token refresh fails.
	ErrRefresh = errors.New("token refresh failed")

	// ErrLogout is returned when the provider does not confirm logout.
	ErrLogout = errors.New("logout failed")

	// ErrStateMismatch is returned when the callback state does not match the request.
	ErrStateMismatch = errors.New("callback state does not match")

	// ErrNonceMismatch is returned when an ID token carries the wrong nonce.
	ErrNonceMismatch = errors.New("ID token nonce does not match expected value")

	// ErrNonceMissing is returned when an ID token has no nonce but one was sent.
	ErrNonceMissing = errors.New("ID token missing nonce claim when nonce was expected")

	// ErrSubjectMismatch is returned when a later token names a different subject.
	ErrSubjectMismatch = errors.New("ID token subject does not match expected value")

	// ErrAudienceMismatch is returned when the access token is not meant for the client.
	ErrAudienceMismatch = errors.New("access token audience does not include client")
)

//go:generate mockgen -destination=mocks/mock_adapter.go -package=mocks -source=adapter.go Adapter,Handle

// Adapter initializes sessions against an identity provider.
type Adapter interface {
	// Initialize establishes a session. In Silent mode a missing session is
	// not an error: the returned Handle reports IsAuthenticated() == false.
	Initialize(ctx context.Context, payload *config.InitPayload, mode Mode) (Handle, error)
}

// Handle is the provider-neutral view of one initialized session.
// Implementations are safe for concurrent use.
type Handle interface {
	Token() string
	TokenClaims() map[string]any
	RealmRoles() []string
	ResourceRoles() map[string][]string
	HasRealmRole(role string) bool
	// HasResourceRole checks role on resource; an empty resource means the client.
	HasResourceRole(role, resource string) bool
	IsAuthenticated() bool
	Subject() string
	ClientID() string
	Expiry() time.Time

	// Refresh unconditionally exchanges the refresh token for new tokens and
	// updates the handle in place.
	Refresh(ctx context.Context) error

	// Logout ends the provider session. The handle is unauthenticated
	// afterwards whether or not the provider confirmed.
	Logout(ctx context.Context) error

	LoadUserProfile(ctx context.Context) (*UserProfile, error)
	LoadUserInfo(ctx context.Context) (*UserInfo, error)
}

// UserInfo is the provider's userinfo response.
type UserInfo struct {
	Subject       string         `json:"sub"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified,omitempty"`
	Profile       string         `json:"profile,omitempty"`
	Claims        map[string]any `json:"claims,omitempty"`
}

// UserProfile is the realm account profile.
type UserProfile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}
