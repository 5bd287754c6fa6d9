// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session holds the process-wide session store: a single-writer state
// machine that resolves the auth service, initializes the identity adapter,
// keeps the token fresh and publishes immutable session snapshots to any
// number of readers.
package session

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/tmtsoftware/csw-aas-go/pkg/identity"
)

// Session is an immutable view of one identity handle at one point in time.
// The zero value and nil are unauthenticated.
type Session struct {
	token         string
	claims        map[string]any
	realmRoles    []string
	resourceRoles map[string][]string
	authenticated bool
	subject       string
	clientID      string
	expiry        time.Time
	clock         func() time.Time
}

// FromHandle captures the current state of h.
func FromHandle(h identity.Handle) (*Session, error) {
	return newSession(h, time.Now)
}

// newSession rejects an authenticated handle whose token is empty or already
// expired. clock also decides when the session stops being authenticated.
func newSession(h identity.Handle, clock func() time.Time) (*Session, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: no handle", ErrInvalidSession)
	}

	if clock == nil {
		clock = time.Now
	}
	s := &Session{
		clock:         clock,
		clientID:      h.ClientID(),
		claims:        map[string]any{},
		resourceRoles: map[string][]string{},
	}
	if !h.IsAuthenticated() {
		return s, nil
	}

	s.token = h.Token()
	if s.token == "" {
		return nil, fmt.Errorf("%w: authenticated handle has no token", ErrInvalidSession)
	}
	s.expiry = h.Expiry()
	if s.expiredAt(clock()) {
		return nil, fmt.Errorf("%w: token expired at %s", ErrInvalidSession, s.expiry.Format(time.RFC3339))
	}

	s.authenticated = true
	s.subject = h.Subject()
	if claims := h.TokenClaims(); claims != nil {
		s.claims = maps.Clone(claims)
	}
	s.realmRoles = slices.Clone(h.RealmRoles())
	for resource, roles := range h.ResourceRoles() {
		s.resourceRoles[resource] = slices.Clone(roles)
	}
	return s, nil
}

// IsAuthenticated reports whether the session is authenticated and its token
// has not expired.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.authenticated && !s.expiredAt(s.clock())
}

func (s *Session) expiredAt(now time.Time) bool {
	return !s.expiry.IsZero() && !now.Before(s.expiry)
}

// Token returns the access token, or "" when unauthenticated.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// Claims returns a copy of the access token claims.
func (s *Session) Claims() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return maps.Clone(s.claims)
}

// RealmRoles returns a copy of the realm roles.
func (s *Session) RealmRoles() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.realmRoles)
}

// ResourceRoles returns a copy of the resource roles keyed by resource.
func (s *Session) ResourceRoles() map[string][]string {
	out := map[string][]string{}
	if s == nil {
		return out
	}
	for resource, roles := range s.resourceRoles {
		out[resource] = slices.Clone(roles)
	}
	return out
}

// Subject returns the token subject.
func (s *Session) Subject() string {
	if s == nil {
		return ""
	}
	return s.subject
}

// ClientID returns the client the session was initialized for.
func (s *Session) ClientID() string {
	if s == nil {
		return ""
	}
	return s.clientID
}

// Expiry returns the token expiry, or the zero time when unknown.
func (s *Session) Expiry() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.expiry
}

// HasRealmRole reports whether the session is authenticated and holds role.
func (s *Session) HasRealmRole(role string) bool {
	return s.IsAuthenticated() && slices.Contains(s.realmRoles, role)
}

// HasResourceRole reports whether the session is authenticated and holds role
// on resource. An empty resource means the session's client.
func (s *Session) HasResourceRole(role, resource string) bool {
	if !s.IsAuthenticated() {
		return false
	}
	if resource == "" {
		resource = s.clientID
	}
	return slices.Contains(s.resourceRoles[resource], role)
}

// String returns a representation with the token left out.
func (s *Session) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Session{Authenticated:%t Subject:%q ClientID:%q}", s.IsAuthenticated(), s.subject, s.clientID)
}

// MarshalJSON implements json.Marshaler with the token redacted.
func (s *Session) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	type safeSession struct {
		IsAuthenticated bool                `json:"isAuthenticated"`
		Subject         string              `json:"subject,omitempty"`
		ClientID        string              `json:"clientId"`
		RealmRoles      []string            `json:"realmRoles"`
		ResourceRoles   map[string][]string `json:"resourceRoles"`
		Expiry          *time.Time          `json:"expiry,omitempty"`
		Token           string              `json:"token,omitempty"`
	}

	out := safeSession{
		IsAuthenticated: s.IsAuthenticated(),
		Subject:         s.subject,
		ClientID:        s.clientID,
		RealmRoles:      s.RealmRoles(),
		ResourceRoles:   s.ResourceRoles(),
	}
	if out.RealmRoles == nil {
		out.RealmRoles = []string{}
	}
	if !s.expiry.IsZero() {
		expiry := s.expiry
		out.Expiry = &expiry
	}
	if s.token != "" {
		out.Token = "REDACTED"
	}
	return json.Marshal(&out)
}
