// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package v1 provides version 1 of the session API handlers.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stacklok/toolhive-core/httperr"

	apierrors "github.com/tmtsoftware/csw-aas-go/pkg/api/errors"
	"github.com/tmtsoftware/csw-aas-go/pkg/identity"
	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
	"github.com/tmtsoftware/csw-aas-go/pkg/session"
)

//go:generate mockgen -destination=mocks/mock_session.go -package=mocks -source=session.go SessionManager

// SessionManager is the part of *session.Store the API uses.
type SessionManager interface {
	Session() *session.Snapshot
	Login(ctx context.Context) *session.Snapshot
	Logout(ctx context.Context) *session.Snapshot
	UserInfo(ctx context.Context) (*identity.UserInfo, error)
	UserProfile(ctx context.Context) (*identity.UserProfile, error)
}

// SessionRoutes serves the published session and the login/logout actions.
type SessionRoutes struct {
	manager SessionManager
}

// SessionRouter creates the session routes.
func SessionRouter(manager SessionManager) http.Handler {
	routes := &SessionRoutes{manager: manager}

	r := chi.NewRouter()
	r.Get("/session", routes.getSession)
	r.Group(func(r chi.Router) {
		r.Use(requireLoopbackOrigin)
		r.Post("/login", routes.login)
		r.Post("/logout", routes.logout)
	})
	r.Get("/userinfo", apierrors.ErrorHandler(routes.getUserInfo))
	r.Get("/userprofile", apierrors.ErrorHandler(routes.getUserProfile))
	return r
}

// sessionResponse is the session shape published to collaborators.
type sessionResponse struct {
	IsAuthenticated bool                `json:"isAuthenticated"`
	State           string              `json:"state"`
	Token           string              `json:"token,omitempty"`
	Subject         string              `json:"subject,omitempty"`
	ClientID        string              `json:"clientId,omitempty"`
	RealmRoles      []string            `json:"realmRoles"`
	ResourceRoles   map[string][]string `json:"resourceRoles"`
	Expiry          *time.Time          `json:"expiry,omitempty"`
	Endpoint        string              `json:"endpoint,omitempty"`
	Error           string              `json:"error,omitempty"`
	Version         uint64              `json:"version"`
}

func newSessionResponse(snap *session.Snapshot) sessionResponse {
	resp := sessionResponse{
		State:         session.Unresolved.String(),
		RealmRoles:    []string{},
		ResourceRoles: map[string][]string{},
	}
	if snap == nil {
		return resp
	}

	resp.State = snap.State.String()
	resp.Endpoint = snap.Endpoint
	resp.Version = snap.Version
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}

	s := snap.Session
	if s == nil {
		return resp
	}
	resp.ClientID = s.ClientID()
	if !s.IsAuthenticated() {
		return resp
	}
	resp.IsAuthenticated = true
	resp.Token = s.Token()
	resp.Subject = s.Subject()
	if roles := s.RealmRoles(); roles != nil {
		resp.RealmRoles = roles
	}
	if roles := s.ResourceRoles(); roles != nil {
		resp.ResourceRoles = roles
	}
	if expiry := s.Expiry(); !expiry.IsZero() {
		resp.Expiry = &expiry
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorw("failed to encode response", "error", err)
	}
}

// getSession
//
//	@Summary	Current session
//	@Produce	json
//	@Success	200	{object}	sessionResponse
//	@Router		/session [get]
func (s *SessionRoutes) getSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newSessionResponse(s.manager.Session()))
}

// login
//
//	@Summary	Run an interactive login
//	@Produce	json
//	@Success	200	{object}	sessionResponse
//	@Router		/login [post]
func (s *SessionRoutes) login(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionResponse(s.manager.Login(r.Context())))
}

// logout
//
//	@Summary	End the current session
//	@Produce	json
//	@Success	200	{object}	sessionResponse
//	@Router		/logout [post]
func (s *SessionRoutes) logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionResponse(s.manager.Logout(r.Context())))
}

// getUserInfo
//
//	@Summary	Provider userinfo for the current session
//	@Produce	json
//	@Success	200	{object}	identity.UserInfo
//	@Failure	401	{string}	string	"Unauthorized"
//	@Failure	502	{string}	string	"Bad Gateway"
//	@Router		/userinfo [get]
func (s *SessionRoutes) getUserInfo(w http.ResponseWriter, r *http.Request) error {
	info, err := s.manager.UserInfo(r.Context())
	if err != nil {
		return withSessionCode(err)
	}
	writeJSON(w, http.StatusOK, info)
	return nil
}

// getUserProfile
//
//	@Summary	Account profile for the current session
//	@Produce	json
//	@Success	200	{object}	identity.UserProfile
//	@Failure	401	{string}	string	"Unauthorized"
//	@Failure	502	{string}	string	"Bad Gateway"
//	@Router		/userprofile [get]
func (s *SessionRoutes) getUserProfile(w http.ResponseWriter, r *http.Request) error {
	profile, err := s.manager.UserProfile(r.Context())
	if err != nil {
		return withSessionCode(err)
	}
	writeJSON(w, http.StatusOK, profile)
	return nil
}

func withSessionCode(err error) error {
	switch {
	case errors.Is(err, session.ErrNoSession), errors.Is(err, identity.ErrNotAuthenticated):
		return httperr.WithCode(err, http.StatusUnauthorized)
	case errors.Is(err, session.ErrClosed):
		return httperr.WithCode(err, http.StatusServiceUnavailable)
	default:
		return httperr.WithCode(err, http.StatusBadGateway)
	}
}
