// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stacklok/toolhive-core/httperr"

	apierrors "github.com/tmtsoftware/csw-aas-go/pkg/api/errors"
	"github.com/tmtsoftware/csw-aas-go/pkg/authz"
)

const maxGateBodySize = 64 << 10

// GatesRoutes evaluates gates against the current session.
type GatesRoutes struct {
	source authz.SessionSource
}

// GatesRouter creates the gate routes.
func GatesRouter(source authz.SessionSource) http.Handler {
	routes := &GatesRoutes{source: source}

	r := chi.NewRouter()
	r.Get("/authenticated", routes.authenticated)
	r.Get("/realm/{role}", routes.realmRole)
	r.Get("/resource/{resource}/{role}", routes.resourceRole)
	r.Post("/evaluate", apierrors.ErrorHandler(routes.evaluate))
	return r
}

type gateResponse struct {
	Gate      authz.Request `json:"gate"`
	Satisfied bool          `json:"satisfied"`
}

func (g *GatesRoutes) decide(w http.ResponseWriter, req authz.Request) {
	decision := authz.EvaluateSnapshot(req, g.source.Session())
	writeJSON(w, http.StatusOK, gateResponse{Gate: req, Satisfied: decision.Satisfied()})
}

func (g *GatesRoutes) authenticated(w http.ResponseWriter, _ *http.Request) {
	g.decide(w, authz.AuthenticationOnly())
}

func (g *GatesRoutes) realmRole(w http.ResponseWriter, r *http.Request) {
	g.decide(w, authz.RealmRole(chi.URLParam(r, "role")))
}

func (g *GatesRoutes) resourceRole(w http.ResponseWriter, r *http.Request) {
	g.decide(w, authz.ResourceRole(chi.URLParam(r, "role"), chi.URLParam(r, "resource")))
}

// evaluate
//
//	@Summary	Evaluate a gate definition
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	gateResponse
//	@Failure	400	{string}	string	"Bad Request"
//	@Router		/gates/evaluate [post]
func (g *GatesRoutes) evaluate(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxGateBodySize))
	if err != nil {
		return httperr.WithCode(err, http.StatusBadRequest)
	}
	req, err := authz.ParseRequest(body)
	if err != nil {
		return httperr.WithCode(err, http.StatusBadRequest)
	}
	g.decide(w, req)
	return nil
}
