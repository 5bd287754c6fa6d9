// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package authz evaluates declarative access gates over a published session.
//
// Evaluation is pure and synchronous. An absent or unauthenticated session
// never satisfies a gate, whatever its kind.
package authz

import (
	"fmt"

	"github.com/tmtsoftware/csw-aas-go/pkg/session"
)

// Kind identifies what a Request checks.
type Kind int

const (
	// KindAuthenticationOnly is satisfied by any authenticated session.
	KindAuthenticationOnly Kind = iota + 1
	// KindRealmRole requires a realm role.
	KindRealmRole
	// KindResourceRole requires a role on a resource.
	KindResourceRole
	// KindExpression requires a CEL expression over the session to hold.
	KindExpression
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticationOnly:
		return "authenticated"
	case KindRealmRole:
		return "realm_role"
	case KindResourceRole:
		return "resource_role"
	case KindExpression:
		return "expression"
	default:
		return "unknown"
	}
}

// Decision is the outcome of evaluating a Request.
type Decision int

const (
	// Unsatisfied is the zero Decision.
	Unsatisfied Decision = iota
	// Satisfied means the session passes the gate.
	Satisfied
)

func (d Decision) String() string {
	if d == Satisfied {
		return "satisfied"
	}
	return "unsatisfied"
}

// Satisfied reports whether d is Satisfied.
func (d Decision) Satisfied() bool {
	return d == Satisfied
}

// Request is an immutable gate check. The zero Request is never satisfied.
type Request struct {
	kind     Kind
	role     string
	resource string
	expr     *Expression
}

// AuthenticationOnly returns a request satisfied by any authenticated session.
func AuthenticationOnly() Request {
	return Request{kind: KindAuthenticationOnly}
}

// RealmRole returns a request for the realm role role.
func RealmRole(role string) Request {
	return Request{kind: KindRealmRole, role: role}
}

// ResourceRole returns a request for role on resource. An empty resource
// means the session's own client.
func ResourceRole(role, resource string) Request {
	return Request{kind: KindResourceRole, role: role, resource: resource}
}

// Matches returns a request satisfied when expr evaluates to true.
func Matches(expr *Expression) Request {
	return Request{kind: KindExpression, expr: expr}
}

// Kind returns the request kind.
func (r Request) Kind() Kind { return r.kind }

// Role returns the required role, if any.
func (r Request) Role() string { return r.role }

// Resource returns the resource of a resource role request. Empty means the
// session's client.
func (r Request) Resource() string { return r.resource }

func (r Request) String() string {
	switch r.kind {
	case KindRealmRole:
		return fmt.Sprintf("realm_role(%s)", r.role)
	case KindResourceRole:
		if r.resource == "" {
			return fmt.Sprintf("resource_role(%s)", r.role)
		}
		return fmt.Sprintf("resource_role(%s, %s)", r.role, r.resource)
	case KindExpression:
		if r.expr == nil {
			return "expression()"
		}
		return fmt.Sprintf("expression(%s)", r.expr.Source())
	default:
		return r.kind.String()
	}
}

// Evaluate checks req against s. A nil s stands for a store that has not
// resolved yet.
func Evaluate(req Request, s *session.Session) Decision {
	if !s.IsAuthenticated() {
		return Unsatisfied
	}

	var ok bool
	switch req.kind {
	case KindAuthenticationOnly:
		ok = true
	case KindRealmRole:
		ok = req.role != "" && s.HasRealmRole(req.role)
	case KindResourceRole:
		ok = req.role != "" && s.HasResourceRole(req.role, req.resource)
	case KindExpression:
		ok = req.expr != nil && req.expr.matches(s)
	}
	if ok {
		return Satisfied
	}
	return Unsatisfied
}

// EvaluateSnapshot evaluates req against the session carried by snap.
func EvaluateSnapshot(req Request, snap *session.Snapshot) Decision {
	if snap == nil {
		return Unsatisfied
	}
	return Evaluate(req, snap.Session)
}
