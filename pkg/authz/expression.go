// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authz

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/stacklok/toolhive-core/cel"

	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
	"github.com/tmtsoftware/csw-aas-go/pkg/session"
)

// Variables visible to gate expressions.
const (
	VarClaims        = "claims"
	VarRealmRoles    = "realm_roles"
	VarResourceRoles = "resource_roles"
)

// Expression is a compiled boolean CEL expression over a session, e.g.
//
//	"admin" in realm_roles && claims.email.endsWith("@tmt.org")
type Expression struct {
	source   string
	compiled *cel.CompiledExpression
}

func newSessionEngine() *cel.Engine {
	return cel.NewEngine(
		celgo.Variable(VarClaims, celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable(VarRealmRoles, celgo.ListType(celgo.StringType)),
		celgo.Variable(VarResourceRoles, celgo.MapType(celgo.StringType, celgo.ListType(celgo.StringType))),
	)
}

// CompileExpression compiles source. Syntax and type errors are reported here
// rather than at evaluation.
func CompileExpression(source string) (*Expression, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidRequest)
	}
	compiled, err := newSessionEngine().Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpression, err)
	}
	return &Expression{source: source, compiled: compiled}, nil
}

// ExpressionRequest compiles source into a request.
func ExpressionRequest(source string) (Request, error) {
	expr, err := CompileExpression(source)
	if err != nil {
		return Request{}, err
	}
	return Matches(expr), nil
}

// Source returns the expression text.
func (e *Expression) Source() string {
	return e.source
}

// matches evaluates e against an authenticated session. Evaluation errors,
// such as a missing claim, count as no match.
func (e *Expression) matches(s *session.Session) bool {
	ok, err := e.compiled.EvaluateBool(activation(s))
	if err != nil {
		logger.Debugw("gate expression evaluation failed", "expression", e.source, "error", err)
		return false
	}
	return ok
}

func activation(s *session.Session) map[string]any {
	realm := s.RealmRoles()
	realmRoles := make([]any, 0, len(realm))
	for _, r := range realm {
		realmRoles = append(realmRoles, r)
	}

	resource := s.ResourceRoles()
	resourceRoles := make(map[string]any, len(resource))
	for name, roles := range resource {
		list := make([]any, 0, len(roles))
		for _, r := range roles {
			list = append(list, r)
		}
		resourceRoles[name] = list
	}

	return map[string]any{
		VarClaims:        s.Claims(),
		VarRealmRoles:    realmRoles,
		VarResourceRoles: resourceRoles,
	}
}
