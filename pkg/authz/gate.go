// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authz

import "github.com/tmtsoftware/csw-aas-go/pkg/session"

// Gate pairs a Request with the content shown for each outcome.
// OnUnsatisfied may be nil, meaning nothing is shown.
type Gate[T any] struct {
	Request       Request
	OnSatisfied   T
	OnUnsatisfied *T
}

// NewGate returns a gate with no unsatisfied content.
func NewGate[T any](req Request, onSatisfied T) Gate[T] {
	return Gate[T]{Request: req, OnSatisfied: onSatisfied}
}

// Otherwise returns a copy of g that shows content when unsatisfied.
func (g Gate[T]) Otherwise(content T) Gate[T] {
	g.OnUnsatisfied = &content
	return g
}

// Render picks the content for s. The boolean is false when there is nothing
// to show.
func (g Gate[T]) Render(s *session.Session) (T, bool) {
	if Evaluate(g.Request, s).Satisfied() {
		return g.OnSatisfied, true
	}
	if g.OnUnsatisfied != nil {
		return *g.OnUnsatisfied, true
	}
	var zero T
	return zero, false
}
