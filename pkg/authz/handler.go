// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package authz

import (
	"net/http"

	"github.com/tmtsoftware/csw-aas-go/pkg/session"
)

// SessionSource supplies the current session snapshot. *session.Store
// implements it.
type SessionSource interface {
	Session() *session.Snapshot
}

// Handler serves onSatisfied when the current session passes req and
// onUnsatisfied otherwise. A nil onUnsatisfied answers 403.
func Handler(source SessionSource, req Request, onSatisfied, onUnsatisfied http.Handler) http.Handler {
	if onUnsatisfied == nil {
		onUnsatisfied = http.HandlerFunc(forbidden)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if EvaluateSnapshot(req, source.Session()).Satisfied() {
			onSatisfied.ServeHTTP(w, r)
			return
		}
		onUnsatisfied.ServeHTTP(w, r)
	})
}

// Middleware guards next with req, answering 403 when unsatisfied.
func Middleware(source SessionSource, req Request) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return Handler(source, req, next, nil)
	}
}

func forbidden(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
