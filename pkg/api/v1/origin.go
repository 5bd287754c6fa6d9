// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"net/http"
	"net/url"

	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
	"github.com/tmtsoftware/csw-aas-go/pkg/networking"
)

// requireLoopbackOrigin rejects browser requests sent from pages that are not
// served from the local host. Requests without an Origin header, such as those
// from CLI tools, pass.
func requireLoopbackOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
			rejectOrigin(w, r, "cross-site fetch")
			return
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" || !networking.IsLocalhost(u.Host) {
			rejectOrigin(w, r, origin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rejectOrigin(w http.ResponseWriter, r *http.Request, origin string) {
	logger.Warnw("rejected request from foreign origin", "path", r.URL.Path, "origin", origin)
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
