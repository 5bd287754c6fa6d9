// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import "errors"

// Failure taxonomy. None of these are returned by Store operations; they are
// recorded on the published Snapshot's Err.
var (
	// ErrDiscoveryUnresolved means the location service did not know the auth
	// service and no static fallback URL was configured.
	ErrDiscoveryUnresolved = errors.New("auth service endpoint could not be resolved")

	// ErrInitializationFailed means the identity adapter could not initialize a session.
	ErrInitializationFailed = errors.New("session initialization failed")

	// ErrRefreshFailed means a scheduled token refresh failed and the session was dropped.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrLogoutFailed means the provider did not confirm logout. The local
	// session is cleared anyway.
	ErrLogoutFailed = errors.New("logout failed")
)

var (
	// ErrInvalidSession is returned when a handle cannot back a session.
	ErrInvalidSession = errors.New("invalid session")

	// ErrNoSession is returned by reads that need an authenticated session.
	ErrNoSession = errors.New("no authenticated session")

	// ErrClosed is returned by reads issued after Close.
	ErrClosed = errors.New("session store is closed")
)
