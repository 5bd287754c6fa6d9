// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

// State is the session store's lifecycle state.
type State int

const (
	// Unresolved is the initial state: nothing has been attempted yet.
	Unresolved State = iota
	// Resolving means an initialization is in flight.
	Resolving
	// Authenticated means a valid session is published.
	Authenticated
	// Unauthenticated means the provider was reached but there is no user session.
	Unauthenticated
	// Failed means the last initialization did not complete. Login leaves it.
	Failed
)

var stateNames = [...]string{
	Unresolved:      "unresolved",
	Resolving:       "resolving",
	Authenticated:   "authenticated",
	Unauthenticated: "unauthenticated",
	Failed:          "failed",
}

// String returns the lower-case state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is one published store value. Snapshots are never modified after
// publication; a transition publishes a new one.
type Snapshot struct {
	// State is the lifecycle state.
	State State

	// Session is the current session. It is nil while Unresolved, after a
	// failure, after logout and after a failed refresh. While Resolving it
	// carries the previous session, if any.
	Session *Session

	// Err records why the last transition failed, wrapping one of the
	// taxonomy errors.
	Err error

	// Endpoint is the auth service URL the session was initialized against.
	Endpoint string

	// Version increases by one with every publication.
	Version uint64
}

// IsAuthenticated reports whether the snapshot carries an authenticated session.
func (s *Snapshot) IsAuthenticated() bool {
	return s != nil && s.Session.IsAuthenticated()
}
