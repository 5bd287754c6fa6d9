// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
	"github.com/tmtsoftware/csw-aas-go/pkg/session"
)

var errNotAuthenticated = errors.New("login did not produce an authenticated session")

func newLoginCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the resulting session",
		Long: `Resolve the authentication service, open the browser at its login page and
wait for the redirect on the loopback callback address. The access token is
never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := establishSession(cmd.Context(), rt.store)
			if err != nil {
				return err
			}
			return printSession(cmd.OutOrStdout(), snap, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the session as JSON")
	return cmd
}

// sessionStore is the part of the session store the commands drive.
type sessionStore interface {
	InitializeOnLoad(ctx context.Context) *session.Snapshot
	Login(ctx context.Context) *session.Snapshot
}

// establishSession reuses an existing session when the silent check finds
// one and falls back to an interactive login.
func establishSession(ctx context.Context, store sessionStore) (*session.Snapshot, error) {
	snap := store.InitializeOnLoad(ctx)
	if snap.IsAuthenticated() {
		return snap, nil
	}

	logger.Infow("no existing session, starting interactive login", "state", snap.State.String())
	snap = store.Login(ctx)
	if snap.IsAuthenticated() {
		return snap, nil
	}
	if snap.Err != nil {
		return snap, fmt.Errorf("%w: %w", errNotAuthenticated, snap.Err)
	}
	return snap, errNotAuthenticated
}

type sessionOutput struct {
	State    string           `json:"state"`
	Endpoint string           `json:"endpoint,omitempty"`
	Session  *session.Session `json:"session"`
}

func printSession(w io.Writer, snap *session.Snapshot, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sessionOutput{State: snap.State.String(), Endpoint: snap.Endpoint, Session: snap.Session})
	}

	s := snap.Session
	fmt.Fprintf(w, "State:          %s\n", snap.State)
	fmt.Fprintf(w, "Auth service:   %s\n", snap.Endpoint)
	fmt.Fprintf(w, "Subject:        %s\n", s.Subject())
	fmt.Fprintf(w, "Client:         %s\n", s.ClientID())
	fmt.Fprintf(w, "Realm roles:    %s\n", strings.Join(s.RealmRoles(), ", "))

	resourceRoles := s.ResourceRoles()
	for _, resource := range slices.Sorted(maps.Keys(resourceRoles)) {
		fmt.Fprintf(w, "Resource roles: %s: %s\n", resource, strings.Join(resourceRoles[resource], ", "))
	}
	if expiry := s.Expiry(); !expiry.IsZero() {
		fmt.Fprintf(w, "Expires:        %s\n", expiry.Local().Format(time.RFC3339))
	}
	return nil
}
