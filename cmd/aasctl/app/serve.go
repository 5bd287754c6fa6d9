// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tmtsoftware/csw-aas-go/pkg/api"
	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
	"github.com/tmtsoftware/csw-aas-go/pkg/session"
)

func newServeCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API on a loopback address",
		Long: `Start the local session API. Collaborators read the current session with
GET /session, trigger POST /login and POST /logout, evaluate gates under /gates
and scrape /metrics. The silent session check runs on start-up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if address == "" {
				address = cfg.API.Address
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			handler := api.NewRouter(rt.store, api.RouterOptions{Gatherer: rt.registry})

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return api.Serve(ctx, address, handler)
			})
			g.Go(func() error {
				watchSession(ctx, rt.store)
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Loopback host:port to listen on (default from config)")
	return cmd
}

// watchSession runs the start-up check and logs every published transition
// until ctx is done.
func watchSession(ctx context.Context, store *session.Store) {
	updates, cancel := store.Subscribe()
	defer cancel()

	store.InitializeOnLoad(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			logger.Infow("session updated",
				"state", snap.State.String(),
				"authenticated", snap.IsAuthenticated(),
				"version", snap.Version)
			if snap.Err != nil {
				logger.Warnw("session error", "error", snap.Err)
			}
		}
	}
}
