// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmtsoftware/csw-aas-go/pkg/location"
)

func newResolveCmd() *cobra.Command {
	var noFallback bool

	cmd := &cobra.Command{
		Use:   "resolve [service-name]",
		Short: "Resolve the authentication service URL",
		Long: `Ask the location service for the authentication service and print its URL.
Without a service name the configured discovery service name is used. When the
service is not registered the static fallback URL is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			idp := cfg.IdentityProvider
			name := idp.DiscoveryServiceName
			if len(args) == 1 {
				name = args[0]
			}

			resolver, err := location.NewResolver(cfg.Location.URL)
			if err != nil {
				return err
			}

			within := time.Duration(idp.DiscoveryTimeout)
			if noFallback {
				uri, ok := resolver.Resolve(cmd.Context(), name, within)
				if !ok {
					return fmt.Errorf("service %s is not registered", name)
				}
				fmt.Fprintln(cmd.OutOrStdout(), uri)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(),
				location.ResolveOrFallback(cmd.Context(), resolver, name, within, idp.StaticFallbackURL))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "Fail instead of printing the static fallback URL")
	return cmd
}
