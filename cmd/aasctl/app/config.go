// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tmtsoftware/csw-aas-go/pkg/config"
	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Load the configuration (file, environment overrides and defaults) and check it.

This command checks:
- YAML syntax and unknown fields
- Required identity provider fields
- URLs, durations and loopback addresses`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				logger.Errorf("Configuration validation failed: %v", err)
				return err
			}

			idp := cfg.IdentityProvider
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✓ Configuration is valid")
			fmt.Fprintf(out, "  Realm: %s\n", idp.Realm)
			fmt.Fprintf(out, "  Client: %s\n", idp.ClientID)
			fmt.Fprintf(out, "  Discovery: %s via %s\n", idp.DiscoveryServiceName, cfg.Location.URL)
			fmt.Fprintf(out, "  Fallback URL: %s\n", idp.StaticFallbackURL)
			fmt.Fprintf(out, "  Flow: %s\n", idp.Flow)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewYAMLLoader(viper.GetString("config"), nil).Load()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}
