// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the aasctl command tree.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
)

// NewRootCmd creates the root command for aasctl.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "aasctl",
		DisableAutoGenTag: true,
		Short:             "aasctl manages a TMT authentication session",
		Long: `aasctl resolves the authentication service through the location service,
logs in against its OpenID Connect realm, keeps the session fresh and evaluates
access gates over it. It can also serve the session to local tools over HTTP.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				logger.Errorf("Error displaying help: %v", err)
			}
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		logger.Errorf("Error binding config flag: %v", err)
	}

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
