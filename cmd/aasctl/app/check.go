// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tmtsoftware/csw-aas-go/pkg/authz"
)

var errGateUnsatisfied = errors.New("gate not satisfied")

func newCheckCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check [gate-json]",
		Short: "Log in and evaluate an access gate",
		Long: `Evaluate a gate definition against the session, logging in first if needed.
The gate is given inline or with --file (JSON or YAML), for example:

  aasctl check '{"type":"realm_role","role":"admin"}'
  aasctl check '{"type":"resource_role","role":"writer","resource":"csw-config"}'
  aasctl check '{"type":"expression","expression":"\"observer\" in realm_roles"}'

The command exits non-zero when the gate is not satisfied.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := gateFromArgs(args, file)
			if err != nil {
				return err
			}

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

			decision := authz.EvaluateSnapshot(req, snap)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", req, decision)
			if !decision.Satisfied() {
				return fmt.Errorf("%w: %s", errGateUnsatisfied, req)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the gate definition from a JSON or YAML file")
	return cmd
}

func gateFromArgs(args []string, file string) (authz.Request, error) {
	switch {
	case file != "" && len(args) > 0:
		return authz.Request{}, errors.New("give the gate inline or with --file, not both")
	case file != "":
		return authz.LoadRequest(file)
	case len(args) == 1:
		return authz.ParseRequest([]byte(args[0]))
	default:
		return authz.Request{}, errors.New("a gate definition is required")
	}
}
