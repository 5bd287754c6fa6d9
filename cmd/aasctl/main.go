// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for aasctl.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmtsoftware/csw-aas-go/cmd/aasctl/app"
	"github.com/tmtsoftware/csw-aas-go/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.NewRootCmd().ExecuteContext(ctx); err != nil {
		logger.Errorw("command failed", "error", err)
		cancel()
		os.Exit(1)
	}
}
