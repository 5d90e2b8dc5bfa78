// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for studentdir using cobra.
// Running without a subcommand starts the interactive TUI.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		// cobra already printed the error.
		os.Exit(1)
	}
}
