// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Aurorastat - NDI Aurora Serial Protocol Tool
//
// A CLI tool for driving an NDI Aurora electromagnetic tracking system
// over its serial ASCII command protocol.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/Thermoquad/aurorastat/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
