// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jtfrey/urltest/internal/cli"
)

// Version is set at build time via ldflags.
var Version = "1.0.0-dev"

func main() {
	cmd := cli.NewGetlistCommand(Version)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		code := 1
		if ec, ok := err.(interface{ ExitCode() int }); ok {
			code = ec.ExitCode()
		}
		os.Exit(code)
	}
}
