// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/CH-CLARK/mister-skinnylegs/cmd/skinnylegs/commands"
)

func main() {
	if err := commands.Root().Execute(os.Args[1:]); err != nil {
		// Commands that report their own outcome (like run with failed
		// artifacts) return an ExitError carrying the desired code.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
