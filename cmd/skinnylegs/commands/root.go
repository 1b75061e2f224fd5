// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package commands assembles the skinnylegs command tree.
package commands

import (
	"github.com/CH-CLARK/mister-skinnylegs/cmd/skinnylegs/cli"
)

// Version is the tool version reported in logs and help output.
const Version = "0.1.0"

const banner = `
╔╦╗┬┌─┐┌┬┐┌─┐┬─┐
║║║│└─┐ │ ├┤ ├┬┘
╩ ╩┴└─┘ ┴ └─┘┴└─
╔═╗┬┌─┬┌┐┌┌┐┌┬ ┬┬  ┌─┐┌─┐┌─┐
╚═╗├┴┐│││││││└┬┘│  ├┤ │ ┬└─┐
╚═╝┴ ┴┴┘└┘┘└┘ ┴ ┴─┘└─┘└─┘└─┘
`

// Root returns the top-level skinnylegs command.
func Root() *cli.Command {
	return &cli.Command{
		Name:        "skinnylegs",
		Summary:     "an open plugin framework for parsing website/webapp artifacts in browser data",
		Description: "Mister Skinnylegs extracts website and web app artifacts from browser\nprofile folders using a catalog of compiled-in plugins.",
		Subcommands: []*cli.Command{
			runCommand(),
			pluginsCommand(),
		},
	}
}
