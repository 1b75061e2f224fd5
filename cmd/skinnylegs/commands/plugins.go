// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/CH-CLARK/mister-skinnylegs/cmd/skinnylegs/cli"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins"
)

func pluginsCommand() *cli.Command {
	return &cli.Command{
		Name:    "plugins",
		Summary: "Inspect the registered artifact plugins",
		Subcommands: []*cli.Command{
			pluginsListCommand(),
			pluginsTableCommand(),
		},
	}
}

func pluginsListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Summary: "List registered artifacts with their descriptions",
		Run: func(args []string) error {
			cat, err := builtinCatalog()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			for _, entry := range cat.All() {
				fmt.Fprintf(tw, "%s\t%s\tv%s\t%s\n",
					entry.Descriptor.Service,
					entry.Descriptor.Name,
					entry.Descriptor.Version,
					entry.Origin)
				for _, line := range strings.Split(entry.Descriptor.Description, "\n") {
					fmt.Fprintf(tw, "\t%s\t\t\n", line)
				}
			}
			return tw.Flush()
		},
	}
}

// pluginsTableCommand emits a markdown table, suitable for pasting
// into project documentation.
func pluginsTableCommand() *cli.Command {
	return &cli.Command{
		Name:    "table",
		Summary: "Print registered artifacts as a markdown table",
		Run: func(args []string) error {
			cat, err := builtinCatalog()
			if err != nil {
				return err
			}
			fmt.Println("| Plugin | Service | Artifact | Version | Description |")
			fmt.Println("| ------ | ------- | -------- | ------- | ----------- |")
			for _, entry := range cat.All() {
				description := strings.ReplaceAll(entry.Descriptor.Description, "\n", " ")
				fmt.Printf("| %s | %s | %s | %s | %s |\n",
					entry.Origin,
					entry.Descriptor.Service,
					entry.Descriptor.Name,
					entry.Descriptor.Version,
					description)
			}
			return nil
		},
	}
}

func builtinCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.New(plugins.Builtin()...)
	if err != nil {
		return nil, fmt.Errorf("plugins: %w", err)
	}
	return cat, nil
}
