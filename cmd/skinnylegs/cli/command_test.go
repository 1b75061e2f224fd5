// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesSubcommand(t *testing.T) {
	var ran []string
	root := &Command{
		Name: "skinnylegs",
		Subcommands: []*Command{
			{
				Name: "plugins",
				Subcommands: []*Command{
					{Name: "list", Run: func(args []string) error {
						ran = append(ran, "list")
						return nil
					}},
				},
			},
		},
	}

	if err := root.Execute([]string{"plugins", "list"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(ran) != 1 || ran[0] != "list" {
		t.Errorf("ran = %v, want [list]", ran)
	}
}

func TestExecuteUnknownSubcommandSuggests(t *testing.T) {
	root := &Command{
		Name: "skinnylegs",
		Subcommands: []*Command{
			{Name: "run", Run: func(args []string) error { return nil }},
			{Name: "plugins", Run: func(args []string) error { return nil }},
		},
	}

	err := root.Execute([]string{"runn"})
	if err == nil {
		t.Fatal("Execute accepted an unknown subcommand")
	}
	if !strings.Contains(err.Error(), `did you mean "run"`) {
		t.Errorf("error %q has no suggestion for run", err)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var folder string
	var rest []string
	command := &Command{
		Name: "run",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.StringVarP(&folder, "profile-folder", "p", "", "")
			return flagSet
		},
		Run: func(args []string) error {
			rest = args
			return nil
		},
	}

	if err := command.Execute([]string{"-p", "/profiles/default", "extra"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if folder != "/profiles/default" {
		t.Errorf("profile-folder = %q", folder)
	}
	if len(rest) != 1 || rest[0] != "extra" {
		t.Errorf("positional args = %v", rest)
	}
}

func TestExecuteUnknownFlagSuggests(t *testing.T) {
	command := &Command{
		Name: "run",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.String("output-folder", "", "")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--output-foldr", "x"})
	if err == nil {
		t.Fatal("Execute accepted an unknown flag")
	}
	if !strings.Contains(err.Error(), "--output-folder") {
		t.Errorf("error %q has no flag suggestion", err)
	}
}

func TestExecuteSubcommandRequired(t *testing.T) {
	root := &Command{
		Name:        "skinnylegs",
		Subcommands: []*Command{{Name: "run", Run: func(args []string) error { return nil }}},
	}
	if err := root.Execute(nil); err == nil {
		t.Fatal("Execute with no args and no Run succeeded")
	}
}

func TestPrintHelpListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "skinnylegs",
		Summary: "artifact extraction",
		Subcommands: []*Command{
			{Name: "run", Summary: "run the plugins"},
			{Name: "plugins", Summary: "inspect plugins"},
		},
	}

	var out strings.Builder
	root.PrintHelp(&out)
	help := out.String()
	for _, want := range []string{"run", "plugins", "run the plugins", "<command>"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %q:\n%s", want, help)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"run", "run", 0},
		{"run", "runn", 1},
		{"plugins", "plugnis", 2},
		{"list", "table", 5},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}
