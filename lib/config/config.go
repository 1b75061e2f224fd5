// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package config provides optional run configuration.
//
// Configuration is loaded from a single YAML file passed explicitly
// via the --config flag. There are no fallbacks, search paths, or
// environment overrides: a forensic run must be reproducible from the
// command line plus one named file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Run configures one extraction run. The zero value is a valid
// default configuration.
type Run struct {
	// Workers is the number of concurrent invocations. Zero selects
	// the runner's default.
	Workers int `yaml:"workers"`

	// IncludeArtifacts restricts the run to the named artifacts. An
	// empty list means all registered artifacts.
	IncludeArtifacts []string `yaml:"include_artifacts"`

	// ExcludeArtifacts removes the named artifacts from the run.
	// Mutually exclusive with IncludeArtifacts.
	ExcludeArtifacts []string `yaml:"exclude_artifacts"`
}

// Default returns the configuration used when no --config file is
// given.
func Default() *Run {
	return &Run{}
}

// Load reads and strictly parses a run configuration. Unknown fields
// are an error: a typo in a config file must not silently change what
// a run does.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var run Run
	if err := decoder.Decode(&run); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := run.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &run, nil
}

func (r *Run) validate() error {
	if r.Workers < 0 {
		return fmt.Errorf("workers must not be negative (got %d)", r.Workers)
	}
	if len(r.IncludeArtifacts) > 0 && len(r.ExcludeArtifacts) > 0 {
		return fmt.Errorf("include_artifacts and exclude_artifacts are mutually exclusive")
	}
	return nil
}

// Selects reports whether the named artifact is part of this run.
func (r *Run) Selects(name string) bool {
	if len(r.IncludeArtifacts) > 0 {
		for _, included := range r.IncludeArtifacts {
			if included == name {
				return true
			}
		}
		return false
	}
	for _, excluded := range r.ExcludeArtifacts {
		if excluded == name {
			return false
		}
	}
	return true
}
