// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package catalog builds the validated, immutable registry of every
// extraction artifact available to a run.
//
// Plugins are a compile-time contract: each plugin package exposes a
// [Plugin] value carrying its origin (the package path, standing in
// for the source file of a dynamically loaded unit) and the list of
// descriptors it contributes. A plugin contributing zero descriptors
// is legal and adds nothing. Loading fails outright on a duplicate
// artifact name or an invalid descriptor — the process must never run
// against an ambiguous catalog.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
)

var (
	// ErrDuplicateArtifact is returned by New when two descriptors,
	// from the same or different plugins, share a name.
	ErrDuplicateArtifact = errors.New("catalog: duplicate artifact name")

	// ErrUnknownArtifact is returned by Get for a name that no loaded
	// plugin registered.
	ErrUnknownArtifact = errors.New("catalog: unknown artifact")
)

// Plugin is one extraction unit's registration: where it came from and
// what it contributes.
type Plugin struct {
	// Origin identifies the plugin's source, conventionally its Go
	// package path. It appears in plugin listings and load errors.
	Origin string

	// Artifacts is the plugin's exported descriptor list.
	Artifacts []artifact.Descriptor
}

// Entry pairs a registered descriptor with the origin of the plugin
// that contributed it.
type Entry struct {
	Descriptor artifact.Descriptor
	Origin     string
}

// Catalog is the immutable name -> entry mapping built once at
// startup. Safe for concurrent readers.
type Catalog struct {
	entries map[string]Entry
	ordered []Entry
}

// New validates every plugin's descriptors and builds the catalog.
// It fails with ErrDuplicateArtifact if two descriptors share a name,
// and with a validation error if any descriptor is malformed; in both
// cases no catalog is produced and the caller must abort startup.
func New(plugins ...Plugin) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry)}

	for _, p := range plugins {
		for _, d := range p.Artifacts {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("catalog: plugin %s: %w", p.Origin, err)
			}
			if existing, ok := c.entries[d.Name]; ok {
				return nil, fmt.Errorf("%w: %q registered by both %s and %s",
					ErrDuplicateArtifact, d.Name, existing.Origin, p.Origin)
			}
			entry := Entry{Descriptor: d, Origin: p.Origin}
			c.entries[d.Name] = entry
			c.ordered = append(c.ordered, entry)
		}
	}

	// Deterministic listing order regardless of registration order.
	sort.Slice(c.ordered, func(i, j int) bool {
		a, b := c.ordered[i].Descriptor, c.ordered[j].Descriptor
		if a.Service != b.Service {
			return a.Service < b.Service
		}
		return a.Name < b.Name
	})

	return c, nil
}

// Get looks up a registered artifact by name.
func (c *Catalog) Get(name string) (Entry, error) {
	entry, ok := c.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownArtifact, name)
	}
	return entry, nil
}

// All returns every entry, sorted by service then name. The returned
// slice is shared; callers must not modify it.
func (c *Catalog) All() []Entry {
	return c.ordered
}

// Len returns the number of registered artifacts.
func (c *Catalog) Len() int {
	return len(c.entries)
}
