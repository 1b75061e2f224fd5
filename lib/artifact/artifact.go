// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"fmt"
	"log/slog"

	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

// Presentation is a hint to the report writer about how an artifact's
// records should be presented beyond the canonical JSON document.
type Presentation uint8

const (
	// PresentationDocument produces only the JSON report. Use this
	// for nested or heterogeneous records that do not tabulate well.
	PresentationDocument Presentation = iota

	// PresentationTable additionally produces a CSV rendering of the
	// records, one column per distinct key in first-seen order.
	PresentationTable
)

// String returns the human-readable name of a presentation hint.
func (p Presentation) String() string {
	switch p {
	case PresentationDocument:
		return "document"
	case PresentationTable:
		return "table"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// ParsePresentation parses a presentation hint from its string form.
func ParsePresentation(name string) (Presentation, error) {
	switch name {
	case "document":
		return PresentationDocument, nil
	case "table":
		return PresentationTable, nil
	default:
		return 0, fmt.Errorf("artifact: unknown presentation: %q", name)
	}
}

// Record is one extracted finding. The schema is defined entirely by
// the plugin that produced it; the framework only requires that values
// are JSON-serializable.
type Record = map[string]any

// Result is the ordered sequence of records one extraction function
// recovered. It may be empty, in which case the report writer skips
// the artifact's report file.
type Result []Record

// ExtractFunc is the function a plugin registers for one artifact. It
// receives a read-only profile handle, a log sink scoped to the
// invocation, and a storage handle for exporting binary side-artifacts.
//
// The function must treat the profile as read-only and must not retain
// the profile or storage handles after returning: both are scoped to
// the invocation and released by the orchestrator. A returned error
// (or a panic) marks the invocation as failed without affecting other
// artifacts in the same run.
type ExtractFunc func(p profile.Profile, logger *slog.Logger, store Storage) (Result, error)

// Descriptor describes one extraction unit: the owning service, a
// catalog-wide unique name, and the function that performs the
// extraction. Descriptors are immutable once registered; the catalog
// owns them for the life of the process.
type Descriptor struct {
	// Service is the website or web application the artifact belongs
	// to (e.g. "ChatGPT"). It becomes the report subdirectory name.
	Service string

	// Name uniquely identifies the artifact across the whole catalog
	// (e.g. "ChatGPT Chat Information"). It becomes the report file
	// name. Duplicate names are a fatal load-time condition.
	Name string

	// Description is a human-readable summary shown in plugin listings
	// and embedded in the report document.
	Description string

	// Version is the plugin-defined version string for this artifact.
	Version string

	// Extract performs the extraction. Required.
	Extract ExtractFunc

	// Presentation hints how the report writer should render the
	// records.
	Presentation Presentation
}

// Validate reports whether the descriptor satisfies the plugin
// contract. The catalog refuses to load a plugin set containing an
// invalid descriptor.
func (d Descriptor) Validate() error {
	if d.Service == "" {
		return fmt.Errorf("artifact: descriptor %q: empty service", d.Name)
	}
	if d.Name == "" {
		return fmt.Errorf("artifact: descriptor (service %q): empty name", d.Service)
	}
	if d.Version == "" {
		return fmt.Errorf("artifact: descriptor %q: empty version", d.Name)
	}
	if d.Extract == nil {
		return fmt.Errorf("artifact: descriptor %q: nil extract function", d.Name)
	}
	return nil
}

// Envelope is the uniform wrapper for one completed invocation: the
// originating descriptor's metadata plus either the extracted records
// or the failure that ended the invocation. Exactly one envelope is
// produced per catalog entry per run.
type Envelope struct {
	Service      string
	Name         string
	Version      string
	Description  string
	Presentation Presentation

	// Result holds the extracted records. Nil or empty when the
	// invocation failed or recovered nothing.
	Result Result

	// Err is non-nil when the extraction function returned an error
	// or panicked. A failed envelope still counts toward the
	// one-envelope-per-entry guarantee of a run.
	Err error
}

// Failed reports whether the invocation ended in an extraction failure.
func (e Envelope) Failed() bool {
	return e.Err != nil
}
