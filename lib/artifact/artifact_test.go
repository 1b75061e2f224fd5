// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

func TestPresentationString(t *testing.T) {
	tests := []struct {
		presentation Presentation
		want         string
	}{
		{PresentationDocument, "document"},
		{PresentationTable, "table"},
		{Presentation(42), "unknown(42)"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			if got := test.presentation.String(); got != test.want {
				t.Errorf("String() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestParsePresentation(t *testing.T) {
	tests := []struct {
		input   string
		want    Presentation
		wantErr bool
	}{
		{"document", PresentationDocument, false},
		{"table", PresentationTable, false},
		{"", 0, true},
		{"Table", 0, true},
		{"csv", 0, true},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, err := ParsePresentation(test.input)
			if test.wantErr {
				if err == nil {
					t.Fatalf("ParsePresentation(%q) succeeded, want error", test.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePresentation(%q): %v", test.input, err)
			}
			if got != test.want {
				t.Errorf("ParsePresentation(%q) = %v, want %v", test.input, got, test.want)
			}
		})
	}
}

func noopExtract(p profile.Profile, logger *slog.Logger, store Storage) (Result, error) {
	return nil, nil
}

func TestDescriptorValidate(t *testing.T) {
	valid := Descriptor{
		Service: "Example",
		Name:    "Example Artifact",
		Version: "0.1",
		Extract: noopExtract,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() on valid descriptor: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Descriptor)
		wantSub string
	}{
		{"empty service", func(d *Descriptor) { d.Service = "" }, "empty service"},
		{"empty name", func(d *Descriptor) { d.Name = "" }, "empty name"},
		{"empty version", func(d *Descriptor) { d.Version = "" }, "empty version"},
		{"nil extract", func(d *Descriptor) { d.Extract = nil }, "nil extract"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := valid
			test.mutate(&d)
			err := d.Validate()
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), test.wantSub) {
				t.Errorf("Validate() = %q, want substring %q", err, test.wantSub)
			}
		})
	}
}

func TestEnvelopeFailed(t *testing.T) {
	if (Envelope{}).Failed() {
		t.Error("zero envelope reports failed")
	}
	if !(Envelope{Err: errors.New("boom")}).Failed() {
		t.Error("envelope with error does not report failed")
	}
	// Empty result and failure are distinct outcomes.
	if (Envelope{Result: Result{}}).Failed() {
		t.Error("empty-result envelope reports failed")
	}
}
