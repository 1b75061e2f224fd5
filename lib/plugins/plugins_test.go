// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package plugins

import (
	"testing"

	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
)

func TestBuiltinLoads(t *testing.T) {
	cat, err := catalog.New(Builtin()...)
	if err != nil {
		t.Fatalf("builtin plugins failed to load: %v", err)
	}
	if cat.Len() == 0 {
		t.Fatal("builtin catalog is empty")
	}

	// Spot-check a few registrations survive renames.
	for _, name := range []string{
		"Bing searches",
		"Binance Balances",
		"ChatGPT Chat Information",
		"Coinbase Transactions",
		"Discord Chat Messages",
		"Dropbox Thumbnails",
		"Google searches",
		"Google Drive Files and Folders",
		"O365-Sharepoint recent files",
		"Sessionstorage",
	} {
		if _, err := cat.Get(name); err != nil {
			t.Errorf("Get(%q): %v", name, err)
		}
	}
}

func TestBuiltinDescriptorsAreComplete(t *testing.T) {
	for _, plugin := range Builtin() {
		if plugin.Origin == "" {
			t.Error("plugin with empty origin")
		}
		for _, descriptor := range plugin.Artifacts {
			if err := descriptor.Validate(); err != nil {
				t.Errorf("%s: %v", plugin.Origin, err)
			}
			if descriptor.Description == "" {
				t.Errorf("%s: %s has no description", plugin.Origin, descriptor.Name)
			}
		}
	}
}
