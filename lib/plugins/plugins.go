// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package plugins aggregates the built-in artifact plugins.
package plugins

import (
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/binance"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/bing"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/chatgpt"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/coinbase"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/discord"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/dropbox"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/duckduckgo"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/google"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/googledrive"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/o365"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins/storagedump"
)

// Builtin returns every plugin shipped with the binary. Plugins are
// compiled in rather than discovered at runtime; new plugins register
// themselves by being added here.
func Builtin() []catalog.Plugin {
	return []catalog.Plugin{
		binance.Plugin(),
		bing.Plugin(),
		chatgpt.Plugin(),
		coinbase.Plugin(),
		discord.Plugin(),
		dropbox.Plugin(),
		duckduckgo.Plugin(),
		google.Plugin(),
		googledrive.Plugin(),
		o365.Plugin(),
		storagedump.Plugin(),
	}
}
