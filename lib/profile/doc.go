// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package profile is the read-only boundary between extraction plugins
// and a browser's on-disk stores. Plugins see only the [Profile]
// interface and its record types; the binary formats behind it (cache
// entries, the history database, session storage) are the concern of a
// concrete reader such as lib/profile/chromium.
//
// A Profile is a scoped resource: the orchestrator opens a fresh one
// per invocation through an [Opener] and closes it when the invocation
// finishes, success or failure. Implementations must tolerate many
// profiles being open over the same folder at once.
package profile
