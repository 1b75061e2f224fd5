// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package artifact defines the data model shared by every extraction
// plugin and by the framework that runs them: the [Descriptor] a plugin
// registers, the [Result] records an extraction function returns, the
// [Envelope] the orchestrator wraps them in, and the [Storage] contract
// through which a plugin exports binary side-artifacts.
//
// Everything in this package is plain data plus small interfaces. The
// concrete storage implementation lives in lib/storage, the profile
// reader boundary in lib/profile, and the orchestration in lib/runner.
package artifact
