// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package artifact

import "io"

// BinaryOutput is one exported side-artifact file. Writes stream to a
// file under the invocation's storage namespace. The caller must Close
// the output before its extraction function returns; Close flushes the
// file and finalizes the content digest.
type BinaryOutput interface {
	io.Writer
	io.Closer

	// Location returns the stable, serializable reference for this
	// output, relative to the report root. Result records refer to
	// exported payloads exclusively through this string — never by
	// embedding raw bytes.
	Location() string

	// Digest returns the lowercase hex BLAKE3 digest of everything
	// written so far. Call after Close for the digest of the whole
	// file.
	Digest() string
}

// Storage is the scoped, per-invocation resource through which an
// extraction function exports binary files. Implementations guarantee
// that two outputs created within the same scope never collide, even
// when the suggested names are identical or sanitize to the same
// string, and that no suggested name can escape the storage namespace.
type Storage interface {
	// NewBinaryOutput creates a new output file under the invocation's
	// namespace. suggestedName is sanitized and de-duplicated; the
	// actual name used is reflected in the output's Location.
	NewBinaryOutput(suggestedName string) (BinaryOutput, error)
}

// StorageMaker builds the storage handle for one invocation of the
// given artifact. The orchestrator calls it once per invocation so
// that every artifact writes to its own disjoint namespace.
type StorageMaker func(d Descriptor) Storage
