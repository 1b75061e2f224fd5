// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package storage implements the artifact.Storage contract on the
// local filesystem.
//
// Each invocation gets its own [Filesystem] scoped to a per-artifact
// folder (<service>/<name>_files inside the report root), so no two
// artifacts ever contend for a file name. Within one scope, suggested
// names are sanitized and de-duplicated, so even two requests for the
// same name yield distinct files. Every output is hashed with BLAKE3
// as it is written; the digest is available from the stream and is
// logged on close, giving reports a verifiable link to the exported
// bytes.
package storage

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
)

// Filesystem is a per-invocation artifact.Storage rooted at one
// service directory. Safe for concurrent use by a single plugin that
// writes from multiple goroutines, though plugins rarely do.
type Filesystem struct {
	root   string // service directory inside the report root
	folder string // sanitized artifact folder name, e.g. "ChatGPT_Chat_Information_files"
	logger *slog.Logger

	mu     sync.Mutex
	issued map[string]struct{} // final file names handed out in this scope
}

// NewFilesystem creates a storage scope that writes under
// root/folder. folder is sanitized before use. Nothing is created on
// disk until the first output is opened.
func NewFilesystem(root, folder string, logger *slog.Logger) *Filesystem {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Filesystem{
		root:   root,
		folder: SanitizeFilename(folder),
		logger: logger,
		issued: make(map[string]struct{}),
	}
}

// NewMaker returns the StorageMaker the orchestrator uses: each
// artifact's outputs go to
// <reportRoot>/<sanitized service>/<sanitized name>_files/.
func NewMaker(reportRoot string, logger *slog.Logger) artifact.StorageMaker {
	return func(d artifact.Descriptor) artifact.Storage {
		return NewFilesystem(
			filepath.Join(reportRoot, SanitizeFilename(d.Service)),
			SanitizeFilename(d.Name)+"_files",
			logger,
		)
	}
}

// NewBinaryOutput implements artifact.Storage. The suggested name is
// sanitized, then de-duplicated against every name already issued in
// this scope (and anything already on disk) by inserting a numeric
// suffix before the extension. The storage folder is created on first
// use; creation is race-tolerant because sibling invocations only ever
// share the service directory, never the artifact folder.
func (s *Filesystem) NewBinaryOutput(suggestedName string) (artifact.BinaryOutput, error) {
	directory := filepath.Join(s.root, s.folder)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating %s: %w", directory, err)
	}

	name := SanitizeFilename(suggestedName)
	if name == "" {
		name = "unnamed"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	finalName := name
	for counter := 1; ; counter++ {
		if _, taken := s.issued[finalName]; !taken {
			file, err := os.OpenFile(filepath.Join(directory, finalName),
				os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err == nil {
				s.issued[finalName] = struct{}{}
				return &binaryOutput{
					file: file,
					// Location references are relative to the report
					// root and use forward slashes so they are stable
					// across platforms once serialized.
					location: path.Join(filepath.Base(s.root), s.folder, finalName),
					hasher:   blake3.New(),
					logger:   s.logger,
				}, nil
			}
			if !os.IsExist(err) {
				return nil, fmt.Errorf("storage: creating output %q: %w", finalName, err)
			}
			// Pre-existing file from outside this scope: fall through
			// and try the next suffix.
		}
		finalName = suffixName(name, counter)
	}
}

// suffixName inserts _n before the extension so thumbnails keep a
// meaningful extension: "img.jpg" -> "img_1.jpg".
func suffixName(name string, n int) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// binaryOutput streams writes to the output file and into a BLAKE3
// hasher. Close is idempotent.
type binaryOutput struct {
	file     *os.File
	location string
	hasher   *blake3.Hasher
	logger   *slog.Logger
	written  int64
	closed   bool
}

func (o *binaryOutput) Write(data []byte) (int, error) {
	n, err := o.file.Write(data)
	if n > 0 {
		o.hasher.Write(data[:n])
		o.written += int64(n)
	}
	if err != nil {
		return n, fmt.Errorf("storage: writing %s: %w", o.location, err)
	}
	return n, nil
}

func (o *binaryOutput) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	if err := o.file.Close(); err != nil {
		return fmt.Errorf("storage: closing %s: %w", o.location, err)
	}
	o.logger.Info("exported binary artifact",
		"location", o.location,
		"bytes", o.written,
		"blake3", o.Digest(),
	)
	return nil
}

// Location implements artifact.BinaryOutput.
func (o *binaryOutput) Location() string {
	return o.location
}

// Digest implements artifact.BinaryOutput.
func (o *binaryOutput) Digest() string {
	return hex.EncodeToString(o.hasher.Sum(nil))
}
