// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package runner orchestrates extraction: it takes the loaded catalog
// and a profile opener and runs every artifact's extraction function,
// streaming back one envelope per catalog entry as invocations
// complete.
//
// Invocations are dispatched onto a bounded pool of worker goroutines,
// so a long-running or blocking extraction function delays only its
// own envelope, never the others. Each invocation is fully isolated:
// it gets a fresh profile handle (closed when the invocation ends, on
// every path), its own storage namespace, and its own failure
// handling — a returned error or a panic becomes a failed envelope
// rather than ending the run.
//
// Cancellation is deliberately unsupported: an invocation, once
// started, runs to completion. The results channel is buffered to the
// catalog size, so a consumer that stops reading abandons the run
// without blocking or corrupting in-flight invocations.
package runner

import (
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

// maxDefaultWorkers caps the default pool size. Extraction is mostly
// I/O over the same profile folder; more workers than this just adds
// seek contention.
const maxDefaultWorkers = 8

// Config holds the collaborators a Runner needs. Catalog, OpenProfile
// and Storage are required.
type Config struct {
	// Catalog is the loaded artifact catalog.
	Catalog *catalog.Catalog

	// OpenProfile opens a fresh read-only profile handle. Called once
	// per invocation; the runner closes every handle it opens.
	OpenProfile profile.Opener

	// Storage builds the per-invocation storage handle.
	Storage artifact.StorageMaker

	// Logger receives per-invocation progress. If nil, a no-op logger
	// is used. Extraction functions receive a child of this logger
	// scoped with the artifact name.
	Logger *slog.Logger

	// Workers is the number of concurrent invocations. If zero or
	// negative, defaults to min(NumCPU, 8).
	Workers int
}

// Runner executes catalog entries against a profile folder.
type Runner struct {
	catalog     *catalog.Catalog
	openProfile profile.Opener
	makeStorage artifact.StorageMaker
	logger      *slog.Logger
	workers     int
}

// New validates the configuration and builds a Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("runner: Catalog is required")
	}
	if cfg.OpenProfile == nil {
		return nil, fmt.Errorf("runner: OpenProfile is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("runner: Storage is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > maxDefaultWorkers {
			workers = maxDefaultWorkers
		}
	}

	return &Runner{
		catalog:     cfg.Catalog,
		openProfile: cfg.OpenProfile,
		makeStorage: cfg.Storage,
		logger:      logger,
		workers:     workers,
	}, nil
}

// RunAll runs every catalog entry and returns a channel that yields
// exactly one envelope per entry, in completion order. The channel is
// closed once every invocation has finished. The channel's buffer
// holds the whole result set, so the caller may stop receiving at any
// point without stalling in-flight invocations.
func (r *Runner) RunAll() <-chan artifact.Envelope {
	entries := r.catalog.All()
	results := make(chan artifact.Envelope, len(entries))

	jobs := make(chan catalog.Entry)
	var wg sync.WaitGroup

	workers := r.workers
	if workers > len(entries) {
		workers = len(entries)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				results <- r.invoke(entry)
			}
		}()
	}

	go func() {
		for _, entry := range entries {
			jobs <- entry
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	return results
}

// RunOne runs the named artifact synchronously to completion. It
// fails with catalog.ErrUnknownArtifact (without running anything) if
// the name is not registered; an extraction failure is reported inside
// the returned envelope, not as an error.
func (r *Runner) RunOne(name string) (artifact.Envelope, error) {
	entry, err := r.catalog.Get(name)
	if err != nil {
		return artifact.Envelope{}, err
	}
	return r.invoke(entry), nil
}

// invoke executes one catalog entry: fresh profile handle, fresh
// storage scope, panic containment, guaranteed profile release.
func (r *Runner) invoke(entry catalog.Entry) artifact.Envelope {
	d := entry.Descriptor
	envelope := artifact.Envelope{
		Service:      d.Service,
		Name:         d.Name,
		Version:      d.Version,
		Description:  d.Description,
		Presentation: d.Presentation,
	}

	logger := r.logger.With("artifact", d.Name)

	p, err := r.openProfile()
	if err != nil {
		envelope.Err = fmt.Errorf("runner: %s: opening profile: %w", d.Name, err)
		logger.Error("profile open failed", "error", err)
		return envelope
	}

	envelope.Result, envelope.Err = r.extract(d, p, logger)

	if closeErr := p.Close(); closeErr != nil {
		logger.Warn("profile close failed", "error", closeErr)
	}

	if envelope.Err != nil {
		logger.Error("extraction failed", "error", envelope.Err)
	} else {
		logger.Info("extraction complete", "records", len(envelope.Result))
	}
	return envelope
}

// extract calls the plugin function with panic containment. A panic
// in arbitrary plugin code must cost exactly one envelope.
func (r *Runner) extract(d artifact.Descriptor, p profile.Profile, logger *slog.Logger) (result artifact.Result, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("extraction panicked",
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			result = nil
			err = fmt.Errorf("runner: %s: panic: %v", d.Name, recovered)
		}
	}()

	result, err = d.Extract(p, logger, r.makeStorage(d))
	if err != nil {
		err = fmt.Errorf("runner: %s: %w", d.Name, err)
	}
	return result, err
}
