// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package chromium reads the on-disk stores of a Chromium-family
// profile folder behind the lib/profile interface: the History SQLite
// database, HTTP cache entries in the simple cache format, and Session
// Storage's LevelDB.
//
// Every store is opened lazily and strictly read-only, so many
// profile handles can be open over the same folder at once — the
// orchestrator opens one per invocation. The reader is deliberately
// tolerant: a damaged cache entry or an unparseable value is skipped
// (or surfaced with zeroed metadata), never fatal, because partially
// recovered data is the normal case in forensic work.
package chromium

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

// Profile is a read-only handle over one Chromium profile folder.
// It implements profile.Profile.
type Profile struct {
	root     string
	cacheDir string
	logger   *slog.Logger

	mu      sync.Mutex
	history *historyStore
	session *sessionStore
}

// Open validates the profile folder and returns a handle over it.
// cacheDir optionally points at a cache folder stored outside the
// profile (as on Android); when empty, the conventional in-profile
// locations are probed. No store is touched until first use.
func Open(root, cacheDir string, logger *slog.Logger) (*Profile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("chromium: profile folder %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("chromium: profile folder %s is not a directory", root)
	}
	if cacheDir != "" {
		info, err := os.Stat(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("chromium: cache folder %s: %w", cacheDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("chromium: cache folder %s is not a directory", cacheDir)
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Profile{root: root, cacheDir: cacheDir, logger: logger}, nil
}

// Opener returns a profile.Opener that opens a fresh handle over the
// same folder on every call.
func Opener(root, cacheDir string, logger *slog.Logger) profile.Opener {
	return func() (profile.Profile, error) {
		return Open(root, cacheDir, logger)
	}
}

// IterateHistory implements profile.Profile.
func (p *Profile) IterateHistory(match profile.URLMatch, fn func(profile.HistoryRecord) error) error {
	store, err := p.historyStore()
	if err != nil {
		return err
	}
	return store.iterate(match, fn)
}

// IterateCache implements profile.Profile.
func (p *Profile) IterateCache(match profile.URLMatch, fn func(profile.CacheRecord) error) error {
	directory, err := p.cacheDataDir()
	if err != nil {
		return err
	}
	return iterateSimpleCache(directory, match, p.logger, fn)
}

// IterateSessionStorage implements profile.Profile.
func (p *Profile) IterateSessionStorage(origin, key string, fn func(profile.SessionStorageRecord) error) error {
	store, err := p.sessionStore()
	if err != nil {
		return err
	}
	return store.iterate(origin, key, fn)
}

// Close releases every store opened so far.
func (p *Profile) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.history != nil {
		if err := p.history.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.history = nil
	}
	if p.session != nil {
		if err := p.session.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.session = nil
	}
	return firstErr
}

func (p *Profile) historyStore() (*historyStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.history == nil {
		store, err := openHistory(filepath.Join(p.root, "History"))
		if err != nil {
			return nil, err
		}
		p.history = store
	}
	return p.history, nil
}

func (p *Profile) sessionStore() (*sessionStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		store, err := openSessionStorage(filepath.Join(p.root, "Session Storage"))
		if err != nil {
			return nil, err
		}
		p.session = store
	}
	return p.session, nil
}

// cacheDataDir resolves the cache folder: an explicit override first,
// then the modern Cache/Cache_Data layout, then the legacy Cache
// folder.
func (p *Profile) cacheDataDir() (string, error) {
	if p.cacheDir != "" {
		return p.cacheDir, nil
	}
	modern := filepath.Join(p.root, "Cache", "Cache_Data")
	if info, err := os.Stat(modern); err == nil && info.IsDir() {
		return modern, nil
	}
	legacy := filepath.Join(p.root, "Cache")
	if info, err := os.Stat(legacy); err == nil && info.IsDir() {
		return legacy, nil
	}
	return "", fmt.Errorf("chromium: no cache folder found under %s", p.root)
}
