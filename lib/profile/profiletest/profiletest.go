// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package profiletest provides an in-memory profile.Profile for plugin
// tests.
package profiletest

import (
	"strings"

	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

// Profile serves canned records through the profile.Profile interface.
// The zero value is an empty profile.
type Profile struct {
	Cache          []profile.CacheRecord
	History        []profile.HistoryRecord
	SessionStorage []profile.SessionStorageRecord

	// Closed counts Close calls.
	Closed int
}

var _ profile.Profile = (*Profile)(nil)

// IterateCache implements profile.Profile.
func (p *Profile) IterateCache(match profile.URLMatch, fn func(profile.CacheRecord) error) error {
	for _, rec := range p.Cache {
		if match != nil && !match(rec.URL) {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// IterateHistory implements profile.Profile.
func (p *Profile) IterateHistory(match profile.URLMatch, fn func(profile.HistoryRecord) error) error {
	for _, rec := range p.History {
		if match != nil && !match(rec.URL) {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// IterateSessionStorage implements profile.Profile.
func (p *Profile) IterateSessionStorage(origin, key string, fn func(profile.SessionStorageRecord) error) error {
	for _, rec := range p.SessionStorage {
		if origin != "" && strings.TrimSuffix(rec.Host, "/") != strings.TrimSuffix(origin, "/") {
			continue
		}
		if key != "" && rec.Key != key {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Close implements profile.Profile.
func (p *Profile) Close() error {
	p.Closed++
	return nil
}
