// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package profile

import (
	"net/http"
	"regexp"
	"time"
)

// URLMatch filters records by URL. A nil URLMatch matches every URL.
type URLMatch func(url string) bool

// MatchRegexp adapts a compiled regular expression to a URLMatch.
func MatchRegexp(pattern *regexp.Regexp) URLMatch {
	return func(url string) bool {
		return pattern.MatchString(url)
	}
}

// CacheMetadata holds the recovered HTTP response metadata for a cache
// record. Fields are best-effort: a damaged or truncated entry may
// yield zero times and an empty header set.
type CacheMetadata struct {
	// RequestTime is when the browser issued the request.
	RequestTime time.Time

	// ResponseTime is when the browser received the response.
	ResponseTime time.Time

	// Header holds the recovered response headers.
	Header http.Header
}

// CacheRecord is one recovered HTTP cache entry.
type CacheRecord struct {
	// URL is the request URL the entry was stored under.
	URL string

	// Data is the (transparently content-decoded) response body.
	Data []byte

	// Metadata is the recovered response metadata, or nil when the
	// metadata stream could not be read.
	Metadata *CacheMetadata

	// DataLocation describes where in the cache the body was found,
	// suitable for embedding in a report record.
	DataLocation string
}

// HistoryRecord is one visit from the browser history store.
type HistoryRecord struct {
	URL            string
	Title          string
	VisitTime      time.Time
	RecordLocation string
}

// SessionStorageRecord is one key/value pair from session storage.
type SessionStorageRecord struct {
	// Host is the origin the value belongs to.
	Host string

	// Key is the script-visible storage key.
	Key string

	// Value is the stored value, decoded to UTF-8.
	Value string

	// SequenceNumber is an enumeration index assigned in iteration
	// order. It distinguishes and stably orders the records of one
	// read of the store; it is not the database's internal write
	// sequence, which the store does not expose.
	SequenceNumber uint64

	// RecordLocation describes where the record was found.
	RecordLocation string
}

// Profile is a read-only handle over one browser profile folder.
//
// Iteration callbacks are invoked once per matching record, in store
// order; returning a non-nil error stops the iteration and propagates
// the error to the caller. Implementations open their underlying
// stores lazily, so an artifact that only reads history never touches
// the cache.
type Profile interface {
	// IterateCache visits every cache record whose URL satisfies
	// match (nil matches all).
	IterateCache(match URLMatch, fn func(CacheRecord) error) error

	// IterateHistory visits every history record whose URL satisfies
	// match (nil matches all).
	IterateHistory(match URLMatch, fn func(HistoryRecord) error) error

	// IterateSessionStorage visits session storage records for the
	// given origin and key. An empty origin matches every origin; an
	// empty key matches every key.
	IterateSessionStorage(origin, key string, fn func(SessionStorageRecord) error) error

	// Close releases the underlying stores. The profile must not be
	// used afterwards.
	Close() error
}

// Opener produces a fresh Profile over the same underlying folder.
// The orchestrator calls it once per invocation.
type Opener func() (Profile, error)
