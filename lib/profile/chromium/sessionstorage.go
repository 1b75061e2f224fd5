// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package chromium

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

// sessionStore reads Session Storage's LevelDB. The keyspace holds
// two kinds of records: "namespace-<guid>-<origin>" entries whose
// value is a map ID, and "map-<id>-<script key>" entries holding the
// stored values.
type sessionStore struct {
	db *leveldb.DB
}

func openSessionStorage(path string) (*sessionStore, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		ReadOnly:       true,
		ErrorIfMissing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("chromium: opening session storage %s: %w", path, err)
	}
	return &sessionStore{db: db}, nil
}

func (s *sessionStore) close() error {
	return s.db.Close()
}

// iterate visits stored values for the given origin and script key;
// empty strings act as wildcards.
func (s *sessionStore) iterate(origin, key string, fn func(profile.SessionStorageRecord) error) error {
	maps, err := s.namespaceMaps()
	if err != nil {
		return err
	}

	// Stable map order so repeated runs list records identically.
	mapIDs := make([]string, 0, len(maps))
	for mapID := range maps {
		mapIDs = append(mapIDs, mapID)
	}
	sort.Strings(mapIDs)

	var sequence uint64
	for _, mapID := range mapIDs {
		host := maps[mapID]
		if origin != "" && !originMatches(host, origin) {
			continue
		}

		prefix := []byte("map-" + mapID + "-")
		iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
		for iter.Next() {
			scriptKey := string(iter.Key()[len(prefix):])
			if key != "" && scriptKey != key {
				continue
			}
			sequence++
			record := profile.SessionStorageRecord{
				Host:           host,
				Key:            scriptKey,
				Value:          decodeStorageValue(iter.Value()),
				SequenceNumber: sequence,
				RecordLocation: fmt.Sprintf("Session Storage map-%s-%s", mapID, scriptKey),
			}
			if err := fn(record); err != nil {
				iter.Release()
				return err
			}
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return fmt.Errorf("chromium: iterating session storage map %s: %w", mapID, err)
		}
	}
	return nil
}

// namespaceMaps builds the map-ID to origin index from the
// "namespace-" keyspace. Several browsing sessions may reference the
// same map; the origin is identical for all of them, so last-writer
// wins is fine.
func (s *sessionStore) namespaceMaps() (map[string]string, error) {
	maps := make(map[string]string)

	iter := s.db.NewIterator(util.BytesPrefix([]byte("namespace-")), nil)
	defer iter.Release()
	const guidLength = 36
	for iter.Next() {
		// namespace-<36 char guid>-<origin>. The GUID itself contains
		// dashes, so the origin starts at a fixed offset.
		rest := string(iter.Key()[len("namespace-"):])
		if len(rest) < guidLength+2 || rest[guidLength] != '-' {
			continue
		}
		origin := rest[guidLength+1:]
		mapID := string(iter.Value())
		if mapID != "" {
			maps[mapID] = origin
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("chromium: iterating session storage namespaces: %w", err)
	}
	return maps, nil
}

// originMatches compares origins ignoring a trailing slash, since
// plugins written against browser devtools habits pass origins both
// with and without one.
func originMatches(host, origin string) bool {
	return strings.TrimSuffix(host, "/") == strings.TrimSuffix(origin, "/")
}

// decodeStorageValue decodes a stored value to UTF-8. Values carry a
// one-byte encoding prefix: 0x00 for UTF-16LE, 0x01 for Latin-1.
// Anything unexpected is returned as raw bytes, which keeps damaged
// records visible in dumps.
func decodeStorageValue(value []byte) string {
	if len(value) == 0 {
		return ""
	}
	switch value[0] {
	case 0x00:
		payload := value[1:]
		units := make([]uint16, 0, len(payload)/2)
		for i := 0; i+1 < len(payload); i += 2 {
			units = append(units, uint16(payload[i])|uint16(payload[i+1])<<8)
		}
		return string(utf16.Decode(units))
	case 0x01:
		payload := value[1:]
		runes := make([]rune, len(payload))
		for i, b := range payload {
			runes[i] = rune(b)
		}
		return string(runes)
	default:
		return string(value)
	}
}
