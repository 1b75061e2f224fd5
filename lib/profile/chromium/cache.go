// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package chromium

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

// Simple cache on-disk constants, from Chromium's
// net/disk_cache/simple/simple_entry_format.h. An entry file
// ("<hash>_0") is laid out as: file header, key, stream 1 data (the
// response body), an EOF record for stream 1, stream 0 data (the
// serialized response info), an optional SHA-256 of the key, and a
// final EOF record for stream 0.
const (
	simpleInitialMagic = 0xfcfb6d1ba7725c30
	simpleFinalMagic   = 0xf4fa6f45970d41d8

	simpleHeaderSize = 20 // magic(8) version(4) key_length(4) key_hash(4)
	simpleEOFSize    = 20 // magic(8) flags(4) crc32(4) stream_size(4)

	simpleFlagHasKeySHA256 = 1 << 1
)

// simpleEntryPattern matches the stream 0/1 file of one cache entry.
var simpleEntryPattern = regexp.MustCompile(`^[0-9a-f]{16}_0$`)

// iterateSimpleCache walks every entry file in the cache folder,
// decodes the matching ones, and hands them to fn. Unparseable
// entries are logged and skipped: a torn or truncated entry must not
// hide the rest of the cache from a plugin.
func iterateSimpleCache(directory string, match profile.URLMatch, logger *slog.Logger, fn func(profile.CacheRecord) error) error {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return fmt.Errorf("chromium: reading cache folder %s: %w", directory, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !simpleEntryPattern.MatchString(entry.Name()) {
			continue
		}

		record, err := readSimpleCacheEntry(filepath.Join(directory, entry.Name()), entry.Name())
		if err != nil {
			logger.Warn("skipping unreadable cache entry", "entry", entry.Name(), "error", err)
			continue
		}
		if match != nil && !match(record.URL) {
			continue
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

// readSimpleCacheEntry parses one "<hash>_0" file into a CacheRecord.
func readSimpleCacheEntry(path, name string) (profile.CacheRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return profile.CacheRecord{}, err
	}
	if len(data) < simpleHeaderSize+simpleEOFSize {
		return profile.CacheRecord{}, fmt.Errorf("entry too short (%d bytes)", len(data))
	}

	if magic := binary.LittleEndian.Uint64(data[0:8]); magic != simpleInitialMagic {
		return profile.CacheRecord{}, fmt.Errorf("bad entry magic %#x", magic)
	}
	keyLength := int(binary.LittleEndian.Uint32(data[12:16]))
	headerEnd := simpleHeaderSize + keyLength
	if keyLength < 0 || headerEnd > len(data) {
		return profile.CacheRecord{}, fmt.Errorf("key length %d out of range", keyLength)
	}
	key := string(data[simpleHeaderSize:headerEnd])

	// Final EOF record (stream 0) sits at the very end of the file.
	eof0Offset := len(data) - simpleEOFSize
	if magic := binary.LittleEndian.Uint64(data[eof0Offset : eof0Offset+8]); magic != simpleFinalMagic {
		return profile.CacheRecord{}, fmt.Errorf("bad final magic %#x", magic)
	}
	eof0Flags := binary.LittleEndian.Uint32(data[eof0Offset+8 : eof0Offset+12])
	stream0Size := int(binary.LittleEndian.Uint32(data[eof0Offset+16 : eof0Offset+20]))

	stream0End := eof0Offset
	if eof0Flags&simpleFlagHasKeySHA256 != 0 {
		stream0End -= 32
	}
	stream0Start := stream0End - stream0Size
	eof1Offset := stream0Start - simpleEOFSize
	if stream0Size < 0 || eof1Offset < headerEnd {
		return profile.CacheRecord{}, fmt.Errorf("stream 0 size %d out of range", stream0Size)
	}
	if magic := binary.LittleEndian.Uint64(data[eof1Offset : eof1Offset+8]); magic != simpleFinalMagic {
		return profile.CacheRecord{}, fmt.Errorf("bad stream 1 EOF magic %#x", magic)
	}
	stream1Size := int(binary.LittleEndian.Uint32(data[eof1Offset+16 : eof1Offset+20]))
	if stream1Size < 0 || headerEnd+stream1Size > eof1Offset {
		return profile.CacheRecord{}, fmt.Errorf("stream 1 size %d out of range", stream1Size)
	}

	metadata := parseResponseInfo(data[stream0Start:stream0End])
	body := decodeBody(data[headerEnd:headerEnd+stream1Size], metadata)

	return profile.CacheRecord{
		URL:          urlFromCacheKey(key),
		Data:         body,
		Metadata:     metadata,
		DataLocation: fmt.Sprintf("%s (stream 1)", name),
	}, nil
}

// urlFromCacheKey strips the cache key down to the request URL.
// Modern Chromium prefixes keys with isolation information, e.g.
// "1/0/_dk_https://site https://site https://site/resource"; the URL
// proper is the final space-separated token.
func urlFromCacheKey(key string) string {
	if strings.Contains(key, "_dk_") {
		if idx := strings.LastIndexByte(key, ' '); idx >= 0 {
			return key[idx+1:]
		}
	}
	return key
}

// parseResponseInfo decodes the serialized HttpResponseInfo pickle in
// stream 0 far enough to recover the request/response times and the
// response headers. Returns nil when the stream is too damaged to
// carry meaning.
//
// Pickle layout (all fields little-endian, 4-byte aligned):
// payload size, flags, request time (int64 Chromium micros), response
// time (int64), header block size, header block bytes. The header
// block is the status line and header lines separated by NULs.
func parseResponseInfo(stream0 []byte) *profile.CacheMetadata {
	const fixedPart = 4 + 4 + 8 + 8 + 4 // payload size through header size
	if len(stream0) < fixedPart {
		return nil
	}

	requestTime := int64(binary.LittleEndian.Uint64(stream0[8:16]))
	responseTime := int64(binary.LittleEndian.Uint64(stream0[16:24]))
	headerSize := int(binary.LittleEndian.Uint32(stream0[24:28]))
	if headerSize < 0 || fixedPart+headerSize > len(stream0) {
		return nil
	}
	headerBlock := stream0[fixedPart : fixedPart+headerSize]

	header := make(http.Header)
	for _, line := range bytes.Split(headerBlock, []byte{0}) {
		text := string(line)
		name, value, found := strings.Cut(text, ":")
		if !found {
			// Status line or trailing empty fragment.
			continue
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	return &profile.CacheMetadata{
		RequestTime:  chromeMicrosToTime(requestTime),
		ResponseTime: chromeMicrosToTime(responseTime),
		Header:       header,
	}
}

// decodeBody transparently undoes gzip content-encoding so plugins
// see the bytes the page saw. Anything else (including a body that
// fails to inflate) is returned as stored.
func decodeBody(body []byte, metadata *profile.CacheMetadata) []byte {
	if metadata == nil || !strings.EqualFold(metadata.Header.Get("Content-Encoding"), "gzip") {
		return body
	}
	reader, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return body
	}
	return decoded
}
