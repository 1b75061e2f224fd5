// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package google recovers Google search activity from URLs in
// history, the cache, and session storage.
package google

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

var (
	searchURLPattern = regexp.MustCompile(`https?://.*google.*?\.[A-z]{2,3}/search`)
	originPattern    = regexp.MustCompile(`^https://www.google`)
)

// hsb session storage keys look like "hsb;;<unix millis>" and hold a
// prefixed JSON payload describing the page the term was searched
// from.
const hsbKeyPrefix = "hsb;"

// Plugin registers the Google artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/google",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "Google",
				Name:         "Google searches",
				Description:  "Recovers google searches from URLs in history, session storage, cache",
				Version:      "0.4",
				Extract:      searchURLs,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

// searchDetails pulls the search term and, when the URL carries an
// "ei" parameter, the session start time encoded in its first four
// bytes. Returns false when the URL carries no search term.
func searchDetails(rawURL string) (term string, eiStart any, ok bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, false
	}
	query := parsed.Query()
	term = query.Get("q")
	if term == "" {
		return "", nil, false
	}

	if ei := query.Get("ei"); ei != "" {
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(ei, "="))
		if err == nil && len(decoded) >= 4 {
			eiStart = time.Unix(int64(binary.LittleEndian.Uint32(decoded[:4])), 0).UTC()
		}
	}
	return term, eiStart, true
}

func hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// hsbPayload mirrors the JSON portion of an hsb session storage value.
type hsbPayload struct {
	URL string `json:"url"`
}

func searchURLs(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateHistory(profile.MatchRegexp(searchURLPattern), func(rec profile.HistoryRecord) error {
		term, eiStart, ok := searchDetails(rec.URL)
		if !ok {
			return nil
		}
		results = append(results, artifact.Record{
			"source":                     "History",
			"location":                   rec.RecordLocation,
			"domain":                     hostname(rec.URL),
			"timestamp":                  rec.VisitTime,
			"search term":                term,
			"ei session start timestamp": eiStart,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.IterateCache(profile.MatchRegexp(searchURLPattern), func(rec profile.CacheRecord) error {
		term, eiStart, ok := searchDetails(rec.URL)
		if !ok {
			return nil
		}
		var timestamp any
		if rec.Metadata != nil && !rec.Metadata.RequestTime.IsZero() {
			timestamp = rec.Metadata.RequestTime
		}
		results = append(results, artifact.Record{
			"source":                     "Cache URLs",
			"location":                   rec.DataLocation,
			"domain":                     hostname(rec.URL),
			"timestamp":                  timestamp,
			"search term":                term,
			"ei session start timestamp": eiStart,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.IterateSessionStorage("", "", func(rec profile.SessionStorageRecord) error {
		if !originPattern.MatchString(rec.Host) || !strings.HasPrefix(rec.Key, hsbKeyPrefix) {
			return nil
		}

		// The value is "<prefix>_<json>".
		_, rawJSON, found := strings.Cut(rec.Value, "_")
		if !found {
			return nil
		}
		var payload hsbPayload
		if err := json.Unmarshal([]byte(rawJSON), &payload); err != nil {
			logger.Warn("unparseable hsb value", "location", rec.RecordLocation, "error", err)
			return nil
		}
		term, eiStart, ok := searchDetails(payload.URL)
		if !ok {
			return nil
		}

		var timestamp any
		if _, msPart, found := strings.Cut(rec.Key, ";;"); found {
			if millis, err := strconv.ParseInt(msPart, 10, 64); err == nil {
				timestamp = time.UnixMilli(millis).UTC()
			}
		}
		results = append(results, artifact.Record{
			"source":                     "Session Storage",
			"location":                   rec.RecordLocation,
			"domain":                     hostname(rec.Host),
			"timestamp":                  timestamp,
			"search term":                term,
			"ei session start timestamp": eiStart,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return recordTime(results[i]).Before(recordTime(results[j]))
	})
	return results, nil
}

// recordTime orders records with missing timestamps first, matching
// sorting on the cache's pre-history epoch.
func recordTime(record artifact.Record) time.Time {
	if t, ok := record["timestamp"].(time.Time); ok {
		return t
	}
	return time.Time{}
}
