// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package bing recovers Bing search activity from history and cache
// URLs.
package bing

import (
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"time"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

var searchURLPattern = regexp.MustCompile(`https?://.*bing.*?\.[A-z]{2,3}/search`)

// Plugin registers the Bing artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/bing",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "Bing",
				Name:         "Bing searches",
				Description:  "Recovers Bing searches from URLs in history, cache",
				Version:      "0.2",
				Extract:      searchURLs,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

// searchTerm pulls the "q" query parameter out of a search URL.
func searchTerm(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("q")
}

func searchURLs(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateHistory(profile.MatchRegexp(searchURLPattern), func(rec profile.HistoryRecord) error {
		results = append(results, artifact.Record{
			"timestamp":    rec.VisitTime,
			"search term":  searchTerm(rec.URL),
			"original url": rec.URL,
			"source":       "history",
			"location":     rec.RecordLocation,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.IterateCache(profile.MatchRegexp(searchURLPattern), func(rec profile.CacheRecord) error {
		var timestamp any
		if rec.Metadata != nil && !rec.Metadata.RequestTime.IsZero() {
			timestamp = rec.Metadata.RequestTime
		}
		results = append(results, artifact.Record{
			"timestamp":    timestamp,
			"search term":  searchTerm(rec.URL),
			"original url": rec.URL,
			"source":       "cache",
			"location":     rec.DataLocation,
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
