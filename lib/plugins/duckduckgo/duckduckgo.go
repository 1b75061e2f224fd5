// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package duckduckgo recovers DuckDuckGo search activity from history
// and cache URLs.
package duckduckgo

import (
	"log/slog"
	"net/url"
	"regexp"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

// The "?t" in the search pattern skips partially typed search terms
// that the browser records while autocomplete is open.
var (
	searchURLPattern     = regexp.MustCompile(`https?://.*duckduckgo.*?\.[A-z]{2,3}/\?t.*q=`)
	searchLinkURLPattern = regexp.MustCompile(`https?://links.duckduckgo.*?\.[A-z]{2,3}/d.js`)
)

// Plugin registers the DuckDuckGo artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/duckduckgo",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "Duckduckgo",
				Name:         "Duckduckgo searches",
				Description:  "Recovers Duckduckgo searches from URLs in history, cache",
				Version:      "0.2",
				Extract:      searchURLs,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

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

	cacheMatch := func(u string) bool {
		return searchLinkURLPattern.MatchString(u) || searchURLPattern.MatchString(u)
	}
	err = p.IterateCache(cacheMatch, func(rec profile.CacheRecord) error {
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

	return results, nil
}
