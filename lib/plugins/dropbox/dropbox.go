// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package dropbox recovers Dropbox activity: cached file preview
// thumbnails, session storage user activity, and folder structure
// gleaned from visited URLs.
package dropbox

import (
	"encoding/json"
	"fmt"
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
	thumbnailURLPattern   = regexp.MustCompile(`https://previews.dropbox.com/p/thumb/`)
	homeURLPattern        = regexp.MustCompile(`dropbox\.com/home`)
	hostPattern           = regexp.MustCompile(`dropbox\.com`)
	dispositionFilename   = regexp.MustCompile(`filename="(.+?)"`)
	userActivityKeyPrefix = "uxa"
)

// Plugin registers the Dropbox artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/dropbox",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "Dropbox",
				Name:         "Dropbox Thumbnails",
				Description:  "Recovers Dropbox file preview thumbnails from the Cache",
				Version:      "0.1",
				Extract:      thumbnails,
				Presentation: artifact.PresentationTable,
			},
			{
				Service:      "Dropbox",
				Name:         "Dropbox Session Storage User Activity",
				Description:  "Recovers user activity from 'uxa' records in Session Storage",
				Version:      "0.1",
				Extract:      userActivity,
				Presentation: artifact.PresentationTable,
			},
			{
				Service:      "Dropbox",
				Name:         "Dropbox Recovered File System",
				Description:  "Reconstructs folder and file paths from visited Dropbox URLs in History",
				Version:      "0.1",
				Extract:      recoveredFileSystem,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

// thumbnails exports every cached preview image through the storage
// handle and records the location reference alongside the cache
// metadata.
func thumbnails(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	index := 0
	err := p.IterateCache(profile.MatchRegexp(thumbnailURLPattern), func(rec profile.CacheRecord) error {
		cacheFilename := "thumbnail"
		if rec.Metadata != nil {
			if m := dispositionFilename.FindStringSubmatch(rec.Metadata.Header.Get("Content-Disposition")); m != nil {
				cacheFilename = m[1]
			}
		}

		out, err := store.NewBinaryOutput(fmt.Sprintf("%d_%s", index, cacheFilename))
		if err != nil {
			return err
		}
		index++
		if _, err := out.Write(rec.Data); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		logger.Info("exported thumbnail", "reference", out.Location())

		record := artifact.Record{
			"url":                      rec.URL,
			"extracted file reference": out.Location(),
			"blake3":                   out.Digest(),
		}
		if rec.Metadata != nil {
			record["cache request time"] = rec.Metadata.RequestTime
			record["cache response time"] = rec.Metadata.ResponseTime
		}
		results = append(results, record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// clickedLink mirrors the uxa.clicked_link session storage value.
type clickedLink struct {
	VisitID    string `json:"visit_id"`
	OriginHref string `json:"origin_href"`
	TimeOnPage any    `json:"time on page"`
	URL        string `json:"url"`
}

func userActivity(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateSessionStorage("", "", func(rec profile.SessionStorageRecord) error {
		if !hostPattern.MatchString(rec.Host) || !strings.HasPrefix(rec.Key, userActivityKeyPrefix) {
			return nil
		}

		switch rec.Key {
		case "uxa.last_active_time":
			if t, ok := parseUnixMillis(rec.Value); ok {
				results = append(results, artifact.Record{
					"sequence":    rec.SequenceNumber,
					"record type": "last active time",
					"timestamp":   t,
				})
			}
		case "uxa.inaniframe.last_active_time":
			if t, ok := parseUnixMillis(rec.Value); ok {
				results = append(results, artifact.Record{
					"sequence":    rec.SequenceNumber,
					"record type": "in ani frame last active time",
					"timestamp":   t,
				})
			}
		case "uxa.visit_id":
			results = append(results, artifact.Record{
				"sequence":    rec.SequenceNumber,
				"record type": "visit id",
				"visit id":    rec.Value,
			})
		case "uxa.previous_url":
			results = append(results, artifact.Record{
				"sequence":     rec.SequenceNumber,
				"record type":  "previous url",
				"previous url": rec.Value,
			})
		case "uxa.clicked_link":
			var link clickedLink
			if err := json.Unmarshal([]byte(rec.Value), &link); err != nil {
				logger.Warn("unparseable clicked_link value", "location", rec.RecordLocation, "error", err)
				return nil
			}
			results = append(results, artifact.Record{
				"sequence":     rec.SequenceNumber,
				"record type":  "clicked link",
				"visit id":     link.VisitID,
				"url":          link.OriginHref,
				"time on page": link.TimeOnPage,
				"previous url": link.URL,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i]["sequence"].(uint64) < results[j]["sequence"].(uint64)
	})
	return results, nil
}

// recoveredFileSystem reconstructs paths from URLs like
// https://www.dropbox.com/home/Folder/Sub?preview=file.mkv.
func recoveredFileSystem(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	paths := make(map[string]struct{})

	err := p.IterateHistory(profile.MatchRegexp(homeURLPattern), func(rec profile.HistoryRecord) error {
		_, after, found := strings.Cut(rec.URL, "/home/")
		if !found {
			return nil
		}

		folderPart, previewPart, hasPreview := strings.Cut(after, "?preview=")
		folder := unquotePlus(folderPart)
		paths[folder] = struct{}{}
		if hasPreview {
			paths[folder+"/"+unquotePlus(previewPart)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sorted := make([]string, 0, len(paths))
	for path := range paths {
		sorted = append(sorted, path)
	}
	sort.Strings(sorted)

	results := make(artifact.Result, 0, len(sorted))
	for _, path := range sorted {
		results = append(results, artifact.Record{"path": path})
	}
	return results, nil
}

func parseUnixMillis(value string) (time.Time, bool) {
	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis).UTC(), true
}

// unquotePlus undoes URL query escaping including +-for-space, which
// Dropbox uses in preview names.
func unquotePlus(s string) string {
	unquoted, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return unquoted
}
