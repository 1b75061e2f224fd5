// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package googledrive recovers Google Drive activity: file and folder
// names from visited URLs, cached preview thumbnails, and usage
// indications from session storage.
package googledrive

import (
	"fmt"
	"log/slog"
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
	foldersURLPattern = regexp.MustCompile(`^https://drive.google.com/drive/folders/`)
	filesURLPattern   = regexp.MustCompile(`^https://drive.google.com/file/d/`)
	docsURLPattern    = regexp.MustCompile(`^https://docs.google.com/(\w+?)/d/`)

	thumbnailURLPattern1 = regexp.MustCompile(`googleusercontent\.com/fife.+w\d{2,4}-h\d{2,4}`)
	thumbnailURLPattern2 = regexp.MustCompile(`drive.fife.usercontent.google.com/u.+w\d{2,4}-h\d{2,4}`)

	dispositionFilename = regexp.MustCompile(`filename="(.+?)"`)
)

// Plugin registers the Google Drive artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/googledrive",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "Google Drive",
				Name:         "Google Drive Files and Folders",
				Description:  "Recovers Google Drive and Docs folder and file names (and urls) from history records",
				Version:      "0.1",
				Extract:      foldersAndFiles,
				Presentation: artifact.PresentationTable,
			},
			{
				Service:      "Google Drive",
				Name:         "Google Drive Thumbnails",
				Description:  "Recovers Google Drive thumbnails from the cache",
				Version:      "0.1",
				Extract:      thumbnails,
				Presentation: artifact.PresentationTable,
			},
			{
				Service:      "Google Drive",
				Name:         "Google Drive Usage",
				Description:  "Recovers indications of Google Drive usage",
				Version:      "0.1",
				Extract:      usage,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

func matchesFileListing(url string) bool {
	return foldersURLPattern.MatchString(url) ||
		filesURLPattern.MatchString(url) ||
		docsURLPattern.MatchString(url)
}

func matchesThumbnail(url string) bool {
	return thumbnailURLPattern1.MatchString(url) || thumbnailURLPattern2.MatchString(url)
}

// itemName strips the " - Google Drive" style suffix Drive appends to
// page titles.
func itemName(title string) string {
	if idx := strings.LastIndex(title, " - "); idx >= 0 {
		return title[:idx]
	}
	return title
}

func foldersAndFiles(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateHistory(matchesFileListing, func(rec profile.HistoryRecord) error {
		var itemType string
		switch {
		case foldersURLPattern.MatchString(rec.URL):
			itemType = "Folder"
		case filesURLPattern.MatchString(rec.URL):
			itemType = "File"
		default:
			// Docs URLs name the editing service: docs.google.com/<service>/d/...
			m := docsURLPattern.FindStringSubmatch(rec.URL)
			if m == nil {
				return nil
			}
			itemType = strings.ToUpper(m[1][:1]) + m[1][1:]
		}

		results = append(results, artifact.Record{
			"location":  rec.RecordLocation,
			"type":      itemType,
			"name":      itemName(rec.Title),
			"url":       rec.URL,
			"timestamp": rec.VisitTime,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return recordTime(results[i], "timestamp").Before(recordTime(results[j], "timestamp"))
	})
	return results, nil
}

// thumbnails exports every cached preview image through the storage
// handle and records the location reference alongside the cache
// metadata.
func thumbnails(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	index := 0
	err := p.IterateCache(matchesThumbnail, func(rec profile.CacheRecord) error {
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

	sort.SliceStable(results, func(i, j int) bool {
		return recordTime(results[i], "cache request time").Before(recordTime(results[j], "cache request time"))
	})
	return results, nil
}

func usage(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result

	err := p.IterateSessionStorage("https://drive.google.com/", "ui:tabFirstStartTimeMsec", func(rec profile.SessionStorageRecord) error {
		millis, err := strconv.ParseInt(rec.Value, 10, 64)
		if err != nil {
			logger.Warn("unparseable tab start time", "location", rec.RecordLocation, "error", err)
			return nil
		}
		results = append(results, artifact.Record{
			"source":    "Session Storage",
			"sequence":  rec.SequenceNumber,
			"type":      "Tab first start",
			"timestamp": time.UnixMilli(millis).UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return recordTime(results[i], "timestamp").Before(recordTime(results[j], "timestamp"))
	})
	return results, nil
}

// recordTime orders records with missing timestamps first.
func recordTime(record artifact.Record, key string) time.Time {
	if t, ok := record[key].(time.Time); ok {
		return t
	}
	return time.Time{}
}
