// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package storagedump exposes raw profile stores as tabular artifacts,
// useful for triage before service-specific artifacts exist.
package storagedump

import (
	"log/slog"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
)

// Plugin registers the raw data dump artifacts.
func Plugin() catalog.Plugin {
	return catalog.Plugin{
		Origin: "github.com/CH-CLARK/mister-skinnylegs/lib/plugins/storagedump",
		Artifacts: []artifact.Descriptor{
			{
				Service:      "Data Dump",
				Name:         "History",
				Description:  "Dumps History Records",
				Version:      "0.1",
				Extract:      dumpHistory,
				Presentation: artifact.PresentationTable,
			},
			{
				Service:      "Data Dump",
				Name:         "Sessionstorage",
				Description:  "Dumps Sessionstorage Records",
				Version:      "0.1",
				Extract:      dumpSessionStorage,
				Presentation: artifact.PresentationTable,
			},
		},
	}
}

func dumpHistory(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result
	err := p.IterateHistory(nil, func(rec profile.HistoryRecord) error {
		results = append(results, artifact.Record{
			"record location": rec.RecordLocation,
			"title":           rec.Title,
			"url":             rec.URL,
			"visit time":      rec.VisitTime,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func dumpSessionStorage(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
	var results artifact.Result
	err := p.IterateSessionStorage("", "", func(rec profile.SessionStorageRecord) error {
		results = append(results, artifact.Record{
			"record location": rec.RecordLocation,
			"host":            rec.Host,
			"key":             rec.Key,
			"value":           rec.Value,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
