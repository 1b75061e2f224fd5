// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

// Package report serializes completed envelopes into the on-disk
// report tree: one subdirectory per service, one JSON document per
// artifact, plus a CSV rendering for artifacts with the table
// presentation hint. Artifacts that recovered nothing produce no file
// at all — absence of a report means absence of findings, which
// matters when the tree is handed to another examiner.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/storage"
)

// Document is the serialized form of one envelope. Field names are a
// compatibility contract with downstream tooling that parses report
// files; do not rename them.
type Document struct {
	Service     string          `json:"artifact_service"`
	Name        string          `json:"artifact_name"`
	Version     string          `json:"artifact_version"`
	Description string          `json:"artifact_description"`
	Result      artifact.Result `json:"result"`
}

// NewDocument wraps an envelope's metadata and records for
// serialization.
func NewDocument(e artifact.Envelope) Document {
	return Document{
		Service:     e.Service,
		Name:        e.Name,
		Version:     e.Version,
		Description: e.Description,
		Result:      e.Result,
	}
}

// Writer persists envelopes beneath a report root directory.
type Writer struct {
	root   string
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at the given directory, which must
// already exist.
func NewWriter(root string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{root: root, logger: logger}
}

// Write persists one envelope and returns the path of the JSON report
// it wrote, or "" when the envelope was skipped (failed invocation or
// empty result). Report files are created exclusively: a pre-existing
// file is an error, since the output tree is owned by a single run.
func (w *Writer) Write(e artifact.Envelope) (string, error) {
	logger := w.logger.With("artifact", e.Name)

	if e.Failed() {
		logger.Warn("no report for failed artifact", "error", e.Err)
		return "", nil
	}
	if len(e.Result) == 0 {
		logger.Info("no results, skipping report")
		return "", nil
	}

	directory := filepath.Join(w.root, storage.SanitizeFilename(e.Service))
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("report: creating %s: %w", directory, err)
	}

	jsonPath := filepath.Join(directory, storage.SanitizeFilename(e.Name)+".json")
	logger.Info("generating report", "path", jsonPath)
	if err := writeJSON(jsonPath, NewDocument(e)); err != nil {
		return "", err
	}

	if e.Presentation == artifact.PresentationTable {
		csvPath := jsonPath[:len(jsonPath)-len(".json")] + ".csv"
		logger.Info("generating csv report", "path", csvPath)
		if err := writeCSV(csvPath, e.Result); err != nil {
			return "", err
		}
	}

	return jsonPath, nil
}

func writeJSON(path string, doc Document) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		file.Close()
		return fmt.Errorf("report: encoding %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("report: closing %s: %w", path, err)
	}
	return nil
}

// writeCSV renders records as a table. The column set is the union of
// every record's keys, ordered by first appearance, so records with
// heterogeneous shapes still land in one coherent table.
func writeCSV(path string, result artifact.Result) error {
	fields := tableFields(result)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("report: creating %s: %w", path, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(fields); err != nil {
		file.Close()
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	row := make([]string, len(fields))
	for _, record := range result {
		for i, field := range fields {
			row[i] = formatCSVValue(record[field])
		}
		if err := writer.Write(row); err != nil {
			file.Close()
			return fmt.Errorf("report: writing %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("report: closing %s: %w", path, err)
	}
	return nil
}

// tableFields computes the column set: the union of every record's
// keys, ordered by the record that first contributed them. Key order
// within a single record is not observable on a Go map, so each
// record's new keys are sorted before being appended, keeping the
// header deterministic across runs.
func tableFields(result artifact.Result) []string {
	var fields []string
	seen := make(map[string]struct{})
	for _, record := range result {
		var added []string
		for key := range record {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				added = append(added, key)
			}
		}
		sort.Strings(added)
		fields = append(fields, added...)
	}
	return fields
}

// formatCSVValue renders a record value for the CSV report. Times use
// RFC 3339 to match the JSON document's encoding of time.Time.
func formatCSVValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
