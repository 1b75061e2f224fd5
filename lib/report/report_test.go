// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
)

func TestWriteDocumentReport(t *testing.T) {
	root := t.TempDir()
	writer := NewWriter(root, nil)

	envelope := artifact.Envelope{
		Service:     "Example Service",
		Name:        "Example Artifact",
		Version:     "0.2",
		Description: "example records",
		Result: artifact.Result{
			{"url": "https://example.com", "count": 3},
		},
	}

	path, err := writer.Write(envelope)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := filepath.Join(root, "Example_Service", "Example_Artifact.json")
	if path != want {
		t.Errorf("Write returned %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parsing report: %v", err)
	}
	if doc.Service != "Example Service" || doc.Name != "Example Artifact" ||
		doc.Version != "0.2" || doc.Description != "example records" {
		t.Errorf("document metadata = %+v, want envelope metadata", doc)
	}
	if len(doc.Result) != 1 || doc.Result[0]["url"] != "https://example.com" {
		t.Errorf("document records = %v", doc.Result)
	}

	// Document presentation: no CSV alongside.
	if _, err := os.Stat(want[:len(want)-5] + ".csv"); !os.IsNotExist(err) {
		t.Error("document-presentation artifact produced a CSV")
	}
}

func TestWriteFieldNamesAreStable(t *testing.T) {
	root := t.TempDir()
	writer := NewWriter(root, nil)

	path, err := writer.Write(artifact.Envelope{
		Service: "S", Name: "N", Version: "1",
		Result: artifact.Result{{"k": "v"}},
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parsing report: %v", err)
	}
	for _, field := range []string{
		"artifact_service", "artifact_name", "artifact_version",
		"artifact_description", "result",
	} {
		if _, ok := raw[field]; !ok {
			t.Errorf("report document missing field %q", field)
		}
	}
}

func TestWriteTablePresentationCSV(t *testing.T) {
	root := t.TempDir()
	writer := NewWriter(root, nil)

	visit := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	envelope := artifact.Envelope{
		Service:      "Searches",
		Name:         "Search Terms",
		Version:      "0.1",
		Presentation: artifact.PresentationTable,
		Result: artifact.Result{
			{"term": "first"},
			{"term": "second", "timestamp": visit},
			{"term": "third", "timestamp": nil},
		},
	}

	path, err := writer.Write(envelope)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	file, err := os.Open(path[:len(path)-len(".json")] + ".csv")
	if err != nil {
		t.Fatalf("opening csv: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}

	// Columns in first-seen order: "term" from the first record, then
	// "timestamp" from the second.
	if !reflect.DeepEqual(rows[0], []string{"term", "timestamp"}) {
		t.Errorf("header = %v, want [term timestamp]", rows[0])
	}
	if len(rows) != 4 {
		t.Fatalf("csv has %d rows, want header + 3 records", len(rows))
	}
	if rows[1][1] != "" {
		t.Errorf("missing value rendered as %q, want empty", rows[1][1])
	}
	if rows[2][1] != visit.Format(time.RFC3339Nano) {
		t.Errorf("timestamp rendered as %q, want RFC 3339", rows[2][1])
	}
	if rows[3][1] != "" {
		t.Errorf("nil value rendered as %q, want empty", rows[3][1])
	}
}

func TestWriteSkipsFailedAndEmpty(t *testing.T) {
	root := t.TempDir()
	writer := NewWriter(root, nil)

	failed := artifact.Envelope{
		Service: "S", Name: "Failed", Version: "1",
		Err: errors.New("extraction exploded"),
	}
	empty := artifact.Envelope{Service: "S", Name: "Empty", Version: "1"}

	for _, envelope := range []artifact.Envelope{failed, empty} {
		path, err := writer.Write(envelope)
		if err != nil {
			t.Fatalf("Write(%s): %v", envelope.Name, err)
		}
		if path != "" {
			t.Errorf("Write(%s) = %q, want no report", envelope.Name, path)
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("reading report root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("skipped envelopes left %d entries in the report tree", len(entries))
	}
}

func TestWriteRefusesToOverwrite(t *testing.T) {
	root := t.TempDir()
	writer := NewWriter(root, nil)

	envelope := artifact.Envelope{
		Service: "S", Name: "N", Version: "1",
		Result: artifact.Result{{"k": "v"}},
	}
	if _, err := writer.Write(envelope); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if _, err := writer.Write(envelope); err == nil {
		t.Fatal("second Write over the same report succeeded")
	}
}

func TestSummaryAccountsForEveryEnvelope(t *testing.T) {
	summary := NewSummary("/cases/profile")

	summary.Record(artifact.Envelope{Name: "Written"}, true, nil)
	summary.Record(artifact.Envelope{Name: "Empty"}, false, nil)
	summary.Record(artifact.Envelope{Name: "Failed", Err: errors.New("boom")}, false, nil)
	summary.Record(artifact.Envelope{Name: "Unwritten"}, false, errors.New("disk full"))

	if summary.Artifacts != 4 || summary.Written != 1 || summary.Empty != 1 || summary.Failed != 1 {
		t.Errorf("summary counters = %+v", summary)
	}
	if len(summary.Failures) != 1 || summary.Failures[0].Artifact != "Failed" {
		t.Errorf("summary failures = %+v", summary.Failures)
	}
	// A successful extraction whose report failed to persist is a
	// write error, not an empty artifact, and degrades the run.
	if summary.WriteErrors != 1 || len(summary.WriteFailures) != 1 || summary.WriteFailures[0].Artifact != "Unwritten" {
		t.Errorf("summary write failures = %+v", summary.WriteFailures)
	}
	if !summary.Degraded() {
		t.Error("summary with a write error is not degraded")
	}
	if summary.RunID == "" {
		t.Error("summary has no run ID")
	}

	root := t.TempDir()
	if err := summary.WriteFile(root); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "run.json"))
	if err != nil {
		t.Fatalf("reading run.json: %v", err)
	}
	var reread Summary
	if err := json.Unmarshal(data, &reread); err != nil {
		t.Fatalf("parsing run.json: %v", err)
	}
	if reread.RunID != summary.RunID || reread.ProfileFolder != "/cases/profile" {
		t.Errorf("run.json = %+v", reread)
	}
	if reread.FinishedAt.IsZero() {
		t.Error("run.json has no finish time")
	}
}
